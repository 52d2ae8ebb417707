// Package wait implements the condition poller: a generic "wait until a
// predicate over UI state holds, or time out" primitive.
//
// Conditions are a closed set of tagged variants rather than opaque
// callbacks, so the poller's evaluation logic is exhaustively testable.
// The Custom variant remains as the escape hatch for one-off predicates.
package wait

import (
	"context"
	"fmt"
	"strings"

	"github.com/benedictaitor/uiprobe/internal/driver"
)

// Kind enumerates the condition variants.
type Kind string

const (
	KindElementPresent  Kind = "element_present"
	KindTextPresentIn   Kind = "text_present_in"
	KindAttributeEquals Kind = "attribute_equals"
	KindTitleContains   Kind = "title_contains"
	KindCustom          Kind = "custom"
)

// Condition is a named, re-evaluatable predicate over UI state. Conditions
// are stateless; each poll tick evaluates them from scratch.
type Condition struct {
	Kind      Kind
	Selector  string
	Attribute string
	Value     string
	Text      string
	Name      string

	// Predicate is only set for KindCustom.
	Predicate func(ctx context.Context, d driver.Driver) (bool, error)
}

// ElementPresent holds when an element matching the CSS selector exists.
func ElementPresent(selector string) Condition {
	return Condition{Kind: KindElementPresent, Selector: selector}
}

// TextPresentIn holds when the element's visible text contains text.
func TextPresentIn(selector, text string) Condition {
	return Condition{Kind: KindTextPresentIn, Selector: selector, Text: text}
}

// AttributeEquals holds when the element's attribute equals value. An
// absent attribute reads as the empty string, so AttributeEquals(sel, "disabled", "")
// asserts the attribute is not set.
func AttributeEquals(selector, attribute, value string) Condition {
	return Condition{Kind: KindAttributeEquals, Selector: selector, Attribute: attribute, Value: value}
}

// TitleContains holds when the page title contains text.
func TitleContains(text string) Condition {
	return Condition{Kind: KindTitleContains, Text: text}
}

// Custom wraps an arbitrary predicate. The name is used in timeout
// diagnostics; pick something a failure message can show verbatim.
func Custom(name string, predicate func(ctx context.Context, d driver.Driver) (bool, error)) Condition {
	return Condition{Kind: KindCustom, Name: name, Predicate: predicate}
}

// Eval evaluates the condition once against the driver.
func (c Condition) Eval(ctx context.Context, d driver.Driver) (bool, error) {
	switch c.Kind {
	case KindElementPresent:
		_, err := d.FindElement(ctx, c.Selector)
		if err != nil {
			return false, err
		}
		return true, nil

	case KindTextPresentIn:
		id, err := d.FindElement(ctx, c.Selector)
		if err != nil {
			return false, err
		}
		text, err := d.Text(ctx, id)
		if err != nil {
			return false, err
		}
		return strings.Contains(text, c.Text), nil

	case KindAttributeEquals:
		id, err := d.FindElement(ctx, c.Selector)
		if err != nil {
			return false, err
		}
		value, err := d.GetAttribute(ctx, id, c.Attribute)
		if err != nil {
			return false, err
		}
		return value == c.Value, nil

	case KindTitleContains:
		title, err := d.Title(ctx)
		if err != nil {
			return false, err
		}
		return strings.Contains(title, c.Text), nil

	case KindCustom:
		if c.Predicate == nil {
			return false, fmt.Errorf("custom condition %q has no predicate", c.Name)
		}
		return c.Predicate(ctx, d)

	default:
		return false, fmt.Errorf("unknown condition kind %q", c.Kind)
	}
}

// String renders the condition for diagnostics.
func (c Condition) String() string {
	switch c.Kind {
	case KindElementPresent:
		return fmt.Sprintf("element %q present", c.Selector)
	case KindTextPresentIn:
		return fmt.Sprintf("text %q present in %q", c.Text, c.Selector)
	case KindAttributeEquals:
		return fmt.Sprintf("attribute %q of %q equals %q", c.Attribute, c.Selector, c.Value)
	case KindTitleContains:
		return fmt.Sprintf("title contains %q", c.Text)
	case KindCustom:
		return fmt.Sprintf("custom condition %q", c.Name)
	default:
		return fmt.Sprintf("unknown condition %q", c.Kind)
	}
}
