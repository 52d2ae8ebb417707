package wait_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benedictaitor/uiprobe/internal/driver"
	"github.com/benedictaitor/uiprobe/internal/testutil"
	"github.com/benedictaitor/uiprobe/internal/wait"
)

func TestCondition_ElementPresent(t *testing.T) {
	d := testutil.NewFakeDriver()
	d.AddElement("header", testutil.FakeElement{})

	ok, err := wait.ElementPresent("header").Eval(context.Background(), d)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = wait.ElementPresent("#missing").Eval(context.Background(), d)
	assert.ErrorIs(t, err, driver.ErrNoSuchElement)
}

func TestCondition_TextPresentIn(t *testing.T) {
	d := testutil.NewFakeDriver()
	d.AddElement("#transcript", testutil.FakeElement{TextContent: "hello world"})

	ok, err := wait.TextPresentIn("#transcript", "hello").Eval(context.Background(), d)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = wait.TextPresentIn("#transcript", "goodbye").Eval(context.Background(), d)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCondition_AttributeEquals(t *testing.T) {
	d := testutil.NewFakeDriver()
	d.AddElement("button", testutil.FakeElement{
		Attributes: map[string]string{"disabled": "true"},
	})

	ok, err := wait.AttributeEquals("button", "disabled", "true").Eval(context.Background(), d)
	require.NoError(t, err)
	assert.True(t, ok)

	// Absent attributes read as empty string.
	ok, err = wait.AttributeEquals("button", "aria-hidden", "").Eval(context.Background(), d)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCondition_TitleContains(t *testing.T) {
	d := testutil.NewFakeDriver()
	d.PageTitle = "Benedictaitor - Teacher"

	ok, err := wait.TitleContains("Benedictaitor").Eval(context.Background(), d)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = wait.TitleContains("Student").Eval(context.Background(), d)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCondition_Custom(t *testing.T) {
	d := testutil.NewFakeDriver()
	calls := 0
	cond := wait.Custom("three calls", func(ctx context.Context, _ driver.Driver) (bool, error) {
		calls++
		return calls >= 3, nil
	})

	ok, err := cond.Eval(context.Background(), d)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, calls)
}

func TestCondition_Custom_NoPredicate(t *testing.T) {
	d := testutil.NewFakeDriver()
	cond := wait.Condition{Kind: wait.KindCustom, Name: "empty"}

	_, err := cond.Eval(context.Background(), d)
	assert.Error(t, err)
}

func TestCondition_String(t *testing.T) {
	assert.Equal(t, `element "header" present`, wait.ElementPresent("header").String())
	assert.Equal(t, `text "hi" present in "#box"`, wait.TextPresentIn("#box", "hi").String())
	assert.Equal(t, `attribute "disabled" of "button" equals "true"`,
		wait.AttributeEquals("button", "disabled", "true").String())
	assert.Equal(t, `title contains "App"`, wait.TitleContains("App").String())
	assert.Equal(t, `custom condition "chunks"`, wait.Custom("chunks", nil).String())
}
