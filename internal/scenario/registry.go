package scenario

import "fmt"

// Registry holds scenarios in registration order. Execution order is the
// registration order, never alphabetical; the numeric-prefix naming
// convention in the built-in suite just makes that order legible.
type Registry struct {
	scenarios []Scenario
	byName    map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]struct{})}
}

// Register appends a scenario. Duplicate names are rejected.
func (r *Registry) Register(s Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if s.Step == nil {
		return fmt.Errorf("scenario %q has no step", s.Name)
	}
	if _, dup := r.byName[s.Name]; dup {
		return fmt.Errorf("scenario %q already registered", s.Name)
	}
	r.byName[s.Name] = struct{}{}
	r.scenarios = append(r.scenarios, s)
	return nil
}

// MustRegister registers or panics. For static suite construction.
func (r *Registry) MustRegister(s Scenario) {
	if err := r.Register(s); err != nil {
		panic(err)
	}
}

// All returns the scenarios in registration order.
func (r *Registry) All() []Scenario {
	out := make([]Scenario, len(r.scenarios))
	copy(out, r.scenarios)
	return out
}

// Len returns the number of registered scenarios.
func (r *Registry) Len() int { return len(r.scenarios) }
