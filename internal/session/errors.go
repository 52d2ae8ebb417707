package session

import (
	"errors"
	"fmt"
	"strings"
)

// Attempt records one failed provisioning try.
type Attempt struct {
	Backend string
	Err     error
}

// ProvisioningError is returned when no backend yielded a usable session
// after exhausting the fallback order. It is fatal to a run: no scenario
// can execute without a session.
type ProvisioningError struct {
	Attempts []Attempt
}

func (e *ProvisioningError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "no backend yielded a session (%d attempted)", len(e.Attempts))
	for _, a := range e.Attempts {
		fmt.Fprintf(&buf, "\n  %s: %v", a.Backend, a.Err)
	}
	return buf.String()
}

// IsProvisioning reports whether err is a provisioning failure, unwrapping
// as needed.
func IsProvisioning(err error) bool {
	var pe *ProvisioningError
	return errors.As(err, &pe)
}
