package cmsversion

import "fmt"

// ParseError indicates a version string without a usable numeric prefix.
type ParseError struct {
	Raw    string
	Reason string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("unparseable version %q: %s", e.Raw, e.Reason)
}
