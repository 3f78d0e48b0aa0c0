package rootscan

import "fmt"

// NotFoundError indicates no directory between the start and the filesystem
// root satisfied the probe.
type NotFoundError struct {
	Start  string
	Reason string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("no installation root found from %q: %s", e.Start, e.Reason)
}
