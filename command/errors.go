package command

import "fmt"

// DuplicateError occurs when a command name or alias is registered twice.
type DuplicateError struct {
	Name string
}

func (e DuplicateError) Error() string {
	return fmt.Sprintf("command %q already registered", e.Name)
}

// NotFoundError occurs when no command matches the requested name. It
// carries near-miss suggestions for reporting.
type NotFoundError struct {
	Name        string
	Suggestions []string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("command not found: %s", e.Name)
}
