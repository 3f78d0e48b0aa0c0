package boot

import (
	"context"
	"fmt"
	"strings"
)

// RunFunc executes a dispatched command against the bootstrapped state.
type RunFunc func(ctx context.Context, st *State, args []string) error

// Command describes a dispatchable command as the bootstrapper consumes it.
// Discovery and parsing of commands belong to external collaborators; the
// bootstrapper only reads the declared requirements and accumulates
// bootstrap diagnostics.
type Command struct {
	Name        string
	Aliases     []string
	Description string

	// RequiredPhase is the phase shorthand or decimal index the command
	// needs before it can run. Empty (or "none") means the command runs
	// without any bootstrap.
	RequiredPhase string

	// Defaults carries command-level default values, e.g. "min-version".
	Defaults map[string]any

	// BootstrapErrors accumulates, in order, the diagnostics produced while
	// bootstrapping toward this command.
	BootstrapErrors []string

	// Suggestions holds near-miss command names, populated by resolvers
	// when the lookup failed.
	Suggestions []string

	Hidden bool
	Run    RunFunc
}

// Default returns the command-level default for key.
func (c *Command) Default(key string) (any, bool) {
	if c == nil || c.Defaults == nil {
		return nil, false
	}
	val, ok := c.Defaults[key]
	return val, ok
}

// DefaultString returns the command-level default for key as a trimmed
// string, or "" when unset.
func (c *Command) DefaultString(key string) string {
	val, ok := c.Default(key)
	if !ok || val == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(val))
}
