package boot

import (
	"fmt"
	"io"
	"strings"
)

// RenderCommandError is the default rendering shared by variant
// implementations of ReportCommandError: accumulated bootstrap errors when
// there are any, otherwise a generic not-found diagnostic with any near-miss
// suggestions the resolver attached.
func RenderCommandError(w io.Writer, cmd *Command) {
	if w == nil {
		return
	}
	if cmd != nil && len(cmd.BootstrapErrors) > 0 {
		for _, line := range cmd.BootstrapErrors {
			fmt.Fprintln(w, line)
		}
		return
	}

	name := ""
	if cmd != nil {
		name = cmd.Name
	}
	if name == "" {
		fmt.Fprintln(w, "no command matched the request")
		return
	}
	fmt.Fprintf(w, "command not found: %s\n", name)
	if cmd != nil && len(cmd.Suggestions) > 0 {
		fmt.Fprintf(w, "did you mean: %s?\n", strings.Join(cmd.Suggestions, ", "))
	}
}
