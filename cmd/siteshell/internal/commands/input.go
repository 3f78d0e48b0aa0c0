package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/BrianJOC/siteshell/boot"
)

var (
	osStdin  io.Reader = os.Stdin
	osStderr io.Writer = os.Stderr
)

// stdinInputHandler answers phase input requests by prompting on the
// terminal. Select inputs print numbered options and take either a number or
// a literal value.
type stdinInputHandler struct {
	in  *bufio.Reader
	out io.Writer
}

func newStdinInputHandler(in io.Reader, out io.Writer) *stdinInputHandler {
	return &stdinInputHandler{
		in:  bufio.NewReader(in),
		out: out,
	}
}

func (h *stdinInputHandler) RequestInput(ph boot.Phase, input boot.InputDefinition, reason string) (any, error) {
	if reason != "" {
		fmt.Fprintf(h.out, "%s\n", reason)
	}
	if input.Kind == boot.InputKindSelect {
		for i, opt := range input.Options {
			label := opt.Label
			if opt.Description != "" {
				label = fmt.Sprintf("%s (%s)", label, opt.Description)
			}
			fmt.Fprintf(h.out, "  [%d] %s\n", i+1, label)
		}
	}
	for {
		fmt.Fprintf(h.out, "%s: ", input.Label)
		line, err := h.in.ReadString('\n')
		if err != nil && line == "" {
			return nil, fmt.Errorf("reading input for %s: %w", input.ID, err)
		}
		value := strings.TrimSpace(line)
		if value == "" {
			if def := input.Default; def != nil {
				return def, nil
			}
			if !input.Required {
				return "", nil
			}
			continue
		}
		if input.Kind == boot.InputKindSelect {
			if n, convErr := strconv.Atoi(value); convErr == nil && n >= 1 && n <= len(input.Options) {
				return input.Options[n-1].Value, nil
			}
		}
		return value, nil
	}
}

// failingInputHandler rejects every input request. Used under
// --no-interaction so scripted runs fail fast instead of hanging.
type failingInputHandler struct{}

func (failingInputHandler) RequestInput(ph boot.Phase, input boot.InputDefinition, reason string) (any, error) {
	return nil, fmt.Errorf("phase %s requires input %s, but interaction is disabled", ph.Name, input.ID)
}

func inputHandler(globals *Globals) boot.InputHandler {
	if globals.NoInteraction {
		return failingInputHandler{}
	}
	return newStdinInputHandler(osStdin, osStderr)
}
