// Package variants bundles the supported installation variants into a ready
// registry. Registration order matters for roots that somehow satisfy more
// than one variant's markers: the first registered variant wins, and the
// modern layout is checked first.
package variants

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/BrianJOC/siteshell/boot"
	"github.com/BrianJOC/siteshell/variants/legacysite"
	"github.com/BrianJOC/siteshell/variants/modernsite"
)

// DefaultRegistry builds a registry with all supported variants wired to the
// given logger and diagnostic output.
func DefaultRegistry(logger zerolog.Logger, errOut io.Writer) *boot.Registry {
	registry := boot.NewRegistry()
	err := registry.Register(
		modernsite.New().WithLogger(logger).WithOutput(errOut),
		legacysite.New().WithLogger(logger).WithOutput(errOut),
	)
	if err != nil {
		// The built-in variants are validated by their own tests; failing
		// here means a programming error, not an input error.
		panic(err)
	}
	return registry
}
