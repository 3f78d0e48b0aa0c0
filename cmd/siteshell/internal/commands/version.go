package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/BrianJOC/siteshell/boot"
)

type VersionCmd struct{}

// Run prints the tool version and, when the root holds a supported
// installation, the detected variant and its version.
func (v *VersionCmd) Run(_ context.Context, globals *Globals) error {
	fmt.Printf("siteshell %s\n", globals.Version)

	registry := newRegistry(globals)
	root, err := resolveRoot(globals, registry)
	if err != nil {
		return err
	}
	variant, err := registry.SelectVariant(root)
	if err != nil {
		var noVariant boot.NoVariantError
		if errors.As(err, &noVariant) {
			return nil
		}
		return err
	}
	version, verr := variant.Version(root)
	if verr != nil {
		version = "unknown"
	}
	fmt.Printf("%s %s at %s\n", variant.Name(), version, root)
	return nil
}
