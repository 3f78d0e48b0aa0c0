package boot

// State is the single record mutated across one bootstrap run. The
// Bootstrapper is the sole writer of Variant and Phase; phase handlers
// communicate through Values.
type State struct {
	// Root is the filesystem root the run operates against.
	Root string

	// SiteURI identifies which logical site within a multi-site root to
	// bootstrap. Injected once, before any phase runs.
	SiteURI string

	// Variant is the active variant, nil until selection and never
	// re-selected afterwards.
	Variant Variant

	// Version is the variant-reported installation version, set right
	// after selection. Empty when extraction failed.
	Version string

	// Phase is the index of the last successfully completed phase,
	// starting at PhaseNone. It only ever increases within a run.
	Phase int

	// Values carries data phases hand to later phases and to commands.
	Values *Context
}

func newState(root, siteURI string) *State {
	return &State{
		Root:    root,
		SiteURI: siteURI,
		Phase:   PhaseNone,
		Values:  NewContext(),
	}
}
