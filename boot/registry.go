package boot

// Registry holds the known variants in a fixed priority order. Selection
// asks each variant in registration order whether it claims the root and
// stops at the first match.
type Registry struct {
	variants []Variant
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends variants in priority order, validating each variant's
// phase table, alias map, and discovery set.
func (r *Registry) Register(variants ...Variant) error {
	for _, v := range variants {
		if v == nil {
			continue
		}
		if v.Name() == "" {
			return ValidationError{Reason: "variant name must not be empty"}
		}
		if err := validateVariant(v); err != nil {
			return err
		}
		r.variants = append(r.variants, v)
	}
	return nil
}

// Variants returns the registered variants in priority order.
func (r *Registry) Variants() []Variant {
	out := make([]Variant, len(r.variants))
	copy(out, r.variants)
	return out
}

// SelectVariant returns the first registered variant claiming root, or a
// NoVariantError when none does.
func (r *Registry) SelectVariant(root string) (Variant, error) {
	for _, v := range r.variants {
		if v.ValidRoot(root) {
			return v, nil
		}
	}
	return nil, NoVariantError{Root: root}
}
