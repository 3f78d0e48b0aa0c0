package boot

// Validate checks the structural invariants of a phase table: non-negative,
// strictly increasing indexes, named entries, and a handler per entry.
func (t PhaseTable) Validate() error {
	last := PhaseNone
	for _, ph := range t {
		if ph.Index < 0 {
			return ValidationError{Reason: "phase index must not be negative"}
		}
		if ph.Index <= last {
			return ValidationError{Reason: "phase indexes must be strictly increasing"}
		}
		if ph.Name == "" {
			return ValidationError{Reason: "phase name must not be empty"}
		}
		if ph.Run == nil {
			return ValidationError{Reason: "phase handler must not be nil"}
		}
		last = ph.Index
	}
	return nil
}

// Highest returns the highest defined phase index, or PhaseNone for an
// empty table.
func (t PhaseTable) Highest() int {
	if len(t) == 0 {
		return PhaseNone
	}
	return t[len(t)-1].Index
}

// Contains reports whether the table defines a phase at index.
func (t PhaseTable) Contains(index int) bool {
	_, ok := t.ByIndex(index)
	return ok
}

// ByIndex returns the phase at index, if defined.
func (t PhaseTable) ByIndex(index int) (Phase, bool) {
	for _, ph := range t {
		if ph.Index == index {
			return ph, true
		}
	}
	return Phase{}, false
}

func validateVariant(v Variant) error {
	table := v.Phases()
	if err := table.Validate(); err != nil {
		return err
	}
	for shorthand, index := range v.PhaseMap() {
		if shorthand == "" {
			return ValidationError{Reason: "phase shorthand must not be empty"}
		}
		if !table.Contains(index) {
			return ValidationError{Reason: "phase shorthand " + shorthand + " resolves outside the phase table"}
		}
	}
	for _, index := range v.InitPhases() {
		if !table.Contains(index) {
			return ValidationError{Reason: "discovery phase set contains an index outside the phase table"}
		}
	}
	return nil
}
