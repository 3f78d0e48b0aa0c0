package boot

import "fmt"

// NoVariantError occurs when no registered variant claims a root. Callers
// treat it as "operate without a bootstrapped installation", not as fatal.
type NoVariantError struct {
	Root string
}

func (e NoVariantError) Error() string {
	return fmt.Sprintf("no supported installation detected at %q", e.Root)
}

// UnknownPhaseError occurs when a phase reference resolves to neither an
// index nor a shorthand of the active variant.
type UnknownPhaseError struct {
	Ref     string
	Variant string
}

func (e UnknownPhaseError) Error() string {
	if e.Variant == "" {
		return fmt.Sprintf("unknown bootstrap phase %q (no installation selected)", e.Ref)
	}
	return fmt.Sprintf("unknown bootstrap phase %q for %s installation", e.Ref, e.Variant)
}

// PhaseFailureError wraps a failure reported by a phase handler. The run
// halts at the last successfully completed phase.
type PhaseFailureError struct {
	Index int
	Name  string
	Err   error
}

func (e PhaseFailureError) Error() string {
	return fmt.Sprintf("bootstrap phase %d (%s) failed: %v", e.Index, e.Name, e.Err)
}

func (e PhaseFailureError) Unwrap() error {
	return e.Err
}

// RequirementNotMetError occurs when a command fails its variant's
// requirement gate. The reasons live on the command's BootstrapErrors.
type RequirementNotMetError struct {
	Command string
}

func (e RequirementNotMetError) Error() string {
	return fmt.Sprintf("command %q failed its bootstrap requirements", e.Command)
}

// AlreadyStartedError occurs when run state is mutated after the first
// phase has executed.
type AlreadyStartedError struct {
	Phase int
}

func (e AlreadyStartedError) Error() string {
	return fmt.Sprintf("bootstrap already advanced to phase %d", e.Phase)
}

// ValidationError represents invalid registry/variant configuration.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("variant validation failed: %s", e.Reason)
}

// InputRequestError indicates a phase requires additional input from the
// operator before continuing.
type InputRequestError struct {
	PhaseIndex int
	PhaseName  string
	Input      InputDefinition
	Reason     string
}

func (e InputRequestError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("phase %s requires input %s: %s", e.PhaseName, e.Input.ID, e.Reason)
	}
	return fmt.Sprintf("phase %s requires input %s", e.PhaseName, e.Input.ID)
}
