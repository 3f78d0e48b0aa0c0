// Package boot drives the phased initialization of an external
// content-management installation. A Registry picks the single Variant that
// claims a filesystem root, and a Bootstrapper walks that variant's ordered
// phase table far enough to satisfy the command being dispatched.
package boot

import "context"

// PhaseNone is the phase index of a run that has not executed any phase.
const PhaseNone = -1

// Handler performs the work of a single bootstrap phase.
type Handler func(ctx context.Context, st *State) error

// Phase is one ordered entry in a variant's phase table.
type Phase struct {
	Index int
	Name  string
	Run   Handler
}

// PhaseTable is an ordered list of phases with strictly increasing indexes.
// Tables are built once at variant construction and never mutated.
type PhaseTable []Phase

// RequirementResult reports the outcome of a variant's requirement gate.
// Diagnostics are ordered, human-readable reasons dispatch must not proceed.
type RequirementResult struct {
	OK          bool
	Diagnostics []string
}

// Variant is one supported kind of external installation. Exactly one
// variant is active per run; selection is irreversible.
//
// At most one registered variant should claim any given root. The registry
// does not verify this; when variants misbehave the first match silently
// wins.
type Variant interface {
	// Name identifies the variant in diagnostics.
	Name() string

	// ValidRoot reports whether this variant's installation lives at root.
	// It must be cheap and side-effect free; it runs during selection and
	// during upward root scanning.
	ValidRoot(root string) bool

	// Version extracts the installed version string. It is consulted only
	// after selection, never to influence it.
	Version(root string) (string, error)

	// Phases returns the variant's ordered phase table.
	Phases() PhaseTable

	// PhaseMap maps human-friendly shorthands to phase indexes. Every value
	// must be an index present in Phases.
	PhaseMap() map[string]int

	// InitPhases returns the discovery subset: the leading phases that are
	// cheap enough to run solely to enumerate available commands.
	InitPhases() []int

	// CheckRequirements gates dispatch once the command's required phase is
	// reached. It must not advance phases or mutate state; it only inspects
	// and reports.
	CheckRequirements(st *State, cmd *Command) RequirementResult

	// ReportCommandError renders cmd's accumulated bootstrap errors, or a
	// generic not-found diagnostic when there are none. It never fails.
	ReportCommandError(cmd *Command)

	// Terminate is the guaranteed cleanup hook, invoked exactly once at the
	// end of every run that selected this variant.
	Terminate(st *State)
}

// Observer receives lifecycle callbacks for each executed phase.
type Observer interface {
	PhaseStarted(ph Phase)
	PhaseCompleted(ph Phase, err error)
}

// InputHandler resolves InputRequestError instances by collecting values
// from the operator or another system.
type InputHandler interface {
	RequestInput(ph Phase, input InputDefinition, reason string) (any, error)
}

// InputHandlerFunc adapts a function into an InputHandler.
type InputHandlerFunc func(ph Phase, input InputDefinition, reason string) (any, error)

// RequestInput implements InputHandler.
func (f InputHandlerFunc) RequestInput(ph Phase, input InputDefinition, reason string) (any, error) {
	return f(ph, input, reason)
}

// InputDefinition describes data a phase requires from the operator/UI.
type InputDefinition struct {
	ID          string
	Label       string
	Description string
	Kind        InputKind
	Required    bool
	Options     []InputOption
	Default     any
}

// InputKind identifies how an input should be rendered.
type InputKind string

const (
	InputKindText   InputKind = "text"
	InputKindSelect InputKind = "select"
)

// InputOption represents a selectable value.
type InputOption struct {
	Value       string
	Label       string
	Description string
}
