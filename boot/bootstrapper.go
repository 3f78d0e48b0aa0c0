package boot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// ResolveFunc locates the command a run should dispatch. It is called after
// the discovery advance so command sources gated behind early phases are
// available. Returning a nil command (or an error) aborts dispatch.
type ResolveFunc func(ctx context.Context, st *State) (*Command, error)

// DispatchFunc executes the resolved command once its requirements are met.
type DispatchFunc func(ctx context.Context, st *State, cmd *Command) error

// Bootstrapper coordinates one run: variant selection, ordered phase
// advancement, requirement gating, error reporting, and teardown. It is
// driven by a single goroutine; phases execute strictly in order, one at a
// time.
type Bootstrapper struct {
	registry     *Registry
	state        *State
	logger       zerolog.Logger
	observers    []Observer
	inputHandler InputHandler
	errOut       io.Writer

	selected  bool
	executed  map[int]bool
	terminate sync.Once
}

// Option mutates bootstrapper configuration.
type Option func(*Bootstrapper)

// WithSiteURI injects the site URI before any phase runs.
func WithSiteURI(uri string) Option {
	return func(b *Bootstrapper) {
		b.state.SiteURI = uri
	}
}

// WithLogger sets the logger used for phase-transition events.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Bootstrapper) {
		b.logger = logger
	}
}

// WithObserver registers an observer to receive phase lifecycle events.
func WithObserver(obs Observer) Option {
	return func(b *Bootstrapper) {
		b.AddObserver(obs)
	}
}

// WithInputHandler registers a handler to satisfy phase input requests.
func WithInputHandler(handler InputHandler) Option {
	return func(b *Bootstrapper) {
		b.SetInputHandler(handler)
	}
}

// WithErrorOutput redirects diagnostics emitted when no variant is active.
func WithErrorOutput(w io.Writer) Option {
	return func(b *Bootstrapper) {
		if w != nil {
			b.errOut = w
		}
	}
}

// NewBootstrapper constructs a Bootstrapper over the given registry and
// root path.
func NewBootstrapper(registry *Registry, root string, opts ...Option) *Bootstrapper {
	b := &Bootstrapper{
		registry: registry,
		state:    newState(root, ""),
		logger:   zerolog.Nop(),
		errOut:   os.Stderr,
		executed: make(map[int]bool),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// State returns the run state.
func (b *Bootstrapper) State() *State {
	return b.state
}

// AddObserver registers an observer. Must happen before phases run.
func (b *Bootstrapper) AddObserver(obs Observer) {
	if obs != nil {
		b.observers = append(b.observers, obs)
	}
}

// SetInputHandler registers the input handler. Must happen before phases run.
func (b *Bootstrapper) SetInputHandler(handler InputHandler) {
	if handler != nil {
		b.inputHandler = handler
	}
}

// SetURI injects the site URI. It fails once any phase has executed, so
// misuse surfaces instead of silently bootstrapping the wrong site.
func (b *Bootstrapper) SetURI(uri string) error {
	if b.state.Phase > PhaseNone {
		return AlreadyStartedError{Phase: b.state.Phase}
	}
	b.state.SiteURI = uri
	return nil
}

// SelectVariant resolves and pins the active variant for this run. The
// first call decides; later calls return the pinned result. A root claimed
// by no variant yields a NoVariantError and leaves the run variant-less.
func (b *Bootstrapper) SelectVariant() (Variant, error) {
	if b.selected {
		if b.state.Variant == nil {
			return nil, NoVariantError{Root: b.state.Root}
		}
		return b.state.Variant, nil
	}
	b.selected = true

	variant, err := b.registry.SelectVariant(b.state.Root)
	if err != nil {
		b.logger.Debug().Str("root", b.state.Root).Msg("no installation variant detected")
		return nil, err
	}
	b.state.Variant = variant

	version, verr := variant.Version(b.state.Root)
	if verr != nil {
		b.logger.Warn().Err(verr).Str("variant", variant.Name()).Msg("could not determine installation version")
	} else {
		b.state.Version = version
	}
	b.logger.Debug().
		Str("variant", variant.Name()).
		Str("version", b.state.Version).
		Str("root", b.state.Root).
		Msg("installation variant selected")
	return variant, nil
}

// LookupPhaseIndex resolves a phase reference for the active variant. An
// index already valid for the variant returns unchanged; a shorthand
// resolves through the alias map; "" and "none" mean PhaseNone. The
// resolution is idempotent.
func (b *Bootstrapper) LookupPhaseIndex(ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == "none" {
		return PhaseNone, nil
	}

	variant := b.state.Variant
	if n, err := strconv.Atoi(ref); err == nil {
		if n == PhaseNone {
			return PhaseNone, nil
		}
		if variant != nil && variant.Phases().Contains(n) {
			return n, nil
		}
		return PhaseNone, UnknownPhaseError{Ref: ref, Variant: variantName(variant)}
	}
	if variant != nil {
		if index, ok := variant.PhaseMap()[ref]; ok {
			return index, nil
		}
	}
	return PhaseNone, UnknownPhaseError{Ref: ref, Variant: variantName(variant)}
}

// DiscoveryAdvance executes, in index order, the leading phases belonging
// to the active variant's discovery set. It is the cheap partial bootstrap
// used to reach command definitions without full initialization.
func (b *Bootstrapper) DiscoveryAdvance(ctx context.Context) error {
	variant := b.state.Variant
	if variant == nil {
		return nil
	}
	members := make(map[int]bool, len(variant.InitPhases()))
	for _, index := range variant.InitPhases() {
		members[index] = true
	}
	for _, ph := range variant.Phases() {
		if !members[ph.Index] {
			// The discovery set is a prefix of the table; the first
			// non-member ends the advance.
			break
		}
		if err := b.executePhase(ctx, ph); err != nil {
			return err
		}
	}
	return nil
}

// AdvanceTo executes every not-yet-executed phase up to and including
// target, in index order. A handler failure halts the run at the last
// completed phase and propagates as a PhaseFailureError.
func (b *Bootstrapper) AdvanceTo(ctx context.Context, target int) error {
	if target <= PhaseNone {
		return nil
	}
	variant := b.state.Variant
	if variant == nil {
		return NoVariantError{Root: b.state.Root}
	}
	table := variant.Phases()
	if !table.Contains(target) {
		return UnknownPhaseError{Ref: strconv.Itoa(target), Variant: variant.Name()}
	}
	for _, ph := range table {
		if ph.Index > target {
			break
		}
		if err := b.executePhase(ctx, ph); err != nil {
			return err
		}
	}
	return nil
}

// Run orchestrates a whole dispatch cycle: select the variant, advance
// through the discovery phases, resolve the command, advance to its
// required phase, gate on the variant's requirements, and hand the command
// to dispatch. The active variant's Terminate runs exactly once on every
// path out of this method, including panics in phase handlers.
func (b *Bootstrapper) Run(ctx context.Context, resolve ResolveFunc, dispatch DispatchFunc) error {
	defer b.Terminate()

	if _, err := b.SelectVariant(); err != nil {
		var noVariant NoVariantError
		if !errors.As(err, &noVariant) {
			return err
		}
		// Not fatal: zero-bootstrap commands still run.
	}

	if err := b.DiscoveryAdvance(ctx); err != nil {
		b.report(&Command{BootstrapErrors: []string{err.Error()}})
		return err
	}

	cmd, err := resolve(ctx, b.state)
	if err != nil {
		b.report(cmd)
		return err
	}
	if cmd == nil {
		b.report(nil)
		return fmt.Errorf("no command resolved")
	}

	target, err := b.LookupPhaseIndex(cmd.RequiredPhase)
	if err != nil {
		if b.state.Variant == nil {
			cmd.BootstrapErrors = append(cmd.BootstrapErrors,
				fmt.Sprintf("command %s requires bootstrap phase %q, but no supported installation was found at %q",
					cmd.Name, cmd.RequiredPhase, b.state.Root))
		} else {
			cmd.BootstrapErrors = append(cmd.BootstrapErrors, err.Error())
		}
		b.report(cmd)
		return err
	}

	if err := b.AdvanceTo(ctx, target); err != nil {
		cmd.BootstrapErrors = append(cmd.BootstrapErrors, err.Error())
		b.report(cmd)
		return err
	}

	if variant := b.state.Variant; variant != nil {
		result := variant.CheckRequirements(b.state, cmd)
		cmd.BootstrapErrors = append(cmd.BootstrapErrors, result.Diagnostics...)
		if !result.OK {
			b.report(cmd)
			return RequirementNotMetError{Command: cmd.Name}
		}
	}

	return dispatch(ctx, b.state, cmd)
}

// Terminate invokes the active variant's cleanup hook. It is safe to call
// more than once; the hook itself runs at most once per run, and a run with
// no selected variant terminates as a no-op.
func (b *Bootstrapper) Terminate() {
	b.terminate.Do(func() {
		variant := b.state.Variant
		if variant == nil {
			return
		}
		variant.Terminate(b.state)
		b.logger.Debug().Str("variant", variant.Name()).Msg("bootstrap terminated")
	})
}

func (b *Bootstrapper) executePhase(ctx context.Context, ph Phase) error {
	if b.executed[ph.Index] {
		return nil
	}
	b.notifyStart(ph)
	b.logger.Debug().Int("phase", ph.Index).Str("name", ph.Name).Msg("phase started")

	err := b.runHandler(ctx, ph)
	b.notifyComplete(ph, err)
	if err != nil {
		b.logger.Debug().Int("phase", ph.Index).Str("name", ph.Name).Err(err).Msg("phase failed")
		return PhaseFailureError{Index: ph.Index, Name: ph.Name, Err: err}
	}

	b.executed[ph.Index] = true
	b.state.Phase = ph.Index
	b.logger.Debug().Int("phase", ph.Index).Str("name", ph.Name).Msg("phase completed")
	return nil
}

func (b *Bootstrapper) runHandler(ctx context.Context, ph Phase) error {
	for {
		err := ph.Run(ctx, b.state)
		if err == nil {
			return nil
		}
		var inputErr InputRequestError
		if errors.As(err, &inputErr) {
			if b.inputHandler == nil {
				return err
			}
			value, handlerErr := b.inputHandler.RequestInput(ph, inputErr.Input, inputErr.Reason)
			if handlerErr != nil {
				return handlerErr
			}
			SetInput(b.state, inputErr.PhaseIndex, inputErr.Input.ID, value)
			continue
		}
		return err
	}
}

func (b *Bootstrapper) report(cmd *Command) {
	if variant := b.state.Variant; variant != nil {
		variant.ReportCommandError(cmd)
		return
	}
	RenderCommandError(b.errOut, cmd)
}

func (b *Bootstrapper) notifyStart(ph Phase) {
	for _, obs := range b.observers {
		obs.PhaseStarted(ph)
	}
}

func (b *Bootstrapper) notifyComplete(ph Phase, err error) {
	for _, obs := range b.observers {
		obs.PhaseCompleted(ph, err)
	}
}

func variantName(v Variant) string {
	if v == nil {
		return ""
	}
	return v.Name()
}
