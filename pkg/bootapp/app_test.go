package bootapp

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/BrianJOC/siteshell/boot"
)

func TestNewRequiresRegistryAndRoot(t *testing.T) {
	t.Parallel()
	if _, err := New(WithRoot("/tmp")); !errors.Is(err, ErrNoRegistry) {
		t.Fatalf("expected ErrNoRegistry, got %v", err)
	}
	if _, err := New(WithRegistry(boot.NewRegistry())); !errors.Is(err, ErrNoRoot) {
		t.Fatalf("expected ErrNoRoot, got %v", err)
	}
}

func TestAppStartAdvancesAllPhases(t *testing.T) {
	t.Parallel()

	recorder := newRecordingObserver(2)
	app := newTestApp(t, newStubRegistry(t, nil),
		WithBootstrapOptions(boot.WithObserver(recorder)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := runAppAsync(app, ctx)
	recorder.wait(t, time.Second)

	if err := app.Stop(); err != nil {
		t.Fatalf("stop error: %v", err)
	}
	assertNoError(t, errCh)

	want := []string{"start:detect", "complete:detect", "start:load", "complete:load"}
	if got := recorder.events(); !equalStrings(got, want) {
		t.Fatalf("unexpected events: got %v want %v", got, want)
	}
}

func TestAppStartToleratesUnclaimedRoot(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, boot.NewRegistry())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := runAppAsync(app, ctx)

	// The run finishes immediately; give the finished message a moment to
	// land before quitting.
	time.Sleep(50 * time.Millisecond)

	if err := app.Stop(); err != nil {
		t.Fatalf("stop error: %v", err)
	}
	assertNoError(t, errCh)
}

func TestAppRejectsConcurrentStart(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	blocking := func(ctx context.Context, _ *boot.State) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-release:
			return nil
		}
	}
	app := newTestApp(t, newStubRegistry(t, blocking))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := runAppAsync(app, ctx)

	// Give the first Start call a moment to initialize.
	time.Sleep(50 * time.Millisecond)

	if err := app.Start(ctx); !errors.Is(err, ErrProgramRunning) {
		t.Fatalf("expected ErrProgramRunning, got %v", err)
	}

	close(release)

	if err := app.Stop(); err != nil {
		t.Fatalf("stop error: %v", err)
	}
	assertNoError(t, errCh)
}

func TestAppTerminatesVariantOnPhaseFailure(t *testing.T) {
	t.Parallel()

	variant := &stubVariant{
		detectRun: func(ctx context.Context, _ *boot.State) error {
			return errors.New("disk gone")
		},
	}
	registry := boot.NewRegistry()
	if err := registry.Register(variant); err != nil {
		t.Fatalf("register error: %v", err)
	}
	app := newTestApp(t, registry)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := runAppAsync(app, ctx)
	variant.waitTerminated(t, time.Second)

	if err := app.Stop(); err != nil {
		t.Fatalf("stop error: %v", err)
	}
	assertNoError(t, errCh)
}

// --- helpers ---

func newTestApp(t *testing.T, registry *boot.Registry, opts ...Option) *App {
	t.Helper()
	headlessInput := bytes.NewBuffer(nil)
	opts = append(opts,
		WithRegistry(registry),
		WithRoot(t.TempDir()),
		WithProgramOptions(
			tea.WithoutRenderer(),
			tea.WithInput(headlessInput),
			tea.WithOutput(io.Discard),
		),
	)
	app, err := New(opts...)
	if err != nil {
		t.Fatalf("app init error: %v", err)
	}
	return app
}

func newStubRegistry(t *testing.T, detectRun boot.Handler) *boot.Registry {
	t.Helper()
	registry := boot.NewRegistry()
	if err := registry.Register(&stubVariant{detectRun: detectRun}); err != nil {
		t.Fatalf("register error: %v", err)
	}
	return registry
}

func runAppAsync(app *App, ctx context.Context) chan error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Start(ctx)
	}()
	return errCh
}

func assertNoError(t *testing.T, errCh <-chan error) {
	t.Helper()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("app exited with error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("app did not exit")
	}
}

type stubVariant struct {
	detectRun boot.Handler

	mu         sync.Mutex
	terminated chan struct{}
}

func (v *stubVariant) Name() string                     { return "stub" }
func (v *stubVariant) ValidRoot(string) bool            { return true }
func (v *stubVariant) Version(string) (string, error)   { return "1.0", nil }
func (v *stubVariant) PhaseMap() map[string]int         { return map[string]int{"max": 1} }
func (v *stubVariant) InitPhases() []int                { return []int{0} }
func (v *stubVariant) ReportCommandError(*boot.Command) {}

func (v *stubVariant) Phases() boot.PhaseTable {
	detect := v.detectRun
	if detect == nil {
		detect = func(context.Context, *boot.State) error { return nil }
	}
	return boot.PhaseTable{
		{Index: 0, Name: "detect", Run: detect},
		{Index: 1, Name: "load", Run: func(context.Context, *boot.State) error { return nil }},
	}
}

func (v *stubVariant) CheckRequirements(*boot.State, *boot.Command) boot.RequirementResult {
	return boot.RequirementResult{OK: true}
}

func (v *stubVariant) Terminate(*boot.State) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.terminated == nil {
		v.terminated = make(chan struct{})
	}
	select {
	case <-v.terminated:
	default:
		close(v.terminated)
	}
}

func (v *stubVariant) waitTerminated(t *testing.T, timeout time.Duration) {
	t.Helper()
	v.mu.Lock()
	if v.terminated == nil {
		v.terminated = make(chan struct{})
	}
	ch := v.terminated
	v.mu.Unlock()
	select {
	case <-ch:
	case <-time.After(timeout):
		t.Fatal("variant was not terminated")
	}
}

type recordingObserver struct {
	target int

	mu        sync.Mutex
	eventLog  []string
	completed int
	done      chan struct{}
}

func newRecordingObserver(target int) *recordingObserver {
	return &recordingObserver{
		target: target,
		done:   make(chan struct{}),
	}
}

func (o *recordingObserver) PhaseStarted(ph boot.Phase) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.eventLog = append(o.eventLog, "start:"+ph.Name)
}

func (o *recordingObserver) PhaseCompleted(ph boot.Phase, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.eventLog = append(o.eventLog, "error:"+ph.Name+":"+err.Error())
	} else {
		o.eventLog = append(o.eventLog, "complete:"+ph.Name)
	}
	o.completed++
	if o.completed >= o.target && o.done != nil {
		close(o.done)
		o.done = nil
	}
}

func (o *recordingObserver) wait(t *testing.T, timeout time.Duration) {
	t.Helper()
	if o.target == 0 {
		return
	}
	select {
	case <-o.done:
	case <-time.After(timeout):
		t.Fatalf("timeout waiting for events: %v", o.events())
	}
}

func (o *recordingObserver) events() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.eventLog))
	copy(out, o.eventLog)
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
