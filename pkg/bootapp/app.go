// Package bootapp exposes a reusable Bubble Tea front end for watching a
// bootstrap run. It wires a boot.Bootstrapper, its observers, and input
// handling behind a simple lifecycle API so binaries can embed the
// interactive workflow without copying UI code.
package bootapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	textinput "github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/BrianJOC/siteshell/boot"
)

var (
	// ErrNoRegistry indicates no variant registry was supplied when constructing an App.
	ErrNoRegistry = errors.New("bootapp: a variant registry must be provided")
	// ErrNoRoot indicates no installation root was supplied when constructing an App.
	ErrNoRoot = errors.New("bootapp: an installation root must be provided")
	// ErrProgramRunning reports that Start was invoked while the program is already running.
	ErrProgramRunning = errors.New("bootapp: program already running")
)

// Config controls how an App should be assembled.
type Config struct {
	Registry       *boot.Registry
	Root           string
	SiteURI        string
	TargetPhase    string
	BootstrapOpts  []boot.Option
	ProgramOptions []tea.ProgramOption
}

// Option mutates Config during construction.
type Option func(*Config)

// WithRegistry sets the variant registry the run selects from.
func WithRegistry(registry *boot.Registry) Option {
	return func(cfg *Config) {
		if cfg == nil {
			return
		}
		cfg.Registry = registry
	}
}

// WithRoot sets the installation root to bootstrap.
func WithRoot(root string) Option {
	return func(cfg *Config) {
		if cfg == nil {
			return
		}
		cfg.Root = root
	}
}

// WithSiteURI sets the site to bootstrap within a multi-site root.
func WithSiteURI(uri string) Option {
	return func(cfg *Config) {
		if cfg == nil {
			return
		}
		cfg.SiteURI = uri
	}
}

// WithTargetPhase sets the phase reference the run advances to. Empty means
// the variant's highest phase.
func WithTargetPhase(ref string) Option {
	return func(cfg *Config) {
		if cfg == nil {
			return
		}
		cfg.TargetPhase = ref
	}
}

// WithBootstrapOptions appends custom bootstrapper options.
func WithBootstrapOptions(opts ...boot.Option) Option {
	return func(cfg *Config) {
		if cfg == nil {
			return
		}
		cfg.BootstrapOpts = append(cfg.BootstrapOpts, opts...)
	}
}

// WithProgramOptions appends tea.Program options.
func WithProgramOptions(opts ...tea.ProgramOption) Option {
	return func(cfg *Config) {
		if cfg == nil {
			return
		}
		cfg.ProgramOptions = append(cfg.ProgramOptions, opts...)
	}
}

// App hosts the Bubble Tea-driven bootstrap watcher.
type App struct {
	cfg      Config
	mu       sync.Mutex
	program  *tea.Program
	inFlight bool
}

// New constructs an App from the provided options.
func New(opts ...Option) (*App, error) {
	cfg := Config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.Registry == nil {
		return nil, ErrNoRegistry
	}
	if cfg.Root == "" {
		return nil, ErrNoRoot
	}
	return &App{cfg: cfg}, nil
}

// Start runs the TUI until the bootstrap finishes and the operator quits.
func (a *App) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	model := newModel(a.cfg, ctx)
	program := tea.NewProgram(model, a.cfg.ProgramOptions...)

	a.mu.Lock()
	if a.inFlight {
		a.mu.Unlock()
		return ErrProgramRunning
	}
	a.program = program
	a.inFlight = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.program = nil
		a.inFlight = false
		a.mu.Unlock()
	}()

	_, runErr := program.Run()
	return runErr
}

// Stop signals the running TUI program (if any) to exit.
func (a *App) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.program == nil {
		return nil
	}
	a.program.Quit()
	return nil
}

type phaseStatus int

const (
	statusPending phaseStatus = iota
	statusRunning
	statusSuccess
	statusFailed
)

func (s phaseStatus) String() string {
	switch s {
	case statusPending:
		return "pending"
	case statusRunning:
		return "running"
	case statusSuccess:
		return "success"
	case statusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type focusArea int

const (
	focusPhases focusArea = iota
	focusPrompt
)

type phaseState struct {
	ph     boot.Phase
	status phaseStatus
	err    error
	logs   []string
}

type model struct {
	bootstrapper *boot.Bootstrapper
	targetRef    string
	observer     *phaseObserver
	inputHandler *bubbleInputHandler
	runCtx       context.Context

	variantName string
	version     string
	phases      map[int]*phaseState
	order       []int

	spinner spinner.Model

	prompt       textinput.Model
	activePrompt *inputRequestMsg
	prompting    bool
	selectIndex  int

	selectedPhase  int
	focus          focusArea
	helpVisible    bool
	bootActive     bool
	actionsVisible bool

	statusMsg string
	done      bool
	doneErr   error

	width  int
	height int
}

func newModel(cfg Config, runCtx context.Context) *model {
	observer := newPhaseObserver()
	inputHandler := newBubbleInputHandler()

	bootOpts := append([]boot.Option{}, cfg.BootstrapOpts...)
	bootOpts = append(bootOpts,
		boot.WithObserver(observer),
		boot.WithInputHandler(inputHandler),
	)
	if cfg.SiteURI != "" {
		bootOpts = append(bootOpts, boot.WithSiteURI(cfg.SiteURI))
	}
	bootstrapper := boot.NewBootstrapper(cfg.Registry, cfg.Root, bootOpts...)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ti := textinput.New()
	ti.Placeholder = "enter value"
	ti.Blur()

	if runCtx == nil {
		runCtx = context.Background()
	}

	return &model{
		bootstrapper: bootstrapper,
		targetRef:    cfg.TargetPhase,
		observer:     observer,
		inputHandler: inputHandler,
		runCtx:       runCtx,
		phases:       make(map[int]*phaseState),
		spinner:      sp,
		prompt:       ti,
		focus:        focusPhases,
		statusMsg:    "Detecting installation…",
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(
		driveBootstrapCmd(m.runCtx, m.bootstrapper, m.targetRef, m.observer),
		waitPhaseEventCmd(m.observer),
		waitInputRequestCmd(m.inputHandler),
		m.spinner.Tick,
	)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		prevWidth := m.width
		prevHeight := m.height
		m.width = msg.Width
		m.height = msg.Height
		if (prevWidth > 0 && msg.Width < prevWidth) || (prevHeight > 0 && msg.Height < prevHeight) {
			return m, tea.ClearScreen
		}
		return m, nil
	case tea.KeyMsg:
		if m.actionsVisible {
			if handled, cmd := m.handleActionKeys(msg); handled {
				return m, cmd
			}
			return m, nil
		}
		if m.handleSelectPromptNavigation(msg) {
			return m, nil
		}
		if m.handlePhaseNavigation(msg) {
			return m, nil
		}
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.prompting && m.focus == focusPrompt {
				return m, m.submitPrompt()
			}
			if !m.prompting && m.focus == focusPhases {
				m.actionsVisible = !m.actionsVisible
				m.helpVisible = false
				return m, nil
			}
		case tea.KeyEsc:
			return m, m.handleEscape()
		case tea.KeyTab, tea.KeyShiftTab:
			if m.prompting {
				m.toggleFocus()
			}
			return m, nil
		case tea.KeyRunes:
			if len(msg.Runes) == 1 {
				switch msg.Runes[0] {
				case 'q', 'Q':
					if m.done {
						return m, tea.Quit
					}
				case '?', 'h', 'H':
					m.helpVisible = !m.helpVisible
					return m, nil
				}
			}
		}

		if m.prompting && m.focus == focusPrompt && !m.isSelectPrompt() {
			var cmd tea.Cmd
			m.prompt, cmd = m.prompt.Update(msg)
			return m, cmd
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case variantSelectedMsg:
		m.handleVariantSelected(msg)
		return m, tea.Batch(waitPhaseEventCmd(m.observer), m.spinner.Tick)

	case phaseStartedMsg:
		m.handlePhaseStarted(msg)
		return m, tea.Batch(waitPhaseEventCmd(m.observer), m.spinner.Tick)

	case phaseCompletedMsg:
		m.handlePhaseCompleted(msg)
		return m, tea.Batch(waitPhaseEventCmd(m.observer), m.spinner.Tick)

	case inputRequestMsg:
		m.preparePrompt(msg)
		return m, nil

	case bootFinishedMsg:
		m.bootActive = false
		m.done = true
		m.doneErr = msg.err
		if msg.err != nil {
			m.setStatus(msg.err.Error())
		} else if m.variantName == "" {
			m.setStatus("No supported installation found — q to quit")
		} else {
			m.setStatus("Bootstrap complete — q to quit")
		}
		return m, nil
	}

	return m, nil
}

func (m *model) handleVariantSelected(msg variantSelectedMsg) {
	m.bootActive = true
	m.variantName = msg.name
	m.version = msg.version
	m.order = m.order[:0]
	for _, ph := range msg.table {
		m.phases[ph.Index] = &phaseState{ph: ph, status: statusPending}
		m.order = append(m.order, ph.Index)
	}
	if msg.version != "" {
		m.setStatusf("Detected %s %s", msg.name, msg.version)
	} else {
		m.setStatusf("Detected %s installation", msg.name)
	}
}

func (m *model) handlePhaseStarted(msg phaseStartedMsg) {
	if state, ok := m.phases[msg.ph.Index]; ok {
		state.status = statusRunning
		state.err = nil
		m.appendLog(state, fmt.Sprintf("%s started", msg.ph.Name))
	}
	m.setStatusf("Running %s", msg.ph.Name)
}

func (m *model) handlePhaseCompleted(msg phaseCompletedMsg) {
	state, ok := m.phases[msg.ph.Index]
	if !ok {
		return
	}
	if msg.err != nil {
		state.status = statusFailed
		state.err = msg.err
		m.appendLog(state, fmt.Sprintf("%s failed: %v", msg.ph.Name, msg.err))
		m.setStatusf("%s failed: %v", msg.ph.Name, msg.err)
	} else {
		state.status = statusSuccess
		state.err = nil
		m.appendLog(state, fmt.Sprintf("%s completed", msg.ph.Name))
		m.setStatusf("%s completed", msg.ph.Name)
	}
}

func (m *model) preparePrompt(msg inputRequestMsg) {
	m.actionsVisible = false
	m.activePrompt = &msg
	m.prompting = true
	m.focus = focusPrompt
	m.helpVisible = false
	m.selectIndex = 0

	defaultValue := defaultString(msg.input.Default)

	switch msg.input.Kind {
	case boot.InputKindSelect:
		if idx := m.optionIndex(defaultValue); idx >= 0 {
			m.selectIndex = idx
		}
		m.prompt.Blur()
		if len(msg.input.Options) == 0 {
			m.setStatusf("%s requested %s but no options available", msg.ph.Name, msg.input.Label)
		} else {
			m.setStatusf("%s: choose %s (arrows, j/k, numbers)", msg.ph.Name, msg.input.Label)
		}
	default:
		m.prompt.Placeholder = placeholderText(msg.input, defaultValue)
		m.prompt.SetValue("")
		m.prompt.CursorEnd()
		m.prompt.Focus()
		m.setStatusf("%s needs %s", msg.ph.Name, msg.input.Label)
	}
}

func (m *model) submitPrompt() tea.Cmd {
	if !m.prompting || m.activePrompt == nil {
		return nil
	}

	defer func() {
		m.prompting = false
		m.activePrompt = nil
		m.prompt.SetValue("")
		m.focus = focusPhases
	}()

	if m.isSelectPrompt() {
		value, ok := m.currentSelectionValue()
		if !ok {
			m.setStatus("No options available")
			return nil
		}
		m.inputHandler.respond(value, nil)
	} else {
		value := strings.TrimSpace(m.prompt.Value())
		if value == "" {
			if defaultValue := defaultString(m.activePrompt.input.Default); defaultValue != "" {
				value = defaultValue
			}
		}
		if value == "" && m.activePrompt.input.Required {
			m.setStatus("Input required")
			return nil
		}
		m.inputHandler.respond(value, nil)
	}

	m.setStatus("Input submitted")
	return waitInputRequestCmd(m.inputHandler)
}

func (m *model) handleEscape() tea.Cmd {
	if m.actionsVisible {
		m.actionsVisible = false
		return nil
	}
	if m.helpVisible {
		m.helpVisible = false
		return nil
	}
	if m.prompting {
		m.prompting = false
		if m.activePrompt != nil {
			m.inputHandler.respond("", errors.New("input cancelled"))
		}
		m.activePrompt = nil
		m.prompt.SetValue("")
		m.focus = focusPhases
		m.setStatus("Input cancelled")
		return waitInputRequestCmd(m.inputHandler)
	}
	return nil
}

func (m *model) toggleFocus() {
	if m.focus == focusPrompt {
		m.focus = focusPhases
	} else {
		m.focus = focusPrompt
	}
}

func (m *model) currentPhaseState() *phaseState {
	if len(m.order) == 0 {
		return nil
	}
	idx := m.selectedPhase
	if idx < 0 {
		idx = 0
	}
	if idx >= len(m.order) {
		idx = len(m.order) - 1
	}
	return m.phases[m.order[idx]]
}

func (m *model) handleActionKeys(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyEnter:
		m.actionsVisible = false
		return true, nil
	}
	if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
		switch msg.Runes[0] {
		case '1', 'v', 'V':
			m.actionsVisible = false
			return true, nil
		case '2', 'c', 'C':
			m.copySelectedError()
			m.actionsVisible = false
			return true, nil
		}
	}
	return false, nil
}

func (m *model) copySelectedError() {
	state := m.currentPhaseState()
	if state == nil || state.err == nil {
		m.setStatus("No error to copy")
		return
	}
	if err := clipboard.WriteAll(state.err.Error()); err != nil {
		m.setStatus("Failed to copy error")
		return
	}
	m.setStatus("Error copied to clipboard")
}

func (m *model) handlePhaseNavigation(msg tea.KeyMsg) bool {
	if m.actionsVisible {
		return false
	}
	if m.prompting && m.focus != focusPhases {
		return false
	}
	switch msg.Type {
	case tea.KeyUp:
		m.movePhaseSelection(-1)
		return true
	case tea.KeyDown:
		m.movePhaseSelection(1)
		return true
	}
	if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
		switch msg.Runes[0] {
		case 'k':
			m.movePhaseSelection(-1)
			return true
		case 'j':
			m.movePhaseSelection(1)
			return true
		}
	}
	return false
}

func (m *model) movePhaseSelection(delta int) {
	if len(m.order) == 0 {
		return
	}
	m.selectedPhase = (m.selectedPhase + delta) % len(m.order)
	if m.selectedPhase < 0 {
		m.selectedPhase += len(m.order)
	}
}

func (m *model) handleSelectPromptNavigation(msg tea.KeyMsg) bool {
	if !m.prompting || m.focus != focusPrompt || !m.isSelectPrompt() {
		return false
	}
	switch msg.Type {
	case tea.KeyUp:
		m.moveSelection(-1)
		return true
	case tea.KeyDown:
		m.moveSelection(1)
		return true
	}
	if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
		switch msg.Runes[0] {
		case 'k':
			m.moveSelection(-1)
			return true
		case 'j':
			m.moveSelection(1)
			return true
		case '1', '2', '3', '4', '5', '6', '7', '8', '9':
			idx := int(msg.Runes[0] - '1')
			if options := m.activePrompt.input.Options; idx >= 0 && idx < len(options) {
				m.selectIndex = idx
				return true
			}
		}
	}
	return false
}

func (m *model) View() string {
	header := m.renderHeader()
	body := m.renderBody()
	promptPanel := m.renderPromptPanel()
	var actionsPanel string
	if m.actionsVisible {
		actionsPanel = m.renderActionsPanel()
	}
	statusBar := statusBarStyle.Render(m.statusMsg)
	footer := footerStyle.Render("↑/↓ or j/k move • Enter actions • Tab switch focus • ? help • Ctrl+C quit")

	sections := []string{header, body}
	if actionsPanel != "" {
		sections = append(sections, actionsPanel)
	}
	sections = append(sections, promptPanel, statusBar)

	if m.helpVisible {
		sections = append(sections, renderHelp())
	} else {
		sections = append(sections, footer)
	}

	view := lipgloss.JoinVertical(lipgloss.Left, sections...)
	renderWidth := m.width
	if renderWidth <= 0 {
		renderWidth = lipgloss.Width(view)
	}
	renderHeight := lipgloss.Height(view)
	if m.height > renderHeight {
		renderHeight = m.height
	}
	return lipgloss.Place(renderWidth, renderHeight, lipgloss.Left, lipgloss.Top, view)
}

func (m *model) renderHeader() string {
	title := titleStyle.Render("Siteshell Bootstrap")
	var info string
	if m.variantName != "" {
		done := 0
		for _, st := range m.phases {
			if st.status == statusSuccess {
				done++
			}
		}
		info = subtitleStyle.Render(fmt.Sprintf("%s %s • %d/%d phases", m.variantName, m.version, done, len(m.order)))
	} else {
		info = subtitleStyle.Render("detecting installation")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", info)
}

func (m *model) renderBody() string {
	width := m.viewportWidth()
	if width < 80 {
		list := m.renderPhaseList(width)
		detail := m.renderPhaseDetails(width)
		return lipgloss.JoinVertical(lipgloss.Left, list, detail)
	}
	left := width/2 - 1
	if left < 30 {
		left = 30
	}
	right := width - left - 2
	if right < 30 {
		right = 30
	}
	list := m.renderPhaseList(left)
	detail := m.renderPhaseDetails(right)
	gap := lipgloss.NewStyle().Width(2).Render(" ")
	return lipgloss.JoinHorizontal(lipgloss.Top, list, gap, detail)
}

func (m *model) renderPhaseList(width int) string {
	if len(m.order) == 0 {
		return styleForWidth(listPanelStyle, width).Render("No installation detected")
	}
	items := make([]string, 0, len(m.order))
	for idx, index := range m.order {
		state := m.phases[index]
		if state == nil {
			continue
		}
		selected := idx == m.selectedPhase
		items = append(items, phaseItemView(state, selected, m.focus == focusPhases))
	}
	content := strings.Join(items, "\n")
	style := styleForWidth(listPanelStyle, width)
	if m.focus == focusPhases {
		style = style.Copy().BorderForeground(activeBorderColor)
	}
	return style.Render(content)
}

func (m *model) renderPhaseDetails(width int) string {
	state := m.currentPhaseState()
	if state == nil {
		return styleForWidth(detailPanelStyle, width).Render("No phase data")
	}

	title := detailTitleStyle.Render(titleCase.String(state.ph.Name))
	statusLine := infoTextStyle.Render(fmt.Sprintf("Status: %s", titleCase.String(state.status.String())))
	indexLine := infoTextStyle.Render(fmt.Sprintf("Phase index: %d", state.ph.Index))

	var errLine string
	if state.err != nil {
		errLine = errorTextStyle.Render(fmt.Sprintf("Error: %v", state.err))
	}

	logLines := ""
	if len(state.logs) > 0 {
		logLines = logSectionStyle.Render("Recent events:")
		entries := state.logs
		if len(entries) > 5 {
			entries = entries[len(entries)-5:]
		}
		for _, line := range entries {
			logLines += "\n" + logTextStyle.Render("• "+line)
		}
	}

	body := []string{title, indexLine, statusLine}
	if errLine != "" {
		body = append(body, errLine)
	}
	if logLines != "" {
		body = append(body, logLines)
	}
	return styleForWidth(detailPanelStyle, width).Render(strings.Join(body, "\n"))
}

func (m *model) renderPromptPanel() string {
	style := styleForWidth(promptPanelStyle, m.viewportWidth())
	if m.prompting && m.focus == focusPrompt {
		style = style.Copy().BorderForeground(activeBorderColor)
	}

	if !m.prompting || m.activePrompt == nil {
		content := "No input requested\n"
		if m.bootActive && !m.done {
			content = "Bootstrap running…"
		}
		return style.Render("Prompt\n" + content)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Prompt — %s • %s\n", titleCase.String(m.activePrompt.ph.Name), m.activePrompt.input.Label))
	b.WriteString(m.activePrompt.input.Description)
	b.WriteString("\n")
	if m.activePrompt.reason != "" {
		b.WriteString(infoTextStyle.Render(fmt.Sprintf("Reason: %s", m.activePrompt.reason)))
		b.WriteString("\n")
	}

	if m.isSelectPrompt() {
		b.WriteString("Use ↑/↓, j/k, number keys. Enter to confirm.\n\n")
		b.WriteString(m.renderSelectOptions())
	} else {
		b.WriteString("> ")
		b.WriteString(m.prompt.View())
	}

	return style.Render(b.String())
}

func (m *model) renderActionsPanel() string {
	state := m.currentPhaseState()
	if state == nil {
		return ""
	}
	options := []string{
		actionLine("1", "Close", true),
		actionLine("2", "Copy error message", state.err != nil),
	}
	header := fmt.Sprintf("Actions — %s", titleCase.String(state.ph.Name))
	content := header + "\n" + strings.Join(options, "\n")
	return styleForWidth(actionsPanelStyle, m.viewportWidth()).Render(content)
}

func (m *model) renderSelectOptions() string {
	options := m.activePrompt.input.Options
	if len(options) == 0 {
		return "No options available"
	}
	lines := make([]string, 0, len(options))
	for idx, opt := range options {
		cursor := " "
		if idx == m.selectIndex {
			cursor = ">"
		}
		line := fmt.Sprintf("%d. %s", idx+1, opt.Label)
		if opt.Description != "" {
			line = fmt.Sprintf("%s (%s)", line, opt.Description)
		}
		lines = append(lines, fmt.Sprintf("%s %s", cursor, line))
	}
	return strings.Join(lines, "\n")
}

func renderHelp() string {
	help := []string{
		"Key Bindings:",
		"  ↑/↓ or j/k  Move phase selection",
		"  Enter        Submit input / open phase actions",
		"  Tab          Switch focus between phases and prompt",
		"  Esc          Cancel prompt, hide help, or close actions",
		"  q            Quit once the bootstrap finished",
		"  ?            Toggle this help",
		"  Ctrl+C       Quit",
	}
	return helpStyle.Render(strings.Join(help, "\n"))
}

func (m *model) isSelectPrompt() bool {
	return m.prompting && m.activePrompt != nil && m.activePrompt.input.Kind == boot.InputKindSelect
}

func (m *model) currentSelectionValue() (string, bool) {
	if !m.isSelectPrompt() {
		return "", false
	}
	options := m.activePrompt.input.Options
	if len(options) == 0 {
		return "", false
	}
	if m.selectIndex < 0 {
		m.selectIndex = 0
	}
	if m.selectIndex >= len(options) {
		m.selectIndex = len(options) - 1
	}
	return options[m.selectIndex].Value, true
}

func (m *model) moveSelection(delta int) {
	options := m.activePrompt.input.Options
	if len(options) == 0 {
		return
	}
	count := len(options)
	m.selectIndex = (m.selectIndex + delta) % count
	if m.selectIndex < 0 {
		m.selectIndex += count
	}
}

func (m *model) optionIndex(value string) int {
	if value == "" || m.activePrompt == nil {
		return -1
	}
	for idx, opt := range m.activePrompt.input.Options {
		if opt.Value == value {
			return idx
		}
	}
	return -1
}

func (m *model) appendLog(state *phaseState, line string) {
	if state == nil {
		return
	}
	timestamp := time.Now().Format("15:04:05")
	state.logs = append(state.logs, fmt.Sprintf("[%s] %s", timestamp, line))
	if len(state.logs) > 20 {
		state.logs = state.logs[len(state.logs)-20:]
	}
}

var titleCase = cases.Title(language.English)

func (m *model) viewportWidth() int {
	if m.width > 0 {
		if m.width < 40 {
			return 40
		}
		return m.width
	}
	return 100
}

func (m *model) setStatus(msg string) {
	m.statusMsg = msg
}

func (m *model) setStatusf(format string, args ...any) {
	m.setStatus(fmt.Sprintf(format, args...))
}

func styleForWidth(base lipgloss.Style, totalWidth int) lipgloss.Style {
	style := base.Copy()
	if totalWidth <= 0 {
		return style.Width(0)
	}
	frameWidth, _ := base.GetFrameSize()
	contentWidth := totalWidth - frameWidth
	if contentWidth < 0 {
		contentWidth = 0
	}
	return style.Width(contentWidth)
}

func placeholderText(def boot.InputDefinition, defaultValue string) string {
	if defaultValue != "" {
		return defaultValue
	}
	return def.Label
}

func defaultString(value any) string {
	if value == nil {
		return ""
	}
	str := strings.TrimSpace(fmt.Sprint(value))
	if str == "" || str == "<nil>" {
		return ""
	}
	return str
}

func actionLine(key, label string, enabled bool) string {
	line := fmt.Sprintf("[%s] %s", key, label)
	if enabled {
		return infoTextStyle.Render(line)
	}
	return disabledTextStyle.Render(line + " (unavailable)")
}

// ---- Styling helpers ----

var (
	titleStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E0AAFF"))
	subtitleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))
	listPanelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#4C566A")).Padding(0, 1)
	detailPanelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#4C566A")).Padding(0, 1)
	promptPanelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#4C566A")).Padding(0, 1).MarginTop(1)
	actionsPanelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#7C3AED")).Padding(0, 1).MarginTop(1)
	statusBarStyle    = lipgloss.NewStyle().Bold(true).Padding(0, 1).Background(lipgloss.Color("#312E81")).Foreground(lipgloss.Color("#E0E7FF"))
	footerStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8")).Padding(0, 1).MarginTop(1)
	helpStyle         = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("#7C3AED")).Padding(1, 2).MarginTop(1)
	detailTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FDE047"))
	infoTextStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#CBD5F5"))
	errorTextStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171"))
	disabledTextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#475569"))
	logSectionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A5B4FC")).Bold(true)
	logTextStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#E0E7FF"))
	activeBorderColor = lipgloss.Color("#A78BFA")
)

var statusStyles = map[phaseStatus]lipgloss.Style{
	statusPending: lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8")),
	statusRunning: lipgloss.NewStyle().Foreground(lipgloss.Color("#F97316")).Bold(true),
	statusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("#34D399")),
	statusFailed:  lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")),
}

var spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24"))

func phaseItemView(state *phaseState, selected bool, focused bool) string {
	icon := map[phaseStatus]string{
		statusPending: "•",
		statusRunning: "⟳",
		statusSuccess: "✔",
		statusFailed:  "✖",
	}[state.status]

	label := fmt.Sprintf("%s %s", icon, state.ph.Name)
	if state.status == statusRunning {
		label = fmt.Sprintf("%s %s", spinnerStyle.Render("⟳"), state.ph.Name)
	}
	if state.err != nil {
		label = fmt.Sprintf("%s — %v", label, state.err)
	}

	style := statusStyles[state.status]
	if selected {
		style = style.Copy().Bold(true)
		if focused {
			style = style.Copy().Underline(true).Foreground(activeBorderColor)
		}
	}
	return style.Render(label)
}

// ---- Bootstrap orchestration events ----

type variantSelectedMsg struct {
	name    string
	version string
	table   boot.PhaseTable
}

type phaseStartedMsg struct {
	ph boot.Phase
}

type phaseCompletedMsg struct {
	ph  boot.Phase
	err error
}

type bootFinishedMsg struct {
	err error
}

type inputRequestMsg struct {
	ph     boot.Phase
	input  boot.InputDefinition
	reason string
}

// ---- Observer & input handler plumbing ----

type phaseObserver struct {
	events chan tea.Msg
}

func newPhaseObserver() *phaseObserver {
	return &phaseObserver{
		events: make(chan tea.Msg),
	}
}

func (o *phaseObserver) PhaseStarted(ph boot.Phase) {
	o.events <- phaseStartedMsg{ph: ph}
}

func (o *phaseObserver) PhaseCompleted(ph boot.Phase, err error) {
	o.events <- phaseCompletedMsg{ph: ph, err: err}
}

func (o *phaseObserver) variantSelected(name, version string, table boot.PhaseTable) {
	o.events <- variantSelectedMsg{name: name, version: version, table: table}
}

func waitPhaseEventCmd(observer *phaseObserver) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-observer.events
		if !ok {
			return nil
		}
		return msg
	}
}

type inputRequest struct {
	ph     boot.Phase
	def    boot.InputDefinition
	reason string
}

type inputResponse struct {
	value any
	err   error
}

type bubbleInputHandler struct {
	requests  chan inputRequest
	responses chan inputResponse
}

func newBubbleInputHandler() *bubbleInputHandler {
	return &bubbleInputHandler{
		requests:  make(chan inputRequest),
		responses: make(chan inputResponse),
	}
}

func (h *bubbleInputHandler) RequestInput(ph boot.Phase, input boot.InputDefinition, reason string) (any, error) {
	h.requests <- inputRequest{ph: ph, def: input, reason: reason}
	resp := <-h.responses
	return resp.value, resp.err
}

func (h *bubbleInputHandler) respond(value any, err error) {
	h.responses <- inputResponse{value: value, err: err}
}

func waitInputRequestCmd(handler *bubbleInputHandler) tea.Cmd {
	return func() tea.Msg {
		req, ok := <-handler.requests
		if !ok {
			return nil
		}
		return inputRequestMsg{
			ph:     req.ph,
			input:  req.def,
			reason: req.reason,
		}
	}
}

// driveBootstrapCmd advances the bootstrapper to the target phase in a
// background goroutine, feeding lifecycle events back through the observer
// channel. Terminate always runs before the finished message is emitted.
func driveBootstrapCmd(runCtx context.Context, b *boot.Bootstrapper, targetRef string, observer *phaseObserver) tea.Cmd {
	return func() tea.Msg {
		if runCtx == nil {
			runCtx = context.Background()
		}
		defer b.Terminate()

		variant, err := b.SelectVariant()
		if err != nil {
			var noVariant boot.NoVariantError
			if errors.As(err, &noVariant) {
				return bootFinishedMsg{}
			}
			return bootFinishedMsg{err: err}
		}
		observer.variantSelected(variant.Name(), b.State().Version, variant.Phases())

		target := variant.Phases().Highest()
		if targetRef != "" {
			target, err = b.LookupPhaseIndex(targetRef)
			if err != nil {
				return bootFinishedMsg{err: err}
			}
		}
		if err := b.AdvanceTo(runCtx, target); err != nil {
			return bootFinishedMsg{err: err}
		}
		return bootFinishedMsg{}
	}
}
