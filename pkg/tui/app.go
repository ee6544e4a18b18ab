package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/ormasoftchile/guildwiz/pkg/config"
	"github.com/ormasoftchile/guildwiz/pkg/schema"
	"github.com/ormasoftchile/guildwiz/pkg/serve"
	"github.com/ormasoftchile/guildwiz/pkg/service"
	"github.com/ormasoftchile/guildwiz/pkg/session"
	"github.com/ormasoftchile/guildwiz/pkg/wizard"
)

// --- Tea messages ---

// viewMsg carries the server's answer to a start or callback request.
type viewMsg struct {
	view *session.View
	err  error
}

// cancelledMsg is sent once the conversation was abandoned on quit.
type cancelledMsg struct {
	view *session.View
}

// --- Overlay state ---

type overlayKind int

const (
	overlayNone overlayKind = iota
	overlayChoice
	overlayInput
	overlaySummary
	overlayResult
)

// --- Model ---

// Model is the top-level Bubble Tea model for the TUI.
type Model struct {
	steps   stepsPanel
	spinner spinner.Model

	choice  choiceOverlay
	input   inputOverlay
	summary summaryOverlay
	result  resultOverlay
	overlay overlayKind

	client    *Client
	feature   *schema.Feature
	start     service.StartParams
	resources config.Resources

	view      *session.View
	busy      bool
	fatalErr  string
	startTime time.Time

	compact bool
	width   int
	height  int
}

// Config holds the parameters needed to launch the TUI.
type Config struct {
	Service   *service.Service
	Start     service.StartParams
	Resources config.Resources
	Logger    *zap.Logger
	Compact   bool
}

// connect runs a JSON-RPC server for svc on in-memory pipes and returns a
// listening client. stop shuts the server down and waits for it.
func connect(ctx context.Context, svc *service.Service, logger *zap.Logger) (client *Client, stop func()) {
	// TUI writes to clientW → server reads from serverR
	// server writes to serverW → TUI reads from clientR
	clientR, serverW := io.Pipe()
	serverR, clientW := io.Pipe()

	srv := serve.New(svc, serverR, serverW, logger)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Run(ctx); err != nil {
			logger.Debug("server stopped", zap.Error(err))
		}
		serverW.Close()
	}()

	client = NewClient(clientR, clientW)
	go client.Listen()

	return client, func() {
		_ = client.Shutdown()
		<-done
		clientW.Close()
	}
}

// Run opens a conversation and drives it full-screen until it ends or the
// operator quits. It returns the final view of the conversation.
func Run(ctx context.Context, cfg Config) (*session.View, error) {
	f, ok := cfg.Service.Feature(cfg.Start.Feature)
	if !ok {
		return nil, fmt.Errorf("%w: %q", service.ErrUnknownFeature, cfg.Start.Feature)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	client, stop := connect(ctx, cfg.Service, logger)
	defer stop()

	m := newModel(client, f, cfg)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	fm, _ := final.(Model)
	if fm.view != nil && !ended(fm.view) {
		// interrupted before the quit key was handled
		if v, cerr := client.Cancel(fm.view.ID); cerr == nil {
			fm.view = v
		}
	}
	if err != nil {
		return fm.view, err
	}
	if fm.fatalErr != "" {
		return fm.view, fmt.Errorf("%s", fm.fatalErr)
	}
	return fm.view, nil
}

func newModel(client *Client, f *schema.Feature, cfg Config) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	locale := cfg.Start.Locale
	if locale == "" {
		locale = f.Locale()
	}
	steps := newStepsPanel()
	steps.SetFeature(f, locale)

	return Model{
		steps:     steps,
		spinner:   sp,
		choice:    newChoiceOverlay(),
		input:     newInputOverlay(),
		summary:   newSummaryOverlay(),
		client:    client,
		feature:   f,
		start:     cfg.Start,
		resources: cfg.Resources,
		compact:   cfg.Compact,
		busy:      true,
	}
}

// Init starts the spinner and opens the conversation.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startConversation())
}

func (m Model) startConversation() tea.Cmd {
	client, params := m.client, m.start
	return func() tea.Msg {
		v, err := client.Start(params)
		return viewMsg{view: v, err: err}
	}
}

// send delivers cb and reports the resulting view.
func (m Model) send(cb wizard.Callback) tea.Cmd {
	client, id := m.client, m.view.ID
	return func() tea.Msg {
		v, err := client.Callback(id, cb)
		return viewMsg{view: v, err: err}
	}
}

func (m Model) cancel() tea.Cmd {
	client, id := m.client, m.view.ID
	return func() tea.Msg {
		v, _ := client.Cancel(id)
		return cancelledMsg{view: v}
	}
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if msg.Width < 80 {
			m.compact = true
		}
		m.layout()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case viewMsg:
		m.busy = false
		if msg.err != nil {
			m.fatalErr = msg.err.Error()
			return m, nil
		}
		if m.startTime.IsZero() {
			m.startTime = time.Now()
		}
		return m, m.apply(msg.view)

	case cancelledMsg:
		if msg.view != nil {
			m.view = msg.view
		}
		return m, tea.Quit
	}

	return m, nil
}

// apply shows the overlay for the new view.
func (m *Model) apply(v *session.View) tea.Cmd {
	m.view = v
	m.choice.Hide()
	m.input.Hide()
	m.summary.Hide()

	if ended(v) {
		if v.Phase == wizard.PhaseCompiled.String() {
			m.steps.Finish()
		}
		total, done, skipped := m.steps.Stats()
		m.result.Show(v, time.Since(m.startTime), total, done, skipped)
		m.overlay = overlayResult
		return nil
	}

	p := v.Prompt
	if p == nil {
		m.fatalErr = "server sent no prompt in phase " + v.Phase
		return nil
	}
	m.steps.Track(p)

	switch {
	case p.Continue == nil && (p.Kind == schema.KindStart || p.Kind == schema.KindConfirm):
		m.summary.Show(p)
		m.overlay = overlaySummary
	case m.choice.Show(p, m.resources):
		m.overlay = overlayChoice
	default:
		m.overlay = overlayInput
		return m.input.Show(p)
	}
	return nil
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.fatalErr != "" {
		return m, tea.Quit
	}
	if key.Matches(msg, keys.Quit) {
		if m.view == nil || ended(m.view) {
			return m, tea.Quit
		}
		m.busy = true
		return m, m.cancel()
	}
	if m.overlay == overlayResult {
		switch msg.String() {
		case "enter", "q", "esc":
			return m, tea.Quit
		}
		return m, nil
	}
	if m.busy || m.view == nil || m.view.Prompt == nil {
		return m, nil
	}

	if key.Matches(msg, keys.Back) {
		if !m.view.Prompt.CanGoBack {
			return m, nil
		}
		return m.submit(wizard.Callback{Action: wizard.ActionBack, StepKey: m.view.Prompt.StepKey})
	}

	switch m.overlay {
	case overlaySummary:
		if key.Matches(msg, keys.Submit) {
			return m.submit(m.summary.Callback())
		}
	case overlayChoice:
		if m.choice.Update(msg) {
			return m.submit(m.choice.Callback())
		}
	case overlayInput:
		submitted, cmd := m.input.Update(msg)
		if submitted {
			return m.submit(m.input.Callback())
		}
		return m, cmd
	}
	return m, nil
}

func (m Model) submit(cb wizard.Callback) (tea.Model, tea.Cmd) {
	m.busy = true
	return m, m.send(cb)
}

// layout recalculates panel and overlay dimensions.
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}

	// header(1) + main + key bar(1)
	mainH := m.height - 2
	if mainH < 4 {
		mainH = 4
	}

	areaW := m.width
	if m.compact {
		m.steps.width = 0
		m.steps.height = 0
	} else {
		stepsW := m.width * 30 / 100
		if stepsW < 25 {
			stepsW = 25
		}
		if stepsW > 45 {
			stepsW = 45
		}
		m.steps.width = stepsW
		m.steps.height = mainH
		areaW = m.width - stepsW - 2
	}

	m.choice.width, m.choice.height = areaW, mainH
	m.input.width, m.input.height = areaW, mainH
	m.summary.width, m.summary.height = areaW, mainH
	m.result.width, m.result.height = areaW, mainH
}

// View renders the complete TUI.
func (m Model) View() string {
	if m.fatalErr != "" {
		return errorStyle.Render("Fatal: "+m.fatalErr) + "\n\nPress any key to quit."
	}

	var area string
	switch m.overlay {
	case overlayChoice:
		area = m.choice.View()
	case overlayInput:
		area = m.input.View()
	case overlaySummary:
		area = m.summary.View()
	case overlayResult:
		area = m.result.View()
	default:
		area = m.spinner.View() + " starting…"
	}

	main := area
	if !m.compact && m.width > 0 {
		main = lipgloss.JoinHorizontal(lipgloss.Top, m.steps.View(), area)
	}

	canGoBack := m.view != nil && m.view.Prompt != nil && m.view.Prompt.CanGoBack
	bar := keyBarStyle.Render(keyBarText(m.overlay, m.choice.Multi(), canGoBack))
	return m.renderHeader() + "\n" + main + "\n" + bar
}

// renderHeader builds the top header line.
func (m Model) renderHeader() string {
	name := m.feature.Meta.Name
	if name == "" {
		name = m.feature.Feature
	}
	left := headerStyle.Render("guildwiz") + " " + guildBadgeStyle.Render(m.start.GuildID) + "  " + valueStyle.Render(name)

	var status string
	switch {
	case m.busy:
		status = m.spinner.View() + " working"
	case m.view != nil && m.view.Prompt != nil:
		p := m.view.Prompt
		status = fmt.Sprintf("step %d of %d", p.Index+1, p.Total)
		if m.compact {
			status = p.Title + "  " + status
		}
		if p.Prefilled {
			status += "  " + keyDescStyle.Render("(saved answer)")
		}
	case m.view != nil:
		status = m.view.Phase
	}

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(status) - 2
	if padding < 1 {
		padding = 1
	}
	return left + strings.Repeat(" ", padding) + status
}
