// Package tui provides an interactive terminal chat with FinBot.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/finbuddy/internal/common"
	"github.com/Veraticus/finbuddy/internal/model"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	headerHeight = 2
	inputHeight  = 3
	minWidth     = 20
	welcomeText  = `Ask FinBot anything about your money, for example "How much did I spend this month?"`
)

// Querier answers one chat message over a snapshot of the user's data.
type Querier interface {
	Query(ctx context.Context, message string, transactions []model.Transaction, goals []model.Goal) model.Envelope
}

// SnapshotFunc loads the transactions and goals a question is answered over.
// It is called once per question so answers reflect the latest data.
type SnapshotFunc func(ctx context.Context) ([]model.Transaction, []model.Goal, error)

// Config holds TUI configuration.
type Config struct {
	Assistant Querier
	Snapshot  SnapshotFunc
	Theme     Theme
	UserName  string
	Width     int
	Height    int
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// WithAssistant sets the assistant that answers questions.
func WithAssistant(a Querier) Option {
	return func(c *Config) { c.Assistant = a }
}

// WithSnapshot sets the loader for the data questions are answered over.
func WithSnapshot(fn SnapshotFunc) Option {
	return func(c *Config) { c.Snapshot = fn }
}

// WithTheme sets the theme.
func WithTheme(t Theme) Option {
	return func(c *Config) { c.Theme = t }
}

// WithUserName shows who is chatting in the header.
func WithUserName(name string) Option {
	return func(c *Config) { c.UserName = name }
}

// WithSize sets the initial size, before the terminal reports its own.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

func defaultConfig() Config {
	return Config{
		Theme:  Default,
		Width:  80,
		Height: 24,
	}
}

// Model holds the chat state.
type Model struct {
	ctx      context.Context
	config   Config
	theme    Theme
	keymap   KeyMap
	history  []exchange
	help     help.Model
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	width    int
	height   int
	waiting  bool
	quitting bool
}

// New creates a chat model. Both an assistant and a snapshot loader are required.
func New(ctx context.Context, opts ...Option) (Model, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Assistant == nil {
		return Model{}, fmt.Errorf("%w: assistant is required", common.ErrMissingConfig)
	}
	if cfg.Snapshot == nil {
		return Model{}, fmt.Errorf("%w: snapshot loader is required", common.ErrMissingConfig)
	}

	keymap := DefaultKeyMap()

	input := textinput.New()
	input.Placeholder = "Ask about spending, goals or savings"
	input.Prompt = "› "
	input.CharLimit = 500
	input.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(cfg.Theme.Primary)

	vp := viewport.New(cfg.Width, 1)
	vp.KeyMap = viewport.KeyMap{
		PageUp:   keymap.ScrollUp,
		PageDown: keymap.ScrollDown,
	}

	m := Model{
		ctx:      ctx,
		config:   cfg,
		theme:    cfg.Theme,
		keymap:   keymap,
		help:     help.New(),
		input:    input,
		viewport: vp,
		spinner:  s,
		width:    cfg.Width,
		height:   cfg.Height,
	}
	m.resize()
	m.refresh()
	return m, nil
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.ForceQuit), key.Matches(msg, m.keymap.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keymap.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.resize()
			return m, nil
		case key.Matches(msg, m.keymap.ClearInput):
			m.input.Reset()
			return m, nil
		case key.Matches(msg, m.keymap.ScrollUp), key.Matches(msg, m.keymap.ScrollDown):
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case key.Matches(msg, m.keymap.Send):
			return m.send()
		}

	case replyMsg:
		m.record(msg)
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// send starts answering the typed question. Only one question is in flight at a time.
func (m Model) send() (tea.Model, tea.Cmd) {
	question := strings.TrimSpace(m.input.Value())
	if question == "" || m.waiting {
		return m, nil
	}

	m.input.Reset()
	m.history = append(m.history, exchange{question: question})
	m.waiting = true
	m.refresh()
	return m, tea.Batch(m.ask(question), m.spinner.Tick)
}

func (m Model) ask(question string) tea.Cmd {
	ctx, assistant, snapshot := m.ctx, m.config.Assistant, m.config.Snapshot
	return func() tea.Msg {
		txns, goals, err := snapshot(ctx)
		if err != nil {
			return replyMsg{question: question, err: err}
		}
		return replyMsg{question: question, envelope: assistant.Query(ctx, question, txns, goals)}
	}
}

func (m *Model) record(msg replyMsg) {
	m.waiting = false
	for i := len(m.history) - 1; i >= 0; i-- {
		if m.history[i].answered || m.history[i].question != msg.question {
			continue
		}
		m.history[i].answered = true
		m.history[i].reply = msg.envelope
		m.history[i].err = msg.err
		return
	}
}

func (m *Model) resize() {
	width := max(m.width, minWidth)
	m.help.Width = width
	m.input.Width = width - 8

	helpHeight := lipgloss.Height(m.help.View(m.keymap))
	m.viewport.Width = width
	m.viewport.Height = max(m.height-headerHeight-inputHeight-helpHeight, 1)
}

// refresh re-renders the history and keeps the newest exchange in view.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}
