// Package tui provides a terminal user interface for chordid
package tui

import (
	"context"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/james-see/chordid/pkg/config"
	"github.com/james-see/chordid/pkg/harmony"
	"github.com/james-see/chordid/pkg/input"
	"github.com/james-see/chordid/pkg/logger"
	"github.com/james-see/chordid/pkg/score"
	"github.com/james-see/chordid/pkg/sonority"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// State represents the current TUI state
type State int

const (
	StateMenu State = iota
	StatePlay
	StateKeySelect
	StateFilePicker
	StateAnalyzing
	StateResult
)

// MenuItem represents a menu option
type MenuItem struct {
	Title       string
	Description string
	Target      State
}

var menuItems = []MenuItem{
	{Title: "Play", Description: "Play chords on the computer keyboard or a MIDI controller", Target: StatePlay},
	{Title: "Select key", Description: "Choose the key chords are analyzed in", Target: StateKeySelect},
	{Title: "Analyze MIDI file", Description: "Label every chord change in a Standard MIDI File", Target: StateFilePicker},
	{Title: "Exit", Description: "Exit the application"},
}

// labelMsg carries a label computed on the router goroutine
type labelMsg struct {
	label   harmony.Label
	pitches []harmony.Pitch
}

// analysisDoneMsg signals analysis completion
type analysisDoneMsg struct {
	timeline *score.Timeline
	err      error
}

// Option configures the TUI
type Option func(*Model)

// WithKey sets the initial key
func WithKey(key harmony.Key) Option {
	return func(m *Model) {
		m.key = key
	}
}

// WithInput listens to a hardware MIDI port while playing
func WithInput(in drivers.In) Option {
	return func(m *Model) {
		m.port = in
	}
}

// Model represents the TUI model
type Model struct {
	state     State
	menuIndex int
	keyIndex  int // 0 = unset, otherwise key id

	key      harmony.Key
	label    harmony.Label
	pitches  []harmony.Pitch
	keyboard *input.Keyboard
	router   *input.Router
	labels   chan labelMsg
	port     drivers.In

	filePicker   filepicker.Model
	spinner      spinner.Model
	selectedFile string
	timeline     *score.Timeline
	scroll       int
	err          error
	width        int
	height       int
}

// New creates a new TUI model
func New(opts ...Option) Model {
	// Initialize file picker
	fp := filepicker.New()
	fp.AllowedTypes = score.Extensions
	fp.CurrentDirectory, _ = os.Getwd()

	// Initialize spinner
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accent)

	m := Model{
		state:      StateMenu,
		filePicker: fp,
		spinner:    s,
		keyboard:   input.NewKeyboard(),
		labels:     make(chan labelMsg, 64),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.keyIndex = m.key.ID

	var tracker *sonority.Tracker
	tracker = sonority.New(
		sonority.WithKey(m.key),
		sonority.WithSink(sonority.SinkFunc(func(label harmony.Label) {
			select {
			case m.labels <- labelMsg{label: label, pitches: tracker.Pitches()}:
			default:
			}
		})),
	)
	m.router = input.NewRouter(tracker, input.WithKeyboard(m.keyboard))
	return m
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForLabel())
}

func (m Model) waitForLabel() tea.Cmd {
	return func() tea.Msg {
		return <-m.labels
	}
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle file picker state first - it needs to receive all messages
	if m.state == StateFilePicker {
		// Check for escape/quit keys first
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				m.state = StateMenu
				return m, nil
			case "q", "ctrl+c":
				return m, tea.Quit
			}
		}

		// Pass all other messages to the file picker
		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)

		// Check if file was selected
		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.selectedFile = path
			m.state = StateAnalyzing
			return m, tea.Batch(m.spinner.Tick, m.performAnalysis())
		}

		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filePicker.Height = msg.Height - 10
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case StateMenu:
			return m.updateMenu(msg)
		case StatePlay:
			return m.updatePlay(msg)
		case StateKeySelect:
			return m.updateKeySelect(msg)
		case StateResult:
			return m.updateResult(msg)
		case StateAnalyzing:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
		}

	case labelMsg:
		m.label = msg.label
		m.pitches = msg.pitches
		return m, m.waitForLabel()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case analysisDoneMsg:
		m.state = StateResult
		m.timeline = msg.timeline
		m.err = msg.err
		m.scroll = 0
		return m, nil
	}

	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.menuIndex > 0 {
			m.menuIndex--
		}
	case "down", "j":
		if m.menuIndex < len(menuItems)-1 {
			m.menuIndex++
		}
	case "enter":
		if m.menuIndex == len(menuItems)-1 {
			return m, tea.Quit
		}
		m.state = menuItems[m.menuIndex].Target
		if m.state == StateKeySelect {
			m.keyIndex = m.key.ID
		}
		if m.state == StateFilePicker {
			return m, m.filePicker.Init()
		}
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updatePlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state = StateMenu
	case "ctrl+c":
		return m, tea.Quit
	case " ":
		m.router.Submit(input.Event{Kind: input.AllNotesOff, Source: input.Virtual})
	case "-":
		m.keyboard.ShiftOctave(-1)
	case "=":
		m.keyboard.ShiftOctave(1)
	case "[":
		m.selectKey((m.key.ID + harmony.NumKeys) % (harmony.NumKeys + 1))
	case "]":
		m.selectKey((m.key.ID + 1) % (harmony.NumKeys + 1))
	case "tab":
		m.keyIndex = m.key.ID
		m.state = StateKeySelect
	default:
		m.keyboard.ToggleKey(msg.String())
	}
	return m, nil
}

func (m Model) updateKeySelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.keyIndex > 0 {
			m.keyIndex--
		}
	case "down", "j":
		if m.keyIndex < harmony.NumKeys {
			m.keyIndex++
		}
	case "enter":
		m.selectKey(m.keyIndex)
		m.state = StatePlay
	case "esc":
		m.state = StateMenu
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

// selectKey switches key; the tracker clears its notes when the event is applied
func (m *Model) selectKey(id int) {
	key, err := harmony.KeyByID(id)
	if err != nil {
		return
	}
	m.key = key
	m.label = harmony.Label{}
	m.pitches = nil
	m.router.Submit(input.Event{Kind: input.KeyChange, Source: input.Virtual, KeyID: id})
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.scroll > 0 {
			m.scroll--
		}
	case "down", "j":
		if m.timeline != nil && m.scroll < len(m.timeline.Segments)-1 {
			m.scroll++
		}
	case "enter", "esc":
		m.state = StateMenu
		m.err = nil
		m.selectedFile = ""
		m.timeline = nil
		return m, nil
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) performAnalysis() tea.Cmd {
	path := m.selectedFile
	key := m.key
	return func() tea.Msg {
		tl, err := score.NewAnalyzer(score.WithKey(key)).AnalyzeFile(path)
		return analysisDoneMsg{timeline: tl, err: err}
	}
}

// start runs the event router and, when a port was given, the hardware listener
func (m Model) start(ctx context.Context) (stop func()) {
	go m.router.Run(ctx)
	if m.port == nil {
		return func() {}
	}
	stopListen, err := input.Listen(m.port, m.router)
	if err != nil {
		logger.Get().WithError(err).Error("cannot listen to MIDI input")
		return func() {}
	}
	return stopListen
}

// Run starts the TUI application
func Run(opts ...Option) error {
	if dir, err := config.Dir(); err == nil {
		if err := os.MkdirAll(dir, 0755); err == nil {
			if f, err := os.OpenFile(filepath.Join(dir, "tui.log"), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644); err == nil {
				defer f.Close()
				logger.SetOutput(f)
			}
		}
	}

	m := New(opts...)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := m.start(ctx)
	defer stop()

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
