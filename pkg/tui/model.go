package tui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// frameMsg carries an encoded frame into the update loop.
type frameMsg struct {
	view string
}

// hintMsg replaces the footer text.
type hintMsg struct {
	text string
}

// readyMsg is delivered once the program loop is running.
type readyMsg struct{}

// keyMap holds the sink's key bindings.
type keyMap struct {
	Quit key.Binding
}

var defaultKeys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("esc", "q", "Q", "ctrl+c"),
		key.WithHelp("esc/q", "quit"),
	),
}

// state is shared between the model, which bubbletea copies, and the Sink.
type state struct {
	mu     sync.Mutex
	width  int
	height int

	ready  chan struct{}
	once   sync.Once
	onQuit func()
	onKey  func()
}

func (s *state) setSize(w, h int) {
	s.mu.Lock()
	s.width, s.height = w, h
	s.mu.Unlock()
}

func (s *state) size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

type model struct {
	shared *state
	keys   keyMap

	width  int
	height int
	frame  []string
	hint   string
}

func newModel(shared *state, hint string) model {
	w, h := shared.size()
	return model{
		shared: shared,
		keys:   defaultKeys,
		width:  w,
		height: h,
		hint:   hint,
	}
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg { return readyMsg{} }
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case readyMsg:
		m.shared.once.Do(func() { close(m.shared.ready) })

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.shared.setSize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			if m.shared.onQuit != nil {
				m.shared.onQuit()
			}
			return m, tea.Quit
		}
		if m.shared.onKey != nil {
			m.shared.onKey()
		}

	case frameMsg:
		m.frame = strings.Split(msg.view, "\n")

	case hintMsg:
		m.hint = msg.text
	}
	return m, nil
}

func (m model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	body := tuiRenderFrame(m.frame, m.width, m.height-footerHeight)
	return body + "\n" + tuiRenderFooter(m.hint, m.keys.Quit, m.width)
}
