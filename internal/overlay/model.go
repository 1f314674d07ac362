package overlay

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type frameMsg time.Time

// model is the bubbletea side of one block screen. Input is forwarded to
// the hold controller; drawing reads the surface state on every frame.
type model struct {
	surface       *surface
	frameInterval time.Duration
	now           func() time.Time
	width, height int
}

func newModel(s *surface, frameInterval time.Duration) model {
	return model{surface: s, frameInterval: frameInterval, now: time.Now}
}

func (m model) frame() tea.Cmd {
	return tea.Tick(m.frameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m model) Init() tea.Cmd {
	return m.frame()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case frameMsg:
		if m.surface.isClosed() {
			return m, tea.Quit
		}
		return m, m.frame()

	case tea.MouseMsg:
		switch msg.Action {
		case tea.MouseActionPress:
			if msg.Button == tea.MouseButtonLeft && m.surface.setPressed(true) {
				m.surface.input.OnPressStart()
			}
		case tea.MouseActionRelease:
			if m.surface.setPressed(false) {
				m.surface.input.OnPressEnd()
			}
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c", "backspace":
			m.surface.input.OnExitRequested()
		}
		return m, nil
	}
	return m, nil
}

func (m model) View() string {
	if m.surface.isClosed() {
		return ""
	}
	return render(m.surface.view(), m.now(), m.width, m.height)
}
