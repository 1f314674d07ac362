// Package overlay implements the block screen as a full-screen terminal
// UI. Holding the left mouse button anywhere is the hold gesture; q or esc
// leaves to the desktop.
package overlay

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_lock/internal/domain"
)

// Config controls the terminal presenter.
type Config struct {
	// FrameInterval is the redraw period.
	FrameInterval time.Duration
	// QuitWait bounds how long Present waits for the previous screen to
	// release the terminal before refusing to present.
	QuitWait time.Duration
	// OpenTerminal returns the terminal to draw on. Defaults to /dev/tty.
	OpenTerminal func() (io.ReadWriteCloser, error)
}

// DefaultConfig returns the production presenter configuration.
func DefaultConfig() Config {
	return Config{
		FrameInterval: 16 * time.Millisecond,
		QuitWait:      250 * time.Millisecond,
		OpenTerminal:  openTTY,
	}
}

func openTTY() (io.ReadWriteCloser, error) {
	return os.OpenFile("/dev/tty", os.O_RDWR, 0)
}

// surface is one presented block screen.
type surface struct {
	mu     sync.Mutex
	state  viewState
	closed bool
	input  domain.HoldInput
}

func (s *surface) view() viewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *surface) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// setPressed records the button state and reports whether it changed.
func (s *surface) setPressed(pressed bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state.pressed == pressed {
		return false
	}
	s.state.pressed = pressed
	return true
}

// Presenter implements domain.OverlayPresenter. Controller-facing calls only
// update state under a mutex; the program redraws from it on its own frame
// tick, so nothing here blocks on the UI goroutine.
type Presenter struct {
	mu       sync.Mutex
	cfg      Config
	current  *surface
	lastDone chan struct{}
	logger   *zap.Logger
}

// NewPresenter creates a terminal presenter.
func NewPresenter(cfg Config, logger *zap.Logger) *Presenter {
	if cfg.OpenTerminal == nil {
		cfg.OpenTerminal = openTTY
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultConfig().FrameInterval
	}
	return &Presenter{cfg: cfg, logger: logger}
}

// Present opens the terminal and starts the block screen.
func (p *Presenter) Present(req domain.OverlayRequest, input domain.HoldInput) error {
	p.mu.Lock()
	if p.current != nil {
		p.mu.Unlock()
		return fmt.Errorf("present %s: %w", req.SessionID, domain.ErrSessionActive)
	}
	last := p.lastDone
	p.mu.Unlock()

	// Two programs must never read the same terminal.
	if last != nil {
		select {
		case <-last:
		case <-time.After(p.cfg.QuitWait):
			return fmt.Errorf("present %s: %w: previous block screen still holds the terminal",
				req.SessionID, domain.ErrPresentationDenied)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		return fmt.Errorf("present %s: %w", req.SessionID, domain.ErrSessionActive)
	}

	tty, err := p.cfg.OpenTerminal()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}

	s := &surface{state: initialView(req), input: input}
	prog := tea.NewProgram(newModel(s, p.cfg.FrameInterval),
		tea.WithInput(tty),
		tea.WithOutput(tty),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithoutSignalHandler(),
	)

	done := make(chan struct{})
	p.current = s
	p.lastDone = done
	go p.run(prog, s, tty, req, done)

	p.logger.Info("block screen presented",
		zap.String("session", req.SessionID),
		zap.String("app", req.AppID))
	return nil
}

func (p *Presenter) run(prog *tea.Program, s *surface, tty io.Closer, req domain.OverlayRequest, done chan struct{}) {
	defer close(done)
	defer tty.Close()

	_, err := prog.Run()
	if p.detach(s) {
		return
	}

	// The screen went away without a Teardown. A failed program means the
	// surface is gone, so the session aborts and the app is not enforced;
	// a clean exit (terminal hung up) counts as the user leaving.
	if err != nil {
		p.logger.Warn("block screen program failed",
			zap.String("session", req.SessionID), zap.Error(err))
		s.input.Abort(fmt.Errorf("%w: %v", domain.ErrPresentationDenied, err))
		return
	}
	s.input.OnExitRequested()
}

// detach forgets s and reports whether it had already been torn down.
func (p *Presenter) detach(s *surface) bool {
	p.mu.Lock()
	if p.current == s {
		p.current = nil
	}
	p.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	wasClosed := s.closed
	s.closed = true
	return wasClosed
}

// UpdateCountdown refreshes the countdown and progress bar.
func (p *Presenter) UpdateCountdown(remainingSeconds int64, progress float64) {
	p.withSurface(func(s *viewState) {
		s.remaining = remainingSeconds
		s.progress = progress
	})
}

// Vibrate flashes the border for d; terminals have no haptics.
func (p *Presenter) Vibrate(d time.Duration) {
	until := time.Now().Add(d)
	p.withSurface(func(s *viewState) { s.flashUntil = until })
}

// Teardown closes the current block screen. The program exits on its next frame.
func (p *Presenter) Teardown() {
	p.mu.Lock()
	s := p.current
	p.current = nil
	p.mu.Unlock()

	if s == nil {
		return
	}
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (p *Presenter) withSurface(fn func(*viewState)) {
	p.mu.Lock()
	s := p.current
	p.mu.Unlock()
	if s == nil {
		return
	}
	s.mu.Lock()
	fn(&s.state)
	s.mu.Unlock()
}

// Wait blocks until the last presented screen has exited.
func (p *Presenter) Wait(timeout time.Duration) bool {
	p.mu.Lock()
	done := p.lastDone
	p.mu.Unlock()
	if done == nil {
		return true
	}
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

var _ domain.OverlayPresenter = (*Presenter)(nil)
