package x11

import (
	"context"
	"strings"
	"time"

	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_lock/internal/domain"
)

// Source implements domain.ForegroundSource by listening for
// _NET_ACTIVE_WINDOW changes on the root window.
type Source struct {
	procs   domain.ProcessInspector
	logger  *zap.Logger
	connect func() (*Client, error)
	now     func() time.Time
}

// NewSource creates an X11 foreground source. procs maps window PIDs to
// application identifiers.
func NewSource(procs domain.ProcessInspector, logger *zap.Logger) *Source {
	return &Source{
		procs:   procs,
		logger:  logger,
		connect: Connect,
		now:     time.Now,
	}
}

// Name identifies the source for logs.
func (s *Source) Name() string {
	return "x11"
}

// Run emits one event per change of foreground application until ctx is done.
func (s *Source) Run(ctx context.Context, out chan<- domain.ForegroundEvent) error {
	client, err := s.connect()
	if err != nil {
		return err
	}
	if err := client.watchRoot(); err != nil {
		client.Close()
		return err
	}

	// Closing the connection is the only way to unblock WaitForEvent.
	stop := context.AfterFunc(ctx, client.Close)
	defer func() {
		if stop() {
			client.Close()
		}
	}()

	var last string
	emit := func() bool {
		ev := s.eventFromWindow(client.activeWindowInfo())
		if ev.AppID == last {
			return true
		}
		last = ev.AppID
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if !emit() {
		return nil
	}

	activeAtom := client.atoms["_NET_ACTIVE_WINDOW"]
	for {
		xev, xerr := client.conn.WaitForEvent()
		if xev == nil && xerr == nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.New("x11 connection closed")
		}
		if xerr != nil {
			s.logger.Debug("x11 error event", zap.String("error", xerr.Error()))
			continue
		}

		pn, ok := xev.(xproto.PropertyNotifyEvent)
		if !ok || pn.Atom != activeAtom {
			continue
		}
		if !emit() {
			return nil
		}
	}
}

// eventFromWindow maps the active window to an application identifier:
// the owning process name when _NET_WM_PID is set, else the WM_CLASS
// instance. No active window means the desktop is showing.
func (s *Source) eventFromWindow(w windowInfo) domain.ForegroundEvent {
	ev := domain.ForegroundEvent{At: s.now()}
	if w.ID == 0 {
		ev.AppID = domain.DesktopAppID
		return ev
	}

	ev.DisplayName = w.Class
	if w.PID != 0 {
		name, err := s.procs.NameByPID(int(w.PID))
		if err == nil && name != "" {
			ev.AppID = name
			return ev
		}
		s.logger.Debug("pid lookup failed, falling back to WM_CLASS",
			zap.Uint32("pid", w.PID), zap.Error(err))
	}
	ev.AppID = strings.ToLower(w.Instance)
	return ev
}

var _ domain.ForegroundSource = (*Source)(nil)
