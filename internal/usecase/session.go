package usecase

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_lock/internal/domain"
)

// OverlaySessions starts hold sessions on the presenter and keeps track of the
// live one. It implements SessionStarter.
type OverlaySessions struct {
	cfg       HoldConfig
	caps      domain.Capabilities
	presenter domain.OverlayPresenter
	navigator domain.HomeNavigator
	state     *EnforcementState
	clock     Clock
	logger    *zap.Logger

	mu      sync.Mutex
	current *HoldController
}

// NewOverlaySessions creates a session starter. caps is the startup
// capability answer; when no overlay can be shown every start is denied.
func NewOverlaySessions(
	cfg HoldConfig,
	caps domain.Capabilities,
	presenter domain.OverlayPresenter,
	navigator domain.HomeNavigator,
	state *EnforcementState,
	clock Clock,
	logger *zap.Logger,
) *OverlaySessions {
	return &OverlaySessions{
		cfg:       cfg,
		caps:      caps,
		presenter: presenter,
		navigator: navigator,
		state:     state,
		clock:     clock,
		logger:    logger,
	}
}

// Start creates a controller and presents it. Whatever goes wrong, the
// overlay guard claimed by the monitor is released before Start returns an error.
func (s *OverlaySessions) Start(req domain.OverlayRequest) (err error) {
	ctrl := NewHoldController(req, s.cfg, s.presenter, s.navigator, s.state, s.clock, s.logger)

	s.mu.Lock()
	s.current = ctrl
	s.mu.Unlock()

	if !s.caps.OverlayAvailable {
		err = fmt.Errorf("%w: %s", domain.ErrPresentationDenied, s.caps.OverlayUnavailable)
		ctrl.Abort(err)
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: presenter panic: %v", domain.ErrPresentationDenied, r)
			ctrl.Abort(err)
		}
	}()

	if perr := s.presenter.Present(req, ctrl); perr != nil {
		err = perr
		if !errors.Is(err, domain.ErrPresentationDenied) {
			err = fmt.Errorf("%w: %v", domain.ErrPresentationDenied, perr)
		}
		ctrl.Abort(err)
		return err
	}
	return nil
}

// Current returns the most recently started controller, or nil.
func (s *OverlaySessions) Current() *HoldController {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Ensure OverlaySessions implements SessionStarter.
var _ SessionStarter = (*OverlaySessions)(nil)
