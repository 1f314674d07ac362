package usecase

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_lock/internal/domain"
)

func newTestSessions(caps domain.Capabilities, presenter *mockPresenter, state *EnforcementState) *OverlaySessions {
	return NewOverlaySessions(DefaultHoldConfig(), caps, presenter, &mockNavigator{}, state, newFakeClock(), zap.NewNop())
}

func claimedState() *EnforcementState {
	s := NewEnforcementState()
	s.overlayActive = true
	return s
}

var overlayCaps = domain.Capabilities{OverlayAvailable: true}

func TestOverlaySessions_StartPresents(t *testing.T) {
	presenter := &mockPresenter{}
	state := claimedState()
	sessions := newTestSessions(overlayCaps, presenter, state)

	req := domain.OverlayRequest{SessionID: "s1", AppID: "com.a", RequiredDurationSeconds: 5}
	require.NoError(t, sessions.Start(req))

	require.Len(t, presenter.presented, 1)
	assert.Equal(t, req, presenter.presented[0])
	require.NotNil(t, sessions.Current())
	assert.Same(t, sessions.Current(), presenter.input)
	assert.True(t, state.Snapshot().OverlayActive)
}

func TestOverlaySessions_PresentationDenied(t *testing.T) {
	tests := []struct {
		name      string
		caps      domain.Capabilities
		presenter *mockPresenter
	}{
		{
			name:      "no overlay capability",
			caps:      domain.Capabilities{OverlayUnavailable: "no terminal"},
			presenter: &mockPresenter{},
		},
		{
			name:      "presenter returns error",
			caps:      overlayCaps,
			presenter: &mockPresenter{presentErr: errors.New("surface rejected")},
		},
		{
			name:      "presenter panics",
			caps:      overlayCaps,
			presenter: &mockPresenter{panicMsg: "boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := claimedState()
			sessions := newTestSessions(tt.caps, tt.presenter, state)

			err := sessions.Start(domain.OverlayRequest{SessionID: "s1", AppID: "com.a", RequiredDurationSeconds: 5})

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrPresentationDenied)
			assert.False(t, state.Snapshot().OverlayActive, "guard must be released")
			assert.Equal(t, domain.StateDismissed, sessions.Current().Session().State)
		})
	}
}

func TestOverlaySessions_ForwardedInputDrivesController(t *testing.T) {
	presenter := &mockPresenter{}
	state := claimedState()
	sessions := newTestSessions(overlayCaps, presenter, state)
	require.NoError(t, sessions.Start(domain.OverlayRequest{SessionID: "s1", AppID: "com.a", RequiredDurationSeconds: 5}))

	presenter.input.OnPressStart()
	assert.Equal(t, domain.StateHolding, sessions.Current().Session().State)

	presenter.input.OnExitRequested()
	waitDone(t, sessions.Current())
	assert.False(t, state.Snapshot().OverlayActive)
}
