package linesource

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_lock/internal/domain"
)

func collect(t *testing.T, s *Source) ([]domain.ForegroundEvent, error) {
	t.Helper()
	out := make(chan domain.ForegroundEvent, 16)
	err := s.Run(context.Background(), out)
	close(out)
	var events []domain.ForegroundEvent
	for ev := range out {
		events = append(events, ev)
	}
	return events, err
}

func TestSource_ParsesLines(t *testing.T) {
	input := `
# morning session
com.example.social Social App
desktop

firefox   Firefox
`
	s := New(strings.NewReader(input), "replay", zap.NewNop())

	events, err := collect(t, s)

	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "com.example.social", events[0].AppID)
	assert.Equal(t, "Social App", events[0].DisplayName)
	assert.Equal(t, "desktop", events[1].AppID)
	assert.Empty(t, events[1].DisplayName)
	assert.Equal(t, "firefox", events[2].AppID)
	assert.Equal(t, "Firefox", events[2].DisplayName)
	assert.False(t, events[0].At.IsZero())
	assert.Equal(t, "replay", s.Name())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("device gone") }

func TestSource_ReadError(t *testing.T) {
	_, err := collect(t, New(failingReader{}, "stdin", zap.NewNop()))
	assert.ErrorContains(t, err, "device gone")
}

func TestSource_StopsOnCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	s := New(pr, "stdin", zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, make(chan domain.ForegroundEvent)) }()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
