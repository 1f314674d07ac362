package x11

import (
	"sync"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_lock/internal/domain"
)

// Navigator implements domain.HomeNavigator by showing the desktop. The
// connection is opened on first use and kept for later calls.
type Navigator struct {
	mu      sync.Mutex
	client  *Client
	connect func() (*Client, error)
	logger  *zap.Logger
}

// NewNavigator creates a home navigator for $DISPLAY.
func NewNavigator(logger *zap.Logger) *Navigator {
	return &Navigator{connect: Connect, logger: logger}
}

// GoHome brings the desktop to the front.
func (n *Navigator) GoHome() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.client == nil {
		client, err := n.connect()
		if err != nil {
			return err
		}
		n.client = client
	}

	if err := n.client.showDesktop(); err != nil {
		// Drop the connection so the next call reconnects.
		n.client.Close()
		n.client = nil
		return err
	}
	n.logger.Debug("showing desktop")
	return nil
}

// Close releases the X connection.
func (n *Navigator) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.client != nil {
		n.client.Close()
		n.client = nil
	}
}

var _ domain.HomeNavigator = (*Navigator)(nil)
