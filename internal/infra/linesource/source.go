// Package linesource is a ForegroundSource fed by text lines, one
// foreground change per line: "<appId> [display name]". Blank lines and
// lines starting with '#' are skipped.
package linesource

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_lock/internal/domain"
)

// Source reads foreground changes from r.
type Source struct {
	r      io.Reader
	name   string
	logger *zap.Logger
	now    func() time.Time
}

// New creates a source reading from r. name is used in logs ("stdin", a file name).
func New(r io.Reader, name string, logger *zap.Logger) *Source {
	return &Source{r: r, name: name, logger: logger, now: time.Now}
}

// Name identifies the source for logs.
func (s *Source) Name() string {
	return s.name
}

// Run emits one event per line until EOF or ctx is done. EOF is a clean stop.
func (s *Source) Run(ctx context.Context, out chan<- domain.ForegroundEvent) error {
	lines := make(chan string)
	errc := make(chan error, 1)

	// The scanner blocks in Read, so it gets its own goroutine; on cancel
	// it is abandoned until the reader returns.
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errc:
					if err != nil {
						return fmt.Errorf("read %s: %w", s.name, err)
					}
				default:
				}
				s.logger.Info("foreground source exhausted", zap.String("source", s.name))
				return nil
			}
			ev, ok := s.parse(line)
			if !ok {
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func (s *Source) parse(line string) (domain.ForegroundEvent, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return domain.ForegroundEvent{}, false
	}
	appID, name, _ := strings.Cut(line, " ")
	return domain.ForegroundEvent{
		AppID:       appID,
		DisplayName: strings.TrimSpace(name),
		At:          s.now(),
	}, true
}

var _ domain.ForegroundSource = (*Source)(nil)
