package overlay

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/eliteGoblin/focusd/app_lock/internal/domain"
)

const barWidth = 40

// viewState is everything the block screen shows.
type viewState struct {
	req        domain.OverlayRequest
	remaining  int64
	progress   float64
	flashUntil time.Time
	pressed    bool
}

func initialView(req domain.OverlayRequest) viewState {
	return viewState{req: req, remaining: int64(req.RequiredDurationSeconds)}
}

func titleText(req domain.OverlayRequest) string {
	name := req.DisplayName
	if name == "" {
		name = domain.UnknownAppLabel
	}
	return fmt.Sprintf("Hold for %d seconds to unlock %s", req.RequiredDurationSeconds, name)
}

func goalText(req domain.OverlayRequest) string {
	return fmt.Sprintf("Daily Goal: %d min", req.DailyGoalMinutes)
}

func progressBar(progress float64, width int) string {
	progress = math.Max(0, math.Min(1, progress))
	filled := int(math.Round(progress * float64(width)))
	return barFilledStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", width-filled))
}

// render draws the block screen centred in a width x height terminal.
func render(s viewState, now time.Time, width, height int) string {
	hint := "Press and hold anywhere to unlock · q to leave"
	if s.pressed {
		hint = "Keep holding…"
	}

	body := lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render(titleText(s.req)),
		countdownStyle.Render(fmt.Sprintf("%d", s.remaining)),
		progressBar(s.progress, barWidth),
		"",
		goalStyle.Render(goalText(s.req)),
		hintStyle.Render(hint),
	)

	box := boxStyle
	switch {
	case now.Before(s.flashUntil):
		box = box.BorderForeground(colorFlash)
	case s.progress >= 1:
		box = box.BorderForeground(colorDone)
	case s.pressed:
		box = box.BorderForeground(colorAccent)
	}
	out := box.Render(body)

	if width <= 0 || height <= 0 {
		return out
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, out)
}
