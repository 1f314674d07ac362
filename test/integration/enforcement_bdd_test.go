//go:build integration

package integration

import (
	"os"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_lock/internal/domain"
	"github.com/eliteGoblin/focusd/app_lock/internal/infra"
	"github.com/eliteGoblin/focusd/app_lock/internal/policy"
	"github.com/eliteGoblin/focusd/app_lock/internal/usecase"
	"github.com/eliteGoblin/focusd/app_lock/test/fixtures"
)

const (
	socialApp = "com.example.social"
	videoApp  = "com.example.video"
)

// host wires the enforcement core the same way the run command does,
// with the terminal and window system replaced by recorders.
type host struct {
	registry  *infra.FileLockedAppRegistry
	settings  *fixtures.StaticSettings
	presenter *fixtures.RecordingPresenter
	navigator *fixtures.RecordingNavigator
	clock     *fixtures.ManualClock
	state     *usecase.EnforcementState
	sessions  *usecase.OverlaySessions
	monitor   *usecase.ForegroundMonitor
}

func newHost(dataDir string) *host {
	h := &host{
		registry:  infra.NewFileLockedAppRegistry(dataDir),
		settings:  fixtures.NewStaticSettings(),
		presenter: &fixtures.RecordingPresenter{},
		navigator: &fixtures.RecordingNavigator{},
		clock:     fixtures.NewManualClock(),
		state:     usecase.NewEnforcementState(),
	}

	cfg := usecase.DefaultHoldConfig()
	cfg.TickInterval = 2 * time.Millisecond
	cfg.CompletionGrace = 20 * time.Millisecond

	logger := zap.NewNop()
	h.sessions = usecase.NewOverlaySessions(cfg, domain.Capabilities{OverlayAvailable: true},
		h.presenter, h.navigator, h.state, h.clock, logger)
	h.monitor = usecase.NewForegroundMonitor(
		h.registry,
		h.settings,
		infra.NewLauncherSet(h.settings),
		infra.NewLabelCache(),
		h.sessions,
		h.state,
		logger,
	)
	return h
}

func (h *host) foreground(appID string) usecase.Admission {
	return h.monitor.OnForegroundChanged(domain.ForegroundEvent{AppID: appID, At: h.clock.Now()})
}

func (h *host) current() *usecase.HoldController {
	return h.sessions.Current()
}

func (h *host) sessionState() domain.SessionState {
	return h.current().Session().State
}

// holdFor presses, moves the clock by d and waits for the next ticks to observe it.
func (h *host) holdFor(d time.Duration) {
	h.presenter.Input().OnPressStart()
	h.clock.Advance(d)
}

var _ = Describe("Enforcement", func() {
	var (
		tmpDir string
		h      *host
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "applock-integration-*")
		Expect(err).NotTo(HaveOccurred())
		h = newHost(tmpDir)
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("unlocking a locked app", func() {
		Context("when the registry is empty", func() {
			It("should ignore every foreground change", func() {
				Expect(h.foreground(socialApp)).To(Equal(usecase.AdmitIgnore))
				Expect(h.presenter.Requests()).To(BeEmpty())
				Expect(h.state.Snapshot().OverlayActive).To(BeFalse())
			})
		})

		Context("when the app is locked for 5 seconds", func() {
			BeforeEach(func() {
				Expect(h.foreground(socialApp)).To(Equal(usecase.AdmitIgnore))
				Expect(h.registry.SetDuration(socialApp, 5)).To(Succeed())
				Expect(h.registry.SetDuration(videoApp, 3)).To(Succeed())
			})

			It("should start a session with the stored duration", func() {
				Expect(h.foreground(socialApp)).To(Equal(usecase.AdmitStart))

				reqs := h.presenter.Requests()
				Expect(reqs).To(HaveLen(1))
				Expect(reqs[0].AppID).To(Equal(socialApp))
				Expect(reqs[0].RequiredDurationSeconds).To(Equal(int32(5)))
				Expect(reqs[0].DailyGoalMinutes).To(Equal(domain.DefaultDailyGoalMinutes))
				Expect(h.sessionState()).To(Equal(domain.StateIdle))
				Expect(h.state.Snapshot().OverlayActive).To(BeTrue())
			})

			It("should unlock after a full hold and keep the grace until another locked app", func() {
				Expect(h.foreground(socialApp)).To(Equal(usecase.AdmitStart))

				h.holdFor(5000 * time.Millisecond)
				Eventually(h.sessionState).Should(Equal(domain.StateCompleted))
				Expect(h.state.Snapshot().LastUnlockedAppID).To(Equal(socialApp))

				Eventually(func() bool { return h.state.Snapshot().OverlayActive }).Should(BeFalse())
				Eventually(h.presenter.Teardowns).Should(Equal(1))
				remaining, progress := h.presenter.Countdown()
				Expect(remaining).To(BeZero())
				Expect(progress).To(Equal(1.0))

				By("re-foregrounding the unlocked app")
				Expect(h.foreground(socialApp)).To(Equal(usecase.AdmitIgnore))

				By("foregrounding the launcher and coming back")
				Expect(h.foreground(domain.DesktopAppID)).To(Equal(usecase.AdmitIgnore))
				Expect(h.foreground(socialApp)).To(Equal(usecase.AdmitIgnore))
				Expect(h.presenter.Requests()).To(HaveLen(1))

				By("foregrounding a different locked app")
				Expect(h.foreground(videoApp)).To(Equal(usecase.AdmitStart))
				reqs := h.presenter.Requests()
				Expect(reqs).To(HaveLen(2))
				Expect(reqs[1].AppID).To(Equal(videoApp))
				Expect(reqs[1].RequiredDurationSeconds).To(Equal(int32(3)))

				By("the unlock of the first app being revoked by the second")
				Expect(h.state.Snapshot().LastUnlockedAppID).To(BeEmpty())
			})

			It("should not unlock when released early", func() {
				Expect(h.foreground(socialApp)).To(Equal(usecase.AdmitStart))

				h.holdFor(4999 * time.Millisecond)
				Consistently(h.sessionState, 50*time.Millisecond).Should(Equal(domain.StateHolding))

				h.presenter.Input().OnPressEnd()
				Expect(h.sessionState()).To(Equal(domain.StateIdle))
				Expect(h.state.Snapshot()).To(Equal(usecase.StateSnapshot{OverlayActive: true}))
			})

			It("should send the host home and stay locked on exit", func() {
				Expect(h.foreground(socialApp)).To(Equal(usecase.AdmitStart))

				h.presenter.Input().OnExitRequested()

				Expect(h.sessionState()).To(Equal(domain.StateDismissed))
				Expect(h.navigator.Calls()).To(Equal(1))
				Expect(h.state.Snapshot()).To(Equal(usecase.StateSnapshot{}))
				Expect(h.foreground(socialApp)).To(Equal(usecase.AdmitStart))
			})

			It("should drop triggers while a block screen is up", func() {
				Expect(h.foreground(socialApp)).To(Equal(usecase.AdmitStart))
				Expect(h.foreground(videoApp)).To(Equal(usecase.AdmitBusy))
				Expect(h.presenter.Requests()).To(HaveLen(1))
			})
		})

		Context("when the grace policy revokes on the launcher", func() {
			BeforeEach(func() {
				h.settings.Update(func(s *domain.Settings) { s.GracePolicy = policy.RevokeOnLauncher })
				Expect(h.registry.SetDuration(socialApp, 1)).To(Succeed())
			})

			It("should ask again after a trip through the launcher", func() {
				Expect(h.foreground(socialApp)).To(Equal(usecase.AdmitStart))
				h.holdFor(time.Second)
				Eventually(func() bool { return h.state.Snapshot().OverlayActive }).Should(BeFalse())

				Expect(h.foreground(domain.DesktopAppID)).To(Equal(usecase.AdmitIgnore))
				Expect(h.foreground(socialApp)).To(Equal(usecase.AdmitStart))
			})
		})

		Context("when the overlay is disabled", func() {
			It("should not start sessions for locked apps", func() {
				Expect(h.registry.SetDuration(socialApp, 5)).To(Succeed())
				h.settings.Update(func(s *domain.Settings) { s.OverlayEnabled = false })

				Expect(h.foreground(socialApp)).To(Equal(usecase.AdmitIgnore))
				Expect(h.presenter.Requests()).To(BeEmpty())
			})
		})
	})

	Describe("default hold duration", func() {
		It("should resolve the sentinel to the global default", func() {
			Expect(h.registry.SetDuration(socialApp, domain.DefaultDurationSentinel)).To(Succeed())
			h.settings.Update(func(s *domain.Settings) { s.DefaultHoldDurationSeconds = 10 })

			Expect(h.foreground(socialApp)).To(Equal(usecase.AdmitStart))

			reqs := h.presenter.Requests()
			Expect(reqs).To(HaveLen(1))
			Expect(reqs[0].RequiredDurationSeconds).To(Equal(int32(10)))
			Expect(h.current().Session().RequiredDurationMillis).To(Equal(int64(10000)))
		})
	})

	Describe("concurrent foreground changes", func() {
		It("should admit exactly one session", func() {
			Expect(h.registry.SetDuration(socialApp, 5)).To(Succeed())
			Expect(h.registry.SetDuration(videoApp, 5)).To(Succeed())

			var (
				wg     sync.WaitGroup
				mu     sync.Mutex
				starts int
			)
			for i := 0; i < 20; i++ {
				app := socialApp
				if i%2 == 1 {
					app = videoApp
				}
				wg.Add(1)
				go func() {
					defer wg.Done()
					if h.foreground(app) == usecase.AdmitStart {
						mu.Lock()
						starts++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			Expect(starts).To(Equal(1))
			Expect(h.presenter.Requests()).To(HaveLen(1))
		})
	})

	Describe("registry mutations", func() {
		It("should unlock an app once removed", func() {
			Expect(h.registry.SetDuration(socialApp, 5)).To(Succeed())
			Expect(h.registry.Remove(socialApp)).To(Succeed())

			locked, err := h.registry.IsLocked(socialApp)
			Expect(err).NotTo(HaveOccurred())
			Expect(locked).To(BeFalse())
			Expect(h.foreground(socialApp)).To(Equal(usecase.AdmitIgnore))
		})

		It("should fail open when the registry file is corrupt", func() {
			Expect(os.WriteFile(h.registry.Path(), []byte("{not json"), 0600)).To(Succeed())

			Expect(h.foreground(socialApp)).To(Equal(usecase.AdmitIgnore))
			Expect(h.state.Snapshot().OverlayActive).To(BeFalse())
		})
	})
})
