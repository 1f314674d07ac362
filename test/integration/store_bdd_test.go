//go:build integration

package integration

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_lock/internal/daemon"
	"github.com/eliteGoblin/focusd/app_lock/internal/domain"
	"github.com/eliteGoblin/focusd/app_lock/internal/infra"
	"github.com/eliteGoblin/focusd/app_lock/internal/infra/linesource"
	"github.com/eliteGoblin/focusd/app_lock/internal/usecase"
	"github.com/eliteGoblin/focusd/app_lock/test/fixtures"
)

var _ = Describe("Registry backends", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "applock-store-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	for _, backend := range []string{infra.BackendFile, infra.BackendEncrypted} {
		Context("with the "+backend+" backend", func() {
			It("should persist entries across reopen", func() {
				cfg := infra.StoreConfig{Backend: backend, DataDir: tmpDir}

				reg, closer, err := infra.OpenRegistry(cfg, zap.NewNop())
				Expect(err).NotTo(HaveOccurred())
				Expect(reg.SetDuration(socialApp, 5)).To(Succeed())
				Expect(reg.SetDuration(videoApp, domain.DefaultDurationSentinel)).To(Succeed())
				Expect(closer.Close()).To(Succeed())

				reg, closer, err = infra.OpenRegistry(cfg, zap.NewNop())
				Expect(err).NotTo(HaveOccurred())
				defer closer.Close()

				entries, err := reg.List()
				Expect(err).NotTo(HaveOccurred())
				Expect(entries).To(Equal([]domain.LockedAppEntry{
					{AppID: socialApp, HoldDurationSeconds: 5},
					{AppID: videoApp, HoldDurationSeconds: domain.DefaultDurationSentinel},
				}))
			})

			It("should round-trip through a YAML export", func() {
				cfg := infra.StoreConfig{Backend: backend, DataDir: tmpDir}
				reg, closer, err := infra.OpenRegistry(cfg, zap.NewNop())
				Expect(err).NotTo(HaveOccurred())
				defer closer.Close()

				Expect(reg.SetDuration(socialApp, 30)).To(Succeed())
				Expect(reg.SetDuration(videoApp, domain.DefaultDurationSentinel)).To(Succeed())

				var buf bytes.Buffer
				n, err := infra.ExportYAML(reg, &buf)
				Expect(err).NotTo(HaveOccurred())
				Expect(n).To(Equal(2))
				Expect(buf.String()).To(ContainSubstring("hold: default"))

				target := infra.NewFileLockedAppRegistry(filepath.Join(tmpDir, "copy"))
				Expect(target.SetDuration("com.example.stale", 5)).To(Succeed())

				res, err := infra.ImportYAML(target, &buf, true)
				Expect(err).NotTo(HaveOccurred())
				Expect(res).To(Equal(infra.ImportResult{Set: 2, Removed: 1}))

				got, err := target.List()
				Expect(err).NotTo(HaveOccurred())
				want, err := reg.List()
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(Equal(want))
			})
		})
	}
})

var _ = Describe("Watcher", func() {
	var (
		tmpDir string
		h      *host
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "applock-watcher-*")
		Expect(err).NotTo(HaveOccurred())
		h = newHost(tmpDir)
		Expect(h.registry.SetDuration(socialApp, 5)).To(Succeed())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("should drive the monitor from a replayed foreground log", func() {
		input := strings.Join([]string{
			"# replayed session",
			"org.example.editor Editor",
			"",
			socialApp + " Social",
			videoApp,
		}, "\n")
		src := linesource.New(strings.NewReader(input), "replay", zap.NewNop())
		labels := infra.NewLabelCache()

		w := daemon.NewWatcher(daemon.DefaultWatcherConfig(), src, h.monitor, labels, h.state, zap.NewNop())
		Expect(w.Run(context.Background())).To(Succeed())

		Expect(w.Stats()).To(Equal(daemon.Stats{Events: 3, Started: 1, Ignored: 2}))
		reqs := h.presenter.Requests()
		Expect(reqs).To(HaveLen(1))
		Expect(reqs[0].AppID).To(Equal(socialApp))
		Expect(reqs[0].DisplayName).To(Equal("Social"))

		name, err := labels.Label(socialApp)
		Expect(err).NotTo(HaveOccurred())
		Expect(name).To(Equal("Social"))
	})

	It("should count triggers dropped while a block screen is up", func() {
		Expect(h.registry.SetDuration(videoApp, 5)).To(Succeed())
		src := fixtures.NewScriptedSource(8)
		w := daemon.NewWatcher(daemon.DefaultWatcherConfig(), src, h.monitor, nil, h.state, zap.NewNop())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		done := make(chan error, 1)
		go func() { done <- w.Run(ctx) }()

		src.Emit(socialApp, "")
		src.Emit(videoApp, "")
		src.Close()

		Eventually(done).Should(Receive(BeNil()))
		Expect(w.Stats()).To(Equal(daemon.Stats{Events: 2, Started: 1, Busy: 1}))
		Expect(h.current().Session().AppID).To(Equal(socialApp))
		Expect(h.state.Snapshot().OverlayActive).To(BeTrue())

		h.current().OnExitRequested()
		Expect(h.state.Snapshot()).To(Equal(usecase.StateSnapshot{}))
		Expect(h.navigator.Calls()).To(Equal(1))
	})
})
