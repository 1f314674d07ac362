package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eliteGoblin/focusd/app_lock/internal/infra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show paths, settings and host capabilities",
	Args:  cobra.NoArgs,
	RunE:  withApp(runStatus),
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(a *app, cmd *cobra.Command, args []string) error {
	cfg := a.settings.Config()
	caps := infra.DetectCapabilities()

	fmt.Println("\n=== applock Status ===")
	fmt.Printf("Execution mode: %s\n", a.paths.Mode)
	fmt.Printf("Config file:    %s\n", a.settings.Path())
	fmt.Printf("Data dir:       %s\n", a.paths.DataDir)
	fmt.Printf("Log file:       %s\n", a.paths.LogPath)
	fmt.Printf("Store backend:  %s (%s)\n", cfg.Store.Backend, a.registry.Path())

	entries, err := a.registry.List()
	if err != nil {
		fmt.Printf("Locked apps:    unavailable (%v)\n", err)
	} else {
		fmt.Printf("Locked apps:    %d\n", len(entries))
	}

	s := cfg.Settings
	fmt.Println("\nSettings:")
	fmt.Printf("  Block screen enabled: %t\n", s.OverlayEnabled)
	fmt.Printf("  Hold duration:        %ds\n", s.DefaultHoldDurationSeconds)
	fmt.Printf("  Daily goal:           %d min\n", s.DailyGoalMinutes)
	fmt.Printf("  Lock new installs:    %t\n", s.LockNewlyInstalled)
	fmt.Printf("  Grace policy:         %s\n", s.GracePolicy)

	fmt.Println("\nHost:")
	if caps.DisplayServer != "" {
		fmt.Printf("  Display server:       %s\n", caps.DisplayServer)
	} else {
		fmt.Println("  Display server:       none (use --source stdin)")
	}
	if caps.OverlayAvailable {
		fmt.Println("  Block screen:         available")
	} else {
		fmt.Printf("  Block screen:         unavailable (%s)\n", caps.OverlayUnavailable)
	}
	fmt.Println("======================")
	return nil
}
