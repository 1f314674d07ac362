package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/agnivade/levenshtein"
	"github.com/spf13/cobra"

	"github.com/eliteGoblin/focusd/app_lock/internal/domain"
	"github.com/eliteGoblin/focusd/app_lock/internal/policy"
	"github.com/eliteGoblin/focusd/app_lock/internal/usecase"
)

var lockCmd = &cobra.Command{
	Use:   "lock <appId>",
	Short: "Lock an application",
	Long: `Locks an application. Without --seconds the app follows the global
hold_duration setting, including later changes to it.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(runLock),
}

var unlockCmd = &cobra.Command{
	Use:   "unlock <appId>",
	Short: "Unlock an application",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runUnlock),
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List locked applications",
	Args:  cobra.NoArgs,
	RunE:  withApp(runList),
}

var installedCmd = &cobra.Command{
	Use:   "installed <appId>",
	Short: "Report a newly installed application",
	Long: `Hook for package manager post-install triggers. When
newly_installed_enabled is on, the app is locked with the current global
hold duration.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(runInstalled),
}

var lockSeconds int32

func init() {
	lockCmd.Flags().Int32Var(&lockSeconds, "seconds", 0, "Hold duration for this app (default: global hold_duration)")

	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(unlockCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(installedCmd)
}

func runLock(a *app, cmd *cobra.Command, args []string) error {
	appID := args[0]
	seconds := domain.DefaultDurationSentinel
	if cmd.Flags().Changed("seconds") {
		if lockSeconds <= 0 {
			return fmt.Errorf("--seconds must be positive")
		}
		seconds = lockSeconds
	}

	if err := a.registry.SetDuration(appID, seconds); err != nil {
		return err
	}
	fmt.Printf("Locked %s (%s)\n", appID, describeHold(seconds, a.settings.Current()))
	return nil
}

func runUnlock(a *app, cmd *cobra.Command, args []string) error {
	appID := args[0]
	out := cmd.OutOrStdout()

	locked, err := a.registry.IsLocked(appID)
	if err != nil {
		return err
	}
	if err := a.registry.Remove(appID); err != nil {
		return err
	}

	if !locked {
		msg := fmt.Sprintf("%s was not locked", appID)
		if entries, err := a.registry.List(); err == nil {
			if guess := suggest(appID, entries); guess != "" {
				msg += fmt.Sprintf(" (did you mean %s?)", guess)
			}
		}
		fmt.Fprintln(out, msg)
		return nil
	}
	fmt.Fprintf(out, "Unlocked %s\n", appID)
	return nil
}

func runList(a *app, cmd *cobra.Command, args []string) error {
	entries, err := a.registry.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No locked applications.")
		return nil
	}

	settings := a.settings.Current()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "APP\tHOLD")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\n", e.AppID, describeHold(e.HoldDurationSeconds, settings))
	}
	return w.Flush()
}

func runInstalled(a *app, cmd *cobra.Command, args []string) error {
	watcher := usecase.NewInstallWatcher(a.registry, a.settings, a.logger)
	locked, err := watcher.OnPackageAdded(args[0])
	if err != nil {
		return err
	}
	if locked {
		fmt.Printf("Locked newly installed %s\n", args[0])
	}
	return nil
}

func describeHold(seconds int32, settings domain.Settings) string {
	effective := policy.ResolveEffectiveDuration(seconds, settings.DefaultHoldDurationSeconds)
	if seconds == domain.DefaultDurationSentinel {
		return fmt.Sprintf("default, %ds", effective)
	}
	return fmt.Sprintf("%ds", effective)
}

// suggest returns the locked app ID closest to appID, if any is close enough
// to be a likely typo.
func suggest(appID string, entries []domain.LockedAppEntry) string {
	best, bestDist := "", -1
	for _, e := range entries {
		d := levenshtein.ComputeDistance(appID, e.AppID)
		if bestDist < 0 || d < bestDist {
			best, bestDist = e.AppID, d
		}
	}
	limit := len(appID) / 3
	if limit < 2 {
		limit = 2
	}
	if bestDist < 0 || bestDist > limit {
		return ""
	}
	return best
}
