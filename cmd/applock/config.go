package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eliteGoblin/focusd/app_lock/internal/infra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Args:  cobra.NoArgs,
	RunE:  withApp(runConfigShow),
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long: `Changes a setting and writes it to the config file. A running
'applock run' picks the change up for the next foreground change.

Keys: ` + strings.Join(infra.Keys(), ", "),
	Args: cobra.ExactArgs(2),
	RunE: withApp(runConfigSet),
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func configValues(cfg infra.Config) map[string]string {
	s := cfg.Settings
	return map[string]string{
		infra.KeyOverlayEnabled:        fmt.Sprint(s.OverlayEnabled),
		infra.KeyHoldDuration:          fmt.Sprint(s.DefaultHoldDurationSeconds),
		infra.KeyDailyGoal:             fmt.Sprint(s.DailyGoalMinutes),
		infra.KeyNewlyInstalledEnabled: fmt.Sprint(s.LockNewlyInstalled),
		infra.KeyGracePolicy:           s.GracePolicy,
		infra.KeyLauncherIDs:           strings.Join(s.LauncherIDs, ","),
		infra.KeyStoreBackend:          cfg.Store.Backend,
		infra.KeyStoreDataDir:          cfg.Store.DataDir,
		infra.KeyLogLevel:              cfg.LogLevel,
	}
}

func runConfigShow(a *app, cmd *cobra.Command, args []string) error {
	fmt.Printf("# %s\n", a.settings.Path())
	values := configValues(a.settings.Config())
	for _, k := range infra.Keys() {
		fmt.Printf("%s = %s\n", k, values[k])
	}
	return nil
}

func runConfigSet(a *app, cmd *cobra.Command, args []string) error {
	if err := a.settings.Set(args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("%s = %s\n", args[0], configValues(a.settings.Config())[args[0]])
	return nil
}
