package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/eliteGoblin/focusd/app_lock/internal/infra"
)

var autostartCmd = &cobra.Command{
	Use:   "autostart",
	Short: "Start the block screen daemon with the desktop session",
}

var autostartInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Run 'applock run' in a terminal at login",
	Args:  cobra.NoArgs,
	RunE:  runAutostartInstall,
}

var autostartUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the login entry",
	Args:  cobra.NoArgs,
	RunE:  runAutostartUninstall,
}

var autostartStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the login entry is installed and current",
	Args:  cobra.NoArgs,
	RunE:  runAutostartStatus,
}

var terminalFlag string

func init() {
	autostartCmd.PersistentFlags().StringVar(&terminalFlag, "terminal", infra.DefaultTerminal, "Terminal emulator hosting the block screen")

	autostartCmd.AddCommand(autostartInstallCmd)
	autostartCmd.AddCommand(autostartUninstallCmd)
	autostartCmd.AddCommand(autostartStatusCmd)
	rootCmd.AddCommand(autostartCmd)
}

func autostartManager() *infra.AutostartManagerImpl {
	return infra.NewAutostartManager(infra.DetectExecMode(), terminalFlag)
}

func executablePath() (string, error) {
	path, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	return path, nil
}

func runAutostartInstall(cmd *cobra.Command, args []string) error {
	execPath, err := executablePath()
	if err != nil {
		return err
	}

	m := autostartManager()
	if m.IsInstalled() && !m.NeedsUpdate(execPath) {
		fmt.Printf("Autostart entry already up to date: %s\n", m.Path())
		return nil
	}
	if err := m.Install(execPath); err != nil {
		return fmt.Errorf("failed to install autostart entry: %w", err)
	}

	if m.Mode() == infra.ExecModeSystem {
		fmt.Printf("Installed autostart entry for all users: %s\n", m.Path())
	} else {
		fmt.Printf("Installed autostart entry: %s\n", m.Path())
	}
	fmt.Println("The block screen starts at your next login.")
	return nil
}

func runAutostartUninstall(cmd *cobra.Command, args []string) error {
	m := autostartManager()
	if err := m.Uninstall(); err != nil {
		return fmt.Errorf("failed to remove autostart entry: %w", err)
	}
	fmt.Printf("Removed %s\n", m.Path())
	return nil
}

func runAutostartStatus(cmd *cobra.Command, args []string) error {
	m := autostartManager()
	if !m.IsInstalled() {
		fmt.Printf("Not installed (%s)\n", m.Path())
		return nil
	}

	execPath, err := executablePath()
	if err != nil {
		return err
	}
	if m.NeedsUpdate(execPath) {
		fmt.Printf("Installed but stale, run 'applock autostart install' (%s)\n", m.Path())
		return nil
	}
	fmt.Printf("Installed (%s)\n", m.Path())
	return nil
}
