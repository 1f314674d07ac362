package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eliteGoblin/focusd/app_lock/internal/infra"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export locked applications as YAML",
	Long:  `Writes the lock table as YAML to file, or stdout when no file is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  withApp(runExport),
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import locked applications from YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runImport),
}

var importReplace bool

func init() {
	importCmd.Flags().BoolVar(&importReplace, "replace", false, "Unlock apps that are not in the file")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

func runExport(a *app, cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		_, err := infra.ExportYAML(a.registry, os.Stdout)
		return err
	}

	f, err := os.OpenFile(args[0], os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	n, err := infra.ExportYAML(a.registry, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	fmt.Printf("Exported %d locked apps to %s\n", n, args[0])
	return nil
}

func runImport(a *app, cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := infra.ImportYAML(a.registry, f, importReplace)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d locked apps", res.Set)
	if importReplace {
		fmt.Printf(", unlocked %d", res.Removed)
	}
	fmt.Println()
	return nil
}
