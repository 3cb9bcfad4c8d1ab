package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/artpar/formgate/bootstrap"
	"github.com/artpar/formgate/config"
)

const (
	checkMark = "✓"
	crossMark = "✗"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before deployment",
	Long: `Validate the formgate configuration.

Checks:
  - YAML syntax is valid
  - Drivers and their required settings are present
  - The form store can be opened (with --check-storage)

Examples:
  formgate validate
  formgate validate --config /etc/formgate/config.yaml --check-storage`,
	RunE: runValidate,
}

var validateCheckStorage bool

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckStorage, "check-storage", false, "check that the form store can be opened")
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating %s...\n\n", cfgFile)

	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		fmt.Fprintf(out, "  %s Configuration\n", crossMark)
		return err
	}
	fmt.Fprintf(out, "  %s Configuration\n", checkMark)
	fmt.Fprintf(out, "    Listen:  %s\n", cfg.Server.Addr())
	fmt.Fprintf(out, "    Storage: %s\n", cfg.Storage.Driver)
	fmt.Fprintf(out, "    Events:  %s\n", cfg.Events.Driver)
	fmt.Fprintf(out, "    Auth:    %v\n", cfg.Auth.APIKeyHash != "")

	if validateCheckStorage {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		store, err := bootstrap.OpenStore(ctx, cfg, nil)
		if err != nil {
			fmt.Fprintf(out, "  %s Storage reachable\n", crossMark)
			return err
		}
		store.Close()
		fmt.Fprintf(out, "  %s Storage reachable\n", checkMark)
	}
	return nil
}
