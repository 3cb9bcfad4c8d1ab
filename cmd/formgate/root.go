package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "formgate",
	Short: "Form builder service with conditional field visibility",
	Long: `formgate stores forms made of sections and fields, keeps field
visibility in sync with parent/child dependencies, and validates values.

Quick start:
  formgate serve            # Start the HTTP API

Management:
  formgate forms list       # List stored forms
  formgate forms import     # Import form documents
  formgate validate         # Validate configuration`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "formgate.yaml", "config file path")
}
