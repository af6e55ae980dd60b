// Package cmd implements the dashctl CLI commands.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Yashtiwari893/11za-ai-Dashboard-sub001/internal/version"
	"github.com/Yashtiwari893/11za-ai-Dashboard-sub001/pkg/store"
)

var (
	// Global flags
	outputFormat string
	dbPath       string

	// Shared store instance
	dashStore *store.Store
)

var rootCmd = &cobra.Command{
	Use:   "dashctl",
	Short: "Admin CLI for the dashboard",
	Long: `dashctl manages dashboard accounts, roles, and teams directly
against the database. It is an operator tool; end users go through the API.`,
	Version:      version.Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip store initialization for completion commands
		if cmd.Name() == "completion" || cmd.Name() == "help" {
			return nil
		}

		path := dbPath
		if path == "" {
			path = store.DefaultPath()
		}

		var err error
		dashStore, err = store.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if dashStore != nil {
			dashStore.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: ~/.local/share/dashd/dashboard.db)")
}

// printStructured renders v as JSON or YAML when requested, returning true
// if it handled the output.
func printStructured(v any) (bool, error) {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case "yaml":
		return true, yaml.NewEncoder(os.Stdout).Encode(v)
	}
	return false, nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
