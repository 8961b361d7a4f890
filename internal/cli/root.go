// Package cli implements the tagmesh command line interface over a SQLite
// tag store.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/tagmesh/pkg/tagmesh"
	"github.com/cognicore/tagmesh/pkg/tagmesh/config"
	"github.com/cognicore/tagmesh/pkg/tagmesh/store/sqlite"
)

var (
	dbPath     string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "tagmesh",
	Short: "Tag relationship and clustering engine for a personal knowledge base",
	Long: "tagmesh detects near-duplicate tags, infers tag hierarchies, merges tags\n" +
		"without breaking the tag graph, and groups items into topical clusters.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "tagmesh.db", "path to the SQLite database")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(parentsCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(setParentCmd)
	rootCmd.AddCommand(clearParentCmd)
	rootCmd.AddCommand(clustersCmd)
	rootCmd.AddCommand(trendsCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(importCmd)
}

// openEngine wires the store and config into an engine. The caller must
// Close it.
func openEngine(ctx context.Context) (*tagmesh.Engine, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	st, err := sqlite.Open(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", dbPath, err)
	}
	return tagmesh.New(tagmesh.Options{Store: st, Config: &cfg}), nil
}
