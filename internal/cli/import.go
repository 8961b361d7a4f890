package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cognicore/tagmesh/internal/bookmarks"
	"github.com/cognicore/tagmesh/pkg/tagmesh/store/sqlite"
)

var importCmd = &cobra.Command{
	Use:   "import <bookmarks.html>",
	Short: "Import a Netscape bookmark export as tagged items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		st, err := sqlite.Open(ctx, dbPath)
		if err != nil {
			return fmt.Errorf("open store %s: %w", dbPath, err)
		}
		defer st.Close()

		res, err := bookmarks.Import(ctx, st, f)
		if err != nil {
			return err
		}
		fmt.Printf("imported %d items (%d new tags, %d reused)\n", res.Items, res.TagsCreated, res.TagsReused)
		return nil
	},
}
