package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clustersCmd = &cobra.Command{
	Use:   "clusters",
	Short: "Partition all items into topical clusters",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		eng, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Close()

		clusters, err := eng.Clusters(ctx)
		if err != nil {
			return err
		}
		for _, c := range clusters {
			fmt.Printf("%s (%d items)\n", c.Label, len(c.Items))
			for _, item := range c.Items {
				fmt.Printf("  - %s\n", item.Title)
			}
		}
		return nil
	},
}

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Refresh item-count snapshots for stale tags",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		eng, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Close()

		res, err := eng.UpdateTrends(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("processed %d tags, refreshed %d\n", res.Processed, res.Updated)
		return nil
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Check the tag graph for dangling or one-sided references",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		eng, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Close()

		report, err := eng.Audit(ctx)
		if err != nil {
			return err
		}
		if report.Empty() {
			fmt.Println("tag graph is consistent")
			return nil
		}
		for _, tag := range report.EmptyTags {
			fmt.Printf("empty tag: %s (%s)\n", tag.Name, tag.ID)
		}
		for itemID, tagIDs := range report.DanglingTagIDs {
			fmt.Printf("dangling references on %s: %v\n", itemID, tagIDs)
		}
		for itemID, tagIDs := range report.AsymmetricEdges {
			fmt.Printf("one-sided membership on %s: %v\n", itemID, tagIDs)
		}
		return nil
	},
}
