package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge <keep-id> <remove-id>",
	Short: "Merge one tag into another, rewiring all references",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		eng, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Close()

		if err := eng.MergeTags(ctx, args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("merged %s into %s\n", args[1], args[0])
		return nil
	},
}

var setParentCmd = &cobra.Command{
	Use:   "set-parent <parent-id> <child-id>",
	Short: "Make one tag the parent of another",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		eng, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Close()

		if err := eng.ApplyHierarchy(ctx, args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("%s is now the parent of %s\n", args[0], args[1])
		return nil
	},
}

var clearParentCmd = &cobra.Command{
	Use:   "clear-parent <child-id>",
	Short: "Detach a tag from its parent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		eng, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Close()

		if err := eng.RemoveHierarchy(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("%s is now a root tag\n", args[0])
		return nil
	},
}
