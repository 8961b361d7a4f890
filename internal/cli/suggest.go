package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "List tag pairs that look like duplicates",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		eng, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Close()

		suggestions, err := eng.FindMergeSuggestions(ctx)
		if err != nil {
			return err
		}
		if len(suggestions) == 0 {
			fmt.Println("no merge candidates")
			return nil
		}
		for _, s := range suggestions {
			fmt.Printf("%.2f  %-24s %-24s %s\n", s.Score, s.First.Name, s.Second.Name, s.Reason)
		}
		return nil
	},
}

var parentsCmd = &cobra.Command{
	Use:   "parents",
	Short: "List inferred parent/child tag relationships",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		eng, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Close()

		suggestions, err := eng.FindHierarchySuggestions(ctx)
		if err != nil {
			return err
		}
		if len(suggestions) == 0 {
			fmt.Println("no hierarchy candidates")
			return nil
		}
		for _, s := range suggestions {
			fmt.Printf("%-24s → %-24s (%s)\n", s.Child.Name, s.Parent.Name, s.Reason)
		}
		return nil
	},
}
