package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUpdateKBCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "update-kb",
		Short: "Rebuild the knowledge-base artifact from the document store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if output == "" {
				output = a.settings.KB.Output
			}

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			engine, err := a.newEngine(st, false)
			if err != nil {
				st.Close()
				return err
			}
			defer engine.Close()

			base, err := engine.BuildKnowledgeBase(ctx, output)
			if err != nil {
				return fmt.Errorf("update knowledge base: %w", err)
			}

			stats := base.Metadata.Stats
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Knowledge base written to %s\n", output)
			fmt.Fprintf(out, "  Blogs:            %d\n", stats.TotalBlogs)
			fmt.Fprintf(out, "  Words:            %d\n", stats.TotalWords)
			fmt.Fprintf(out, "  Categories:       %d\n", stats.TotalCategories)
			fmt.Fprintf(out, "  Topics:           %d\n", stats.TotalTopics)
			fmt.Fprintf(out, "  Concepts:         %d\n", stats.TotalConcepts)
			fmt.Fprintf(out, "  Avg reading time: %d min\n", stats.AvgReadingTime)
			fmt.Fprintf(out, "  Q&A pairs:        %d\n", len(base.QAKnowledge))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "artifact path (defaults to kb.output)")
	return cmd
}
