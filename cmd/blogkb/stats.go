package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/blogkb/pkg/blogkb/internalerr"
	"github.com/cognicore/blogkb/pkg/blogkb/kb"
)

func newStatsCmd(a *app) *cobra.Command {
	var (
		path string
		top  int
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the metadata of the knowledge-base artifact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if top < 0 {
				return fmt.Errorf("--top must not be negative, got %d: %w", top, internalerr.ErrInvalidInput)
			}
			if path == "" {
				path = a.settings.KB.Output
			}
			base, err := kb.ReadArtifact(path)
			if err != nil {
				return err
			}

			m := base.Metadata
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s (%s)\n", m.Name, m.Version, m.PoweredBy)
			fmt.Fprintf(out, "Generated: %s\n", m.GeneratedAt)
			fmt.Fprintf(out, "Blogs: %d  Words: %d  Categories: %d  Topics: %d  Concepts: %d  Avg reading time: %d min\n",
				m.Stats.TotalBlogs, m.Stats.TotalWords, m.Stats.TotalCategories,
				m.Stats.TotalTopics, m.Stats.TotalConcepts, m.Stats.AvgReadingTime)
			fmt.Fprintf(out, "Q&A pairs: %d\n", len(base.QAKnowledge))

			cats := base.Taxonomy.Categories
			if len(cats) > top {
				cats = cats[:top]
			}
			if len(cats) > 0 {
				fmt.Fprintln(out, "\nTop categories:")
				for _, c := range cats {
					fmt.Fprintf(out, "  %-24s %d\n", c.Name, c.BlogCount)
				}
			}
			concepts := base.GlobalConcepts
			if len(concepts) > top {
				concepts = concepts[:top]
			}
			if len(concepts) > 0 {
				fmt.Fprintln(out, "\nTop concepts:")
				for _, c := range concepts {
					fmt.Fprintf(out, "  %-24s %d\n", c.Name, c.Frequency)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "artifact path (defaults to kb.output)")
	cmd.Flags().IntVar(&top, "top", 10, "how many categories and concepts to list")
	return cmd
}
