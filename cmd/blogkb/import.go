package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/blogkb/pkg/blogkb/store/mongostore"
)

func newImportCmd(a *app) *cobra.Command {
	var batch int
	cmd := &cobra.Command{
		Use:   "import <file.jsonl>",
		Short: "Load a JSONL blog export into the document store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := a.seed(ctx, st, args[0], batch)
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}
			if ms, ok := st.(*mongostore.Store); ok {
				if err := ms.EnsureIndexes(ctx); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d blogs\n", n)
			return nil
		},
	}
	cmd.Flags().IntVar(&batch, "batch", 500, "documents per insert")
	return cmd
}
