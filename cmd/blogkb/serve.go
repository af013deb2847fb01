package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cognicore/blogkb/internal/httpapi"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the knowledge base and chat API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if addr == "" {
				addr = a.settings.Server.Addr
			}

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			engine, err := a.newEngine(st, true)
			if err != nil {
				st.Close()
				return err
			}
			defer engine.Close()

			return httpapi.New(engine, a.settings.KB.Output, a.logger).Run(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to server.addr)")
	return cmd
}
