package cli

import (
	"github.com/spf13/cobra"

	"github.com/lnsongxf/gametheory/pkg/server"
)

// serveCommand creates the serve command, which runs the HTTP API until
// interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the solver over HTTP",
		Long: `Serve the solver over HTTP.

Routes:
  GET    /healthz
  GET    /v1/mechanisms
  POST   /v1/solve
  GET    /v1/problems
  GET    /v1/problems/{id}
  DELETE /v1/problems/{id}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = c.Config.Server.Addr
			}

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			st, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			if st != nil {
				defer st.Close()
			} else {
				c.Logger.Info("problem store disabled")
			}

			srv := server.New(server.Config{
				Runner:       runner,
				Store:        st,
				Logger:       c.Logger,
				Mechanisms:   c.Config.Solve.Mechanisms,
				Outside:      c.Config.Solve.Outside,
				MaxBodyBytes: c.Config.Server.MaxBodyBytes,
			})
			return srv.ListenAndServe(ctx, addr, c.Config.Server.ShutdownTimeout.Duration)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, \":8080\")")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")
	return cmd
}
