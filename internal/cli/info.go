package cli

import (
	"context"

	"github.com/spf13/cobra"

	"scriptbench/internal/resource"
)

// infoer is implemented by clients that can describe the store behind them.
type infoer interface {
	Info(ctx context.Context) (resource.ServerInfo, error)
}

type infoOutput struct {
	Server  string `json:"server"`
	Root    string `json:"root"`
	API     string `json:"api,omitempty"`
	Version string `json:"version,omitempty"`
}

func newInfoCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the API version reported by the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.newClient()
			if err != nil {
				return writeErr(cmd, err)
			}
			out := infoOutput{Server: app.Server, Root: client.RootURL()}
			if c, ok := client.(infoer); ok {
				ctx, cancel := context.WithTimeout(cmd.Context(), app.Timeout)
				defer cancel()
				info, err := c.Info(ctx)
				if err != nil {
					return writeErr(cmd, err)
				}
				out.API, out.Version = info.API, info.Version
			}
			return writeOut(cmd, app, out)
		},
	}
}
