package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Activ8Auto/ProAutoFill/internal/bootstrap"
)

func newServeCommand(cli *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard backend",
		Long: `Run the HTTP backend for the dashboard. It proxies the AutoFillPro API,
tracks sessions and pushes job updates over server-sent events.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return bootstrap.Start(cli.cfgFile)
		},
	}
}
