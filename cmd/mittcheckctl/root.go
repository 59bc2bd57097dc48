package main

import (
	"time"

	"github.com/mittwald/mittcheck/cmd"
	"github.com/mittwald/mittcheck/pkg/cli"
	"github.com/spf13/cobra"
)

var (
	apiAddress string
	apiTimeout time.Duration
	noColor    bool
)

func init() {
	ctlCommand.PersistentFlags().StringVarP(&apiAddress, "api-address", "", cli.DefaultAPIAddress, "address of the mittcheck status api (http://host:port or unix:///path)")
	ctlCommand.PersistentFlags().DurationVarP(&apiTimeout, "timeout", "", 10*time.Second, "timeout for api requests")
	ctlCommand.PersistentFlags().BoolVarP(&noColor, "no-color", "", false, "disable colored json output")
	ctlCommand.AddCommand(cmd.VersionCmd)
}

var ctlCommand = &cobra.Command{
	Use:           "mittcheckctl",
	Short:         "query a running mittcheck agent from cli",
	Long:          "This command can be used to inspect the checks of a running mittcheck agent by command line.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func newAPIClient() *cli.APIClient {
	return cli.NewAPIClient(apiAddress, cli.WithTimeout(apiTimeout), cli.WithColor(!noColor))
}
