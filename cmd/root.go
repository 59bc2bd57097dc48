package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const DefaultConfigDir = "/etc/mittcheck.d"

var configDir string
var enableProfile bool

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config-dir", "c", DefaultConfigDir, "set directory to where your .hcl-configs are located")
	rootCmd.PersistentFlags().BoolVar(&enableProfile, "profile", false, "enable pprof http server")
	addLogFlags(rootCmd)
}

var rootCmd = &cobra.Command{
	Use:          "mittcheck",
	Short:        "Mittcheck - scripted monitoring agent",
	Long:         "Mittcheck runs scripted and native checks against your services and keeps their last results queryable",
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(); err != nil {
			return err
		}

		if enableProfile {
			go serveProfiler("127.0.0.1:0")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Warn("Running 'mittcheck' without any arguments - defaulting to 'up'.")
		return up.RunE(cmd, args)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
