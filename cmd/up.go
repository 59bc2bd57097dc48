package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/mittwald/mittcheck/internal/agent"
	"github.com/mittwald/mittcheck/internal/config"
	"github.com/mittwald/mittcheck/pkg/pidfile"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	listenAddr string
	pidFile    string
)

func init() {
	rootCmd.AddCommand(up)
	up.Flags().StringVarP(&pidFile, "pidfile", "p", "", "write the agents process id to this file")
	up.Flags().StringVarP(&listenAddr, "listen", "l", "", "override the listen address of the status api (host:port or unix:///path)")
}

var up = &cobra.Command{
	Use:   "up",
	Short: "Load all checks and start querying them",
	Long:  "This sub-command loads the configured checks, serves the status api and queries all checks in the configured interval",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if listenAddr != "" {
			if cfg.Server == nil {
				cfg.Server = &config.Server{}
			}
			cfg.Server.Listen = listenAddr
		}

		pid := pidfile.New(pidFile)
		if err := pid.Acquire(); err != nil {
			return err
		}
		defer func() {
			if err := pid.Release(); err != nil {
				log.WithError(err).Warn("error while releasing pid file")
			}
		}()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		a, err := agent.Build(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				log.WithError(err).Warn("error while closing agent")
			}
		}()

		for name, err := range a.Rejected {
			log.WithFields(log.Fields{"kind": "script", "name": name}).Warnf("not running rejected script: %s", err)
		}

		if err := a.Run(ctx); err != nil {
			return err
		}
		log.Info("agent stopped without error")
		return nil
	},
}
