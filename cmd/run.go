package cmd

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mittwald/mittcheck/internal/agent"
	"github.com/mittwald/mittcheck/internal/config"
	"github.com/mittwald/mittcheck/pkg/value"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"gopkg.in/yaml.v3"
)

var (
	runContext      []string
	runOutput       string
	runCapabilities []string
	runTimeout      string
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringArrayVar(&runContext, "context", nil, "context entry key=value passed to run(info); JSON values are decoded")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "json", "output format (json, yaml)")
	runCmd.Flags().StringSliceVar(&runCapabilities, "capabilities", nil, "enabled host functions (default: all)")
	runCmd.Flags().StringVar(&runTimeout, "timeout", "", "abort the script after this duration")
}

var runCmd = &cobra.Command{
	Use:   "run <file.star>",
	Short: "Run a single check script once and print its snapshot",
	Long:  "This sub-command compiles the given script, runs it once with the given context and prints the resulting snapshot. Bridge and remote settings are taken from the config dir if present.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := parseContext(runContext)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			log.WithError(err).Debug("running without configuration")
			cfg = &config.Agent{}
		}

		b, err := agent.BuildBridge(cfg)
		if err != nil {
			return err
		}

		name := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		s, err := agent.BuildScript(&config.Script{
			Name:         name,
			File:         args[0],
			Capabilities: runCapabilities,
			Timeout:      runTimeout,
		}, b, cfg.Bridge)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		snap := s.Execute(ctx, info)
		if err := writeSnapshot(cmd.OutOrStdout(), snap, runOutput); err != nil {
			return err
		}

		if msg, failed := snap.Error(); failed {
			return fmt.Errorf("script %q failed: %s", name, msg)
		}
		if snap.Failing() {
			return fmt.Errorf("script %q reported errors at %s", name, strings.Join(snap.ErrorPaths(), ", "))
		}
		return nil
	},
}

func parseContext(entries []string) (value.Snapshot, error) {
	m := make(map[string]value.Value, len(entries))
	for _, e := range entries {
		k, v, ok := strings.Cut(e, "=")
		if !ok || k == "" {
			return value.Snapshot{}, fmt.Errorf("invalid context entry %q, expected key=value", e)
		}
		if parsed, err := value.FromJSON([]byte(v)); err == nil {
			m[k] = parsed
		} else {
			m[k] = value.String(v)
		}
	}
	return value.NewSnapshot(m), nil
}

func writeSnapshot(w io.Writer, snap value.Snapshot, format string) error {
	switch format {
	case "json":
		out, err := value.ToJSON(snap.Value())
		if err != nil {
			return err
		}
		_, err = w.Write(pretty.Pretty(out))
		return err
	case "yaml":
		out, err := yaml.Marshal(snap.ToGo())
		if err != nil {
			return errors.Wrap(err, "could not encode snapshot as yaml")
		}
		_, err = w.Write(out)
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

