package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/mittwald/mittcheck/internal/agent"
	"github.com/mittwald/mittcheck/internal/config"
	"github.com/mittwald/mittcheck/pkg/probe"
	"github.com/spf13/cobra"
)

var (
	styleValid   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00B785")).Bold(true)
	styleInvalid = lipgloss.NewStyle().Foreground(lipgloss.Color("#e1244c")).Bold(true)
	styleName    = lipgloss.NewStyle().Foreground(lipgloss.Color("#407FF8")).Bold(true)
	styleReason  = lipgloss.NewStyle().PaddingLeft(4)
)

func init() {
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and compile every script",
	Long:  "This sub-command loads the config dir, validates it and compiles every configured script without running it",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		b, err := agent.BuildBridge(cfg)
		if err != nil {
			return err
		}

		failed := 0
		report := func(kind, name string, err error) {
			if err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), lipgloss.JoinHorizontal(lipgloss.Left,
					styleValid.Render("✔"), " ", kind, " ", styleName.Render(name)))
				return
			}
			failed++
			fmt.Fprintln(cmd.OutOrStdout(), lipgloss.JoinVertical(lipgloss.Left,
				lipgloss.JoinHorizontal(lipgloss.Left, styleInvalid.Render("✘"), " ", kind, " ", styleName.Render(name)),
				styleReason.Render(err.Error())))
		}

		checkScript := func(s *config.Script, name string) {
			_, err := agent.BuildScript(s, b, cfg.Bridge)
			report("script", name, err)
		}
		checkProbe := func(p *config.Probe, name string) {
			_, err := probe.New(p)
			report("probe", name, err)
		}

		for i := range cfg.Scripts {
			checkScript(&cfg.Scripts[i], cfg.Scripts[i].Name)
		}
		for i := range cfg.Probes {
			checkProbe(&cfg.Probes[i], cfg.Probes[i].Name)
		}
		for _, e := range cfg.Endpoints {
			for i := range e.Scripts {
				checkScript(&e.Scripts[i], e.Name+"."+e.Scripts[i].Name)
			}
			for i := range e.Probes {
				checkProbe(&e.Probes[i], e.Name+"."+e.Probes[i].Name)
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d check(s) are invalid", failed)
		}
		return nil
	},
}
