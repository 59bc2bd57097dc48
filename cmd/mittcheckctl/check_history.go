package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var historyLimit int

func init() {
	historyCmd.Flags().BoolP("json", "j", false, "Print the records as JSON")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of records to show")

	ctlCommand.AddCommand(historyCmd)
}

var styleHistoryTime = lipgloss.NewStyle().Width(22)

var historyCmd = &cobra.Command{
	Use:        "history <name>",
	Args:       cobra.MaximumNArgs(1),
	ArgAliases: []string{"name"},
	Short:      "Show the stored snapshots of a check",
	Long:       "This command can be used to show the snapshots a check produced in previous cycles, newest first.\n\nThe agent needs a configured sink for this.",

	RunE: func(cmd *cobra.Command, args []string) error {
		apiClient := newAPIClient()

		name, err := determineCheckName(args, apiClient)
		if err != nil {
			return err
		}

		resp := apiClient.History(name, historyLimit)
		if resp.Err() != nil {
			return fmt.Errorf("failed to get history of check %s: %w", name, resp.Err())
		}

		if printJson, _ := cmd.Flags().GetBool("json"); printJson {
			if err := resp.Print(cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("failed to print output: %w", err)
			}
			return nil
		}

		lines := make([]string, 0, len(resp.Body))
		for _, r := range resp.Body {
			lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Left,
				styleHistoryTime.Render(r.CheckedAt.Local().Format("02-01-2006 15:04:05")),
				checkStatusLine(r.Check, r.Snapshot),
			))
		}
		if len(lines) == 0 {
			lines = append(lines, styleNotSet.Render("no records stored for "+name))
		}
		fmt.Fprintln(cmd.OutOrStdout(), styleStatusMainLine.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
		return nil
	},
}
