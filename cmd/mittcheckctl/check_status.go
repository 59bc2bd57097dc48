package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func init() {
	statusCmd.Flags().BoolP("json", "j", false, "Print status as JSON")
	statusCmd.Flags().Bool("exit-with-status", false, "Exit with status code 0 if all checks pass, 1 if any check is failing")

	ctlCommand.AddCommand(statusCmd)
}

var styleStatusMainLine = lipgloss.NewStyle().Margin(1, 0)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of all checks",
	Long:  "This command can be used to show the latest snapshot state of every check of the agent.",

	RunE: func(cmd *cobra.Command, args []string) error {
		resp := newAPIClient().Status()
		if resp.Err() != nil {
			return fmt.Errorf("failed to get status: %w", resp.Err())
		}

		if printJson, _ := cmd.Flags().GetBool("json"); printJson {
			if err := resp.Print(cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("failed to print output: %w", err)
			}
		} else {
			names := newAPIClient().Checks()
			if names.Err() != nil {
				return fmt.Errorf("failed to list checks: %w", names.Err())
			}

			lines := make([]string, 0, len(names.Body))
			for _, name := range names.Body {
				lines = append(lines, styleListItem.Render(checkStatusLine(name, resp.Body.Checks[name])))
			}
			if len(lines) == 0 {
				lines = append(lines, styleNotSet.Render("no checks registered"))
			}
			fmt.Fprintln(cmd.OutOrStdout(), styleStatusMainLine.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))

			summary := styleOK.Render("all checks pass")
			if !resp.Body.OK {
				summary = styleFailed.Render(fmt.Sprintf("%d check(s) failing", len(resp.Body.Failing)))
			}
			fmt.Fprintln(cmd.OutOrStdout(), summaryBox(!resp.Body.OK).Render(lipgloss.JoinVertical(
				lipgloss.Left,
				summary,
				"To inspect a single check, you can use the following commands:",
				styleCommandBlock.Render(lipgloss.JoinVertical(lipgloss.Left,
					styleCommand.Render(cmd.Root().CommandPath()+" check")+styleParam.Render(" <name>"),
					styleCommand.Render(cmd.Root().CommandPath()+" history")+styleParam.Render(" <name>"),
				)),
			)))
		}

		if exitWithStatus, _ := cmd.Flags().GetBool("exit-with-status"); exitWithStatus && !resp.Body.OK {
			os.Exit(1)
		}

		return nil
	},
}
