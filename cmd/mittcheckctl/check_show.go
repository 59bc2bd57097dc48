package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/mittwald/mittcheck/pkg/cli"
	"github.com/spf13/cobra"
)

func init() {
	checkCmd.Flags().BoolP("json", "j", false, "Print the snapshot as JSON")

	ctlCommand.AddCommand(checkCmd)
}

var styleCheckDetails = lipgloss.NewStyle().PaddingLeft(2)

var checkCmd = &cobra.Command{
	Use:        "check <name>",
	Args:       cobra.MaximumNArgs(1),
	ArgAliases: []string{"name"},
	Short:      "Show the latest snapshot of a check",
	Long:       "This command can be used to show the latest snapshot of a single check.\n\nWhen only one check is registered, the name can be omitted.",

	RunE: func(cmd *cobra.Command, args []string) error {
		apiClient := newAPIClient()

		name, err := determineCheckName(args, apiClient)
		if err != nil {
			return err
		}

		resp := apiClient.Check(name)
		if resp.Err() != nil {
			return fmt.Errorf("failed to get check %s: %w", name, resp.Err())
		}

		if printJson, _ := cmd.Flags().GetBool("json"); printJson {
			if err := resp.Print(cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("failed to print output: %w", err)
			}
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), styleStatusMainLine.Render(checkStatusLine(name, resp.Body.Snapshot)))
		fmt.Fprintln(cmd.OutOrStdout(), styleCheckDetails.Render(lipgloss.JoinVertical(lipgloss.Left, snapshotLines(resp.Body.Snapshot, 0)...)))
		return nil
	},
}

func determineCheckName(args []string, apiClient *cli.APIClient) (string, error) {
	if len(args) != 0 {
		return args[0], nil
	}

	checks := apiClient.Checks()
	if checks.Err() != nil {
		return "", fmt.Errorf("failed to list checks: %w", checks.Err())
	}

	if len(checks.Body) == 0 {
		return "", errors.New("no checks found")
	}

	if len(checks.Body) > 1 {
		return "", errors.New("more than one check found; please provide a check name as argument")
	}

	return checks.Body[0], nil
}
