package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Inspect contamination alerts",
}

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a user's alert history, newest first",
	RunE:  runAlertsList,
}

func init() {
	requireUser(alertsListCmd)
	alertsCmd.AddCommand(alertsListCmd)
	rootCmd.AddCommand(alertsCmd)
}

func runAlertsList(cmd *cobra.Command, args []string) error {
	return withCore(cmd, func(ctx context.Context, c *core) error {
		alerts, err := c.aqua.Alert.ListAlerts(ctx, userID)
		if err != nil {
			return fmt.Errorf("listing alerts for %s: %w", userID, err)
		}

		if len(alerts) == 0 {
			fmt.Printf("No alerts found for %s\n", userID)
			return nil
		}

		fmt.Printf("\n%s Alerts:\n", userID)
		fmt.Println("----------------------------------------")
		fmt.Printf("%-20s  %-6s  %s\n", "Created", "Type", "Message")
		fmt.Println("----------------------------------------")
		for _, a := range alerts {
			fmt.Printf("%-20s  %-6s  %s\n", a.CreatedAt.Local().Format(time.DateTime), a.Type, a.Message)
		}
		fmt.Println("----------------------------------------")
		fmt.Printf("Total: %d alerts\n", len(alerts))
		return nil
	})
}
