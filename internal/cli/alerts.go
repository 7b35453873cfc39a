package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAlertsCmd() *cobra.Command {
	var limit int
	var clear bool

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Show the notification feed",
		Long:  "Show recent notifications: imminent visits, booking confirmations, urgent tasks and sync failures.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if clear {
				return runAlertsClear()
			}
			return runAlerts(limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "number of notifications to show (0 for all)")
	cmd.Flags().BoolVar(&clear, "clear", false, "clear the feed")

	return cmd
}

func runAlerts(limit int) error {
	if limit < 0 {
		return fmt.Errorf("limit must not be negative")
	}
	items, err := newAPIClient().ListNotifications(limit)
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(items)
	}
	printNotifications(items)
	return nil
}

func runAlertsClear() error {
	if err := newAPIClient().ClearNotifications(); err != nil {
		return err
	}
	if isJSON() {
		return printJSON(map[string]bool{"cleared": true})
	}
	fmt.Println("Notifications cleared.")
	return nil
}
