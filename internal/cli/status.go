package cli

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/evcraddock/field-visits/internal/apiclient"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check connection, auth and sync status",
		Long:  "Tests the connection to the server, checks that the stored API key is valid and reports writes that have not reached the database.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	serverURL := getServerURL()
	apiKey := getAPIKey()

	fmt.Printf("Server:  %s\n", serverURL)

	if apiKey == "" {
		fmt.Println("API Key: not configured")
		fmt.Println("\nRun 'fv key create <name> --save' on the server host, or 'fv config set-key <key>'.")
		return nil
	}
	fmt.Printf("API Key: %s…\n", keyPrefix(apiKey))

	api := apiclient.New(serverURL, apiKey)
	if err := api.Health(); err != nil {
		fmt.Printf("Status:  ✗ cannot reach server (%v)\n", err)
		return nil
	}

	pending, err := api.PendingSync()
	var apiErr *apiclient.Error
	switch {
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized:
		fmt.Println("Status:  ✗ invalid API key")
		fmt.Println("\nRun 'fv config set-key <key>' with a valid key.")
		return nil
	case err != nil:
		fmt.Printf("Status:  ✗ unexpected response (%v)\n", err)
		return nil
	}

	fmt.Println("Status:  ✓ connected and authenticated")
	if len(pending) == 0 {
		fmt.Println("Sync:    ✓ all changes saved")
		return nil
	}
	fmt.Printf("Sync:    %d change(s) not saved\n", len(pending))
	for _, e := range pending {
		fmt.Printf("  %s %s %s: %s", e.Op, e.Kind, e.ID, e.Status)
		if e.Error != "" {
			fmt.Printf(" (%s)", e.Error)
		}
		fmt.Println()
	}
	return nil
}
