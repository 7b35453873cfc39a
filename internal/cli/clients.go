package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/field-visits/internal/apiclient"
	"github.com/evcraddock/field-visits/internal/client"
)

func newClientCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Manage the client book",
	}
	cmd.AddCommand(
		newClientAddCmd(),
		newClientListCmd(),
		newClientShowCmd(),
		newClientNotesCmd(),
		newClientRemoveCmd(),
	)
	return cmd
}

func newClientAddCmd() *cobra.Command {
	var in apiclient.ClientInput
	var area, classification string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a client",
		Long: `Add a client to the book.

Areas: city, riverside, moatize, mining_company (default city)
Lead classifications: cold, warm, hot, contracted (default cold)

Examples:
  fv client add "Hotel VIP Executive" --contact "Joana Mucavele" --phone 841234567
  fv client add Vulcan --contact Rui --area moatize --lead warm`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = strings.Join(args, " ")
			in.Area = client.Area(strings.ToLower(area))
			in.Classification = client.Classification(strings.ToLower(classification))
			return runClientAdd(in)
		},
	}

	cmd.Flags().StringVar(&in.ContactPerson, "contact", "", "contact person (required)")
	cmd.Flags().StringVar(&in.ContactRole, "role", "", "contact role (default Staff)")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.Address, "address", "", "street address")
	cmd.Flags().StringVar(&in.Category, "category", "", "business category (default General)")
	cmd.Flags().StringVar(&in.Notes, "notes", "", "free-text notes")
	cmd.Flags().StringVar(&area, "area", "", "sales area")
	cmd.Flags().StringVar(&classification, "lead", "", "lead classification")

	return cmd
}

func runClientAdd(in apiclient.ClientInput) error {
	c, err := newAPIClient().AddClient(in)
	if err != nil {
		return fmt.Errorf("adding client: %w", err)
	}

	if isJSON() {
		return printJSON(c)
	}

	fmt.Println("Client added.")
	printClientSummary(c)
	return nil
}

func newClientListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clients, err := newAPIClient().ListClients()
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(clients)
			}
			return printClientTable(clients)
		},
	}
}

func newClientShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a client and its visits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newAPIClient().GetClient(args[0])
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(resp)
			}

			printClientSummary(resp.Client)
			fmt.Println()
			return printVisitTable(resp.Visits, map[string]string{resp.Client.ID: resp.Client.Name})
		},
	}
}

func newClientNotesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notes <id> <text>",
		Short: "Replace a client's notes",
		Long:  "Replace a client's notes. Pass an empty string to clear them.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newAPIClient().SetClientNotes(args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(c)
			}
			fmt.Printf("Notes updated for %s.\n", c.Name)
			return nil
		},
	}
}

func newClientRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a client",
		Long:  "Remove a client. Its visits stay in the schedule.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if err := newAPIClient().DeleteClient(id); err != nil {
				return err
			}
			if isJSON() {
				return printJSON(map[string]interface{}{"id": id, "removed": true})
			}
			fmt.Printf("Client %s removed.\n", id)
			return nil
		},
	}
}
