package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/field-visits/internal/apiclient"
	"github.com/evcraddock/field-visits/internal/visit"
)

func newVisitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "visit",
		Short: "Schedule and close client visits",
	}
	cmd.AddCommand(
		newVisitScheduleCmd(),
		newVisitListCmd(),
		newVisitShowCmd(),
		newVisitCompleteCmd(),
		newVisitCancelCmd(),
		newVisitRemoveCmd(),
	)
	return cmd
}

func newVisitScheduleCmd() *cobra.Command {
	var services []string
	var notes string

	cmd := &cobra.Command{
		Use:   "schedule <client-id> <date> <time> <type>",
		Short: "Schedule a visit",
		Long: `Schedule a visit with a client.

Date format: YYYY-MM-DD (today or later)
Time format: HH:MM
Visit types: prospecting, follow_up, technical

Booking a prospecting visit counts toward the client's prospecting target.

Examples:
  fv visit schedule 3f2a... 2026-02-08 09:00 prospecting
  fv visit schedule 3f2a... 2026-02-10 14:30 technical --service "CCTV & Electronic Security"`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVisitSchedule(apiclient.ScheduleRequest{
				ClientID:        args[0],
				Date:            args[1],
				Time:            args[2],
				Type:            visit.VisitType(strings.ToLower(args[3])),
				PlannedServices: services,
				Notes:           notes,
			})
		},
	}

	cmd.Flags().StringArrayVarP(&services, "service", "s", nil, "planned service (repeatable)")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "optional notes about the visit")

	return cmd
}

func runVisitSchedule(req apiclient.ScheduleRequest) error {
	v, err := newAPIClient().ScheduleVisit(req)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(v)
	}

	fmt.Printf("Visit scheduled: %s %s %s (%s)\n", v.Date, v.Time, v.Type.Label(), v.ID)
	return nil
}

func newVisitListCmd() *cobra.Command {
	var status, clientID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List visits in schedule order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVisitList(apiclient.VisitFilter{
				Status:   visit.Status(strings.ToLower(status)),
				ClientID: clientID,
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "only visits in this status (scheduled, completed, cancelled)")
	cmd.Flags().StringVar(&clientID, "client", "", "only visits with this client")

	return cmd
}

func runVisitList(f apiclient.VisitFilter) error {
	api := newAPIClient()

	visits, err := api.ListVisits(f)
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(visits)
	}

	clients, err := api.ListClients()
	if err != nil {
		return err
	}
	names := make(map[string]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.Name
	}
	return printVisitTable(visits, names)
}

func newVisitShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a visit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newAPIClient().GetVisit(args[0])
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(v)
			}
			printVisitSummary(v)
			return nil
		},
	}
}

func newVisitCompleteCmd() *cobra.Command {
	var specs []string

	cmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark a scheduled visit as completed",
		Long: `Mark a scheduled visit as completed and record the opportunities found.

Each --opportunity takes "service" or "service=value" where value is in MZN.

Examples:
  fv visit complete 9c1d...
  fv visit complete 9c1d... -o "Cloud & Backups=45000" -o "IT Consulting & Audit"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opps := make([]visit.Opportunity, 0, len(specs))
			for _, s := range specs {
				o, err := parseOpportunity(s)
				if err != nil {
					return err
				}
				opps = append(opps, o)
			}
			return runVisitComplete(args[0], opps)
		},
	}

	cmd.Flags().StringArrayVarP(&specs, "opportunity", "o", nil, "opportunity found (repeatable)")

	return cmd
}

func runVisitComplete(id string, opps []visit.Opportunity) error {
	v, err := newAPIClient().CompleteVisit(id, opps)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(v)
	}

	fmt.Println("Visit completed.")
	printVisitSummary(v)
	return nil
}

// parseOpportunity parses "service" or "service=value".
func parseOpportunity(arg string) (visit.Opportunity, error) {
	service, raw, hasValue := strings.Cut(arg, "=")
	o := visit.Opportunity{ServiceType: strings.TrimSpace(service)}
	if o.ServiceType == "" {
		return visit.Opportunity{}, fmt.Errorf("opportunity %q: service is required", arg)
	}
	if !hasValue {
		return o, nil
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return visit.Opportunity{}, fmt.Errorf("opportunity %q: invalid value", arg)
	}
	o.Value = &value
	return o, nil
}

func newVisitCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a scheduled visit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newAPIClient().SetVisitStatus(args[0], visit.StatusCancelled)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(v)
			}
			fmt.Printf("Visit %s cancelled.\n", v.ID)
			return nil
		},
	}
}

func newVisitRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a visit",
		Long:  "Delete a visit in any status. The client's prospecting count is not changed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if err := newAPIClient().DeleteVisit(id); err != nil {
				return err
			}
			if isJSON() {
				return printJSON(map[string]interface{}{"id": id, "removed": true})
			}
			fmt.Printf("Visit %s removed.\n", id)
			return nil
		},
	}
}
