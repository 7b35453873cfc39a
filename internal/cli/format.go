package cli

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/evcraddock/field-visits/internal/alert"
	"github.com/evcraddock/field-visits/internal/client"
	"github.com/evcraddock/field-visits/internal/task"
	"github.com/evcraddock/field-visits/internal/visit"
)

// printJSON marshals v as indented JSON and writes it to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printClientSummary prints a single client in text format.
func printClientSummary(c *client.Client) {
	fmt.Printf("%s (%s)\n", c.Name, c.ID)
	fmt.Printf("  Contact:   %s, %s\n", c.ContactPerson, c.ContactRole)
	if c.Phone != "" {
		fmt.Printf("  Phone:     %s\n", c.Phone)
	}
	if c.Email != "" {
		fmt.Printf("  Email:     %s\n", c.Email)
	}
	if c.Address != "" {
		fmt.Printf("  Address:   %s\n", c.Address)
	}
	fmt.Printf("  Area:      %s\n", c.Area)
	fmt.Printf("  Category:  %s\n", c.Category)
	fmt.Printf("  Lead:      %s\n", c.Classification.Label())
	fmt.Printf("  Prospect:  %s\n", formatProgress(c.ProspectingCount))
	if c.Notes != "" {
		fmt.Printf("  Notes:     %s\n", c.Notes)
	}
}

// printClientTable prints a list of clients as a formatted table.
func printClientTable(clients []*client.Client) error {
	if len(clients) == 0 {
		fmt.Println("No clients found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tNAME\tCONTACT\tAREA\tLEAD\tPROSPECTING"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t----\t-------\t----\t----\t-----------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, c := range clients {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, truncate(c.Name, 32), truncate(c.ContactPerson, 24), c.Area,
			c.Classification.Label(), formatProgress(c.ProspectingCount)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Printf("\nTotal: %d clients\n", len(clients))
	return nil
}

// printVisitTable prints visits in schedule order. names maps client IDs to
// display names; unknown IDs are shown as is.
func printVisitTable(visits []*visit.Visit, names map[string]string) error {
	if len(visits) == 0 {
		fmt.Println("No visits found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tDATE\tTIME\tCLIENT\tTYPE\tSTATUS"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t----\t----\t------\t----\t------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, v := range visits {
		name, ok := names[v.ClientID]
		if !ok {
			name = v.ClientID
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			v.ID, v.Date, v.Time, truncate(name, 32), v.Type.Label(), v.Status); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	return w.Flush()
}

// printVisitSummary prints one visit with its services and opportunities.
func printVisitSummary(v *visit.Visit) {
	fmt.Printf("%s visit on %s at %s (%s)\n", v.Type.Label(), v.Date, v.Time, v.ID)
	fmt.Printf("  Status:    %s\n", v.Status)
	if len(v.PlannedServices) > 0 {
		fmt.Printf("  Services:  %s\n", strings.Join(v.PlannedServices, ", "))
	}
	if v.Notes != "" {
		fmt.Printf("  Notes:     %s\n", v.Notes)
	}
	for _, o := range v.Opportunities {
		value := "-"
		if o.Value != nil {
			value = formatMoney(*o.Value)
		}
		fmt.Printf("  Opportunity: %s (%s)\n", o.ServiceType, value)
		if o.Description != "" {
			fmt.Printf("    %s\n", o.Description)
		}
	}
}

// printTaskTable prints tasks in due order.
func printTaskTable(tasks []*task.Task) error {
	if len(tasks) == 0 {
		fmt.Println("No tasks.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tDONE\tDUE\tPRIORITY\tTITLE"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, t := range tasks {
		done := " "
		if t.Completed {
			done = "✓"
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			t.ID, done, t.DueDate, t.Priority, truncate(t.Title, 48)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return w.Flush()
}

// printNotifications prints feed entries newest first.
func printNotifications(items []alert.Notification) {
	if len(items) == 0 {
		fmt.Println("No notifications.")
		return
	}

	for _, n := range items {
		fmt.Printf("[%s] %s %s\n  %s\n\n",
			n.CreatedAt.Local().Format("2006-01-02 15:04"), levelMark(n.Level), n.Title, n.Body)
	}
}

func levelMark(l alert.Level) string {
	switch l {
	case alert.LevelSuccess:
		return "✓"
	case alert.LevelWarning:
		return "!"
	case alert.LevelError:
		return "✗"
	default:
		return "•"
	}
}

// formatMoney formats an amount in meticais with thousands separators.
func formatMoney(amount float64) string {
	n := int64(math.Round(amount))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := fmt.Sprintf("%d", n)

	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	return sign + strings.Join(parts, ",") + " MZN"
}

// formatProgress renders the prospecting counter against the target. The
// counter can run past the target; the bar cannot.
func formatProgress(count int) string {
	filled := min(max(count, 0), client.ProspectingTarget)
	return strings.Repeat("●", filled) + strings.Repeat("○", client.ProspectingTarget-filled) +
		fmt.Sprintf(" %d/%d", count, client.ProspectingTarget)
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
