package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/turfease/platform/internal/domain"
)

// Output renders command results as text or JSON.
type Output struct {
	w      io.Writer
	format string
}

// NewOutput creates a new Output formatter.
func NewOutput(w io.Writer, format string) *Output {
	return &Output{w: w, format: format}
}

// PrintMessage outputs a simple message.
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(map[string]string{"message": msg})
		return
	}
	fmt.Fprintln(o.w, msg)
}

// PrintAccount outputs one account.
func (o *Output) PrintAccount(a *domain.Account) {
	if o.format == "json" {
		o.printJSON(a)
		return
	}
	fmt.Fprintf(o.w, "ID:       %s\n", a.ID)
	fmt.Fprintf(o.w, "Name:     %s %s\n", a.FirstName, a.LastName)
	fmt.Fprintf(o.w, "Email:    %s\n", a.Email)
	fmt.Fprintf(o.w, "Role:     %s\n", a.Role)
	if a.Role == domain.RoleOwner {
		fmt.Fprintf(o.w, "Business: %s\n", a.BusinessName)
		fmt.Fprintf(o.w, "Status:   %s\n", a.ApprovalStatus)
		if a.ApprovalNotes != "" {
			fmt.Fprintf(o.w, "Notes:    %s\n", a.ApprovalNotes)
		}
	}
}

// PrintAccounts outputs a page of accounts as a table.
func (o *Output) PrintAccounts(page domain.Page[domain.Account]) {
	if o.format == "json" {
		o.printJSON(page)
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tBUSINESS\tSTATUS\tREGISTERED")
	for _, a := range page.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.Email, a.BusinessName, a.ApprovalStatus, a.CreatedAt.Format("2006-01-02"))
	}
	_ = tw.Flush()
	fmt.Fprintf(o.w, "page %d of %d, %d total\n", page.Page, max(page.TotalPages, 1), page.Total)
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}
