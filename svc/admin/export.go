package admin

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"storefront.app/pkg/apiclient"
)

var exportHeader = []string{"Invoice ID", "User", "Email", "Amount", "Status", "Date"}

// ExportCSV writes one row per transaction under a header row
func ExportCSV(w io.Writer, list []apiclient.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, t := range list {
		var name, email string
		if t.User != nil {
			name, email = t.User.Name, t.User.Email
		}
		date := t.OrderDate
		if date.IsZero() {
			date = t.CreatedAt
		}
		var day string
		if !date.IsZero() {
			day = date.UTC().Format(time.DateOnly)
		}

		row := []string{t.InvoiceID, name, email, t.TotalAmount.String(), string(t.Status), day}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", t.InvoiceID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportFilename is the download name for an export made at now
func ExportFilename(now time.Time) string {
	return "transactions_" + now.Format(time.DateOnly) + ".csv"
}
