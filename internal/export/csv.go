// Package export serializes record sets for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"takings/internal/core"
)

// Columns is the fixed CSV column order. Localized display labels are a
// presentation concern; the export contract is column order and formatting.
var Columns = []string{
	"date",
	"service_type",
	"duration",
	"therapist",
	"card_amount",
	"cash_amount",
	"total_amount",
	"customer_count",
	"note",
	"created_at",
}

// WriteCSV writes a header row plus one row per record. Monetary fields
// carry exactly two fractional digits.
func WriteCSV(w io.Writer, records []core.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Date.ISO(),
			string(r.ServiceType),
			string(r.Duration),
			r.TherapistName,
			r.CardAmount.String(),
			r.CashAmount.String(),
			r.TotalAmount.String(),
			strconv.Itoa(r.CustomerCount),
			r.Note,
			r.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Filename returns the conventional attachment name for an export taken
// today, e.g. "records_2026-09-01.csv".
func Filename(today core.Date) string {
	return "records_" + today.ISO() + ".csv"
}
