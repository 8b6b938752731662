// Package google mirrors saved records to a Google spreadsheet via the
// Sheets v4 API using service account credentials.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"takings/internal/config"
	"takings/internal/core"
	ports "takings/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ports.RecordAppender = (*Client)(nil)

// New builds a Sheets client from explicit configuration. Calling it with
// the mirror disabled, or enabled but missing its target spreadsheet, is a
// configuration error; callers that want "mirroring off" simply don't
// construct a client.
func New(ctx context.Context, cfg config.SheetsConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, errors.New("sheets mirror is not enabled")
	}
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := cfg.SheetName
	if sheetName == "" {
		sheetName = "Sheet1"
	}

	credentialsJSON, err := cfg.ResolveCredentials()
	if err != nil {
		return nil, fmt.Errorf("resolve credentials: %w", err)
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// AppendRecord appends one row matching the CSV export column order.
func (c *Client) AppendRecord(ctx context.Context, rec core.Record) error {
	row := []interface{}{
		rec.Date.ISO(),
		string(rec.ServiceType),
		string(rec.Duration),
		rec.TherapistName,
		rec.CardAmount.String(),
		rec.CashAmount.String(),
		rec.TotalAmount.String(),
		rec.CustomerCount,
		rec.Note,
		time.Now().UTC().Format(time.RFC3339),
	}

	vr := &gsheet.ValueRange{Values: [][]interface{}{row}}
	_, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, c.sheetName, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row to sheet %q: %w", c.sheetName, err)
	}

	slog.InfoContext(ctx, "Record appended to sheet",
		"record_id", rec.ID,
		"date", rec.Date.ISO(),
		"sheet", c.sheetName)

	return nil
}
