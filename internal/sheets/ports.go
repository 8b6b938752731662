// Package sheets defines the outbound port for mirroring saved records to
// an external spreadsheet.
package sheets

import (
	"context"

	"takings/internal/core"
)

// RecordAppender mirrors one saved record as a spreadsheet row. The mirror
// is best effort: callers log failures and never let them abort the local
// save that already committed.
type RecordAppender interface {
	AppendRecord(ctx context.Context, rec core.Record) error
}
