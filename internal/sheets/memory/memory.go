// Package memory is an in-memory RecordAppender used by tests and by
// deployments that run with the spreadsheet mirror disabled.
package memory

import (
	"context"
	"sync"

	"takings/internal/core"
	ports "takings/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows []core.Record
}

var _ ports.RecordAppender = (*Store)(nil)

func New() *Store {
	return &Store{}
}

func (s *Store) AppendRecord(_ context.Context, rec core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, rec)
	return nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []core.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Record, len(s.rows))
	copy(out, s.rows)
	return out
}
