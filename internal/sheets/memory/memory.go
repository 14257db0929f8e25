package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	ports "dompet/internal/sheets"
)

// Store keeps mirrored rows in process. The worker falls back to it when
// no spreadsheet is configured.
type Store struct {
	mu   sync.Mutex
	rows []ports.LedgerRow
	seen map[int64]int
}

var (
	_ ports.LedgerWriter = (*Store)(nil)
	_ ports.LedgerLister = (*Store)(nil)
)

func New() *Store {
	return &Store{seen: map[int64]int{}}
}

// AppendLedger stores the row and returns a synthetic row reference. A row
// for an entry already mirrored replaces the earlier copy.
func (s *Store) AppendLedger(_ context.Context, row ports.LedgerRow) (string, error) {
	if err := row.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.seen[row.ID]; ok {
		s.rows[i] = row
		return fmt.Sprintf("mem:%d", i+1), nil
	}
	s.rows = append(s.rows, row)
	s.seen[row.ID] = len(s.rows) - 1
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

func (s *Store) ListLedger(_ context.Context, year int, month time.Month) ([]ports.LedgerRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ports.LedgerRow
	for _, r := range s.rows {
		if r.Date.Year() == year && r.Date.Month() == month {
			out = append(out, r)
		}
	}
	return out, nil
}

// Len reports how many rows are stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
