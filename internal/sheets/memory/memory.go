// Package memory is an in-process spreadsheet used when no Google sheet is
// configured and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"momentum/internal/core"
	ports "momentum/internal/sheets"
)

var (
	_ ports.TransactionWriter = (*Store)(nil)
	_ ports.TransactionLister = (*Store)(nil)
)

type Store struct {
	mu   sync.Mutex
	rows []core.Transaction
}

func New() *Store {
	return &Store{}
}

// Append stores the transaction and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, t)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

func (s *Store) ListTransactions(_ context.Context, year int, month int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.rows {
		if t.InMonth(year, month) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Len returns the number of appended rows.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
