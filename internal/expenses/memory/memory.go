package memory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"spese-insights/internal/core"
	"spese-insights/internal/expenses"
)

// SeedFile is the CSV read by NewFromFiles, relative to the data directory.
const SeedFile = "seed_expenses.csv"

var (
	_ expenses.Finder   = (*Store)(nil)
	_ expenses.Recorder = (*Store)(nil)
	_ expenses.Pinger   = (*Store)(nil)
)

type Store struct {
	mu    sync.Mutex
	seq   int
	items []core.Expense
}

func New(items ...core.Expense) *Store {
	s := &Store{}
	for _, e := range items {
		s.add(e)
	}
	return s
}

// NewFromFiles seeds a store from <base>/seed_expenses.csv. A missing file
// yields an empty store; malformed rows are skipped.
func NewFromFiles(base string) *Store {
	s := New()
	f, err := os.Open(filepath.Join(base, SeedFile))
	if err != nil {
		return s
	}
	defer f.Close()

	items, err := readCSV(f)
	if err != nil {
		slog.Warn("Failed reading seed expenses", "path", f.Name(), "error", err)
	}
	for _, e := range items {
		s.add(e)
	}
	return s
}

// Record stores the expense and returns a synthetic reference.
func (s *Store) Record(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(e), nil
}

// Find returns copies of the owner's matching expenses, most recent first.
func (s *Store) Find(_ context.Context, f core.Filter) ([]core.Expense, error) {
	s.mu.Lock()
	out := make([]core.Expense, 0)
	for _, e := range s.items {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	s.mu.Unlock()

	core.SortByDateDesc(out)
	return out, nil
}

func (s *Store) Ping(context.Context) error { return nil }

// add must be called with mu held (or before the store is shared).
func (s *Store) add(e core.Expense) string {
	s.seq++
	if e.ID == "" {
		e.ID = fmt.Sprintf("mem:%d", s.seq)
	}
	s.items = append(s.items, e)
	return e.ID
}

// readCSV parses rows of owner,date,description,amount,category[,subcategory].
// A header row and lines starting with '#' are ignored.
func readCSV(r io.Reader) ([]core.Expense, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		out  []core.Expense
		errs []error
	)
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "owner") {
			continue
		}
		e, err := parseRecord(rec)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		out = append(out, e)
	}
	return out, errors.Join(errs...)
}

func parseRecord(rec []string) (core.Expense, error) {
	if len(rec) < 5 {
		return core.Expense{}, fmt.Errorf("expected at least 5 fields, got %d", len(rec))
	}
	day, err := time.Parse(time.DateOnly, strings.TrimSpace(rec[1]))
	if err != nil {
		return core.Expense{}, fmt.Errorf("invalid date %q: %w", rec[1], err)
	}
	cents, err := core.ParseDecimalToCents(rec[3])
	if err != nil {
		return core.Expense{}, fmt.Errorf("invalid amount %q: %w", rec[3], err)
	}
	e := core.Expense{
		OwnerID:     strings.TrimSpace(rec[0]),
		Date:        core.Date{Time: day},
		Description: strings.TrimSpace(rec[2]),
		Amount:      core.Money{Cents: cents},
		Category:    strings.TrimSpace(rec[4]),
	}
	if len(rec) > 5 {
		e.Subcategory = strings.TrimSpace(rec[5])
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}
