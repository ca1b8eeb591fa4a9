package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"spese-insights/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustRecord(t *testing.T, repo *SQLiteRepository, owner string, day core.Date, cat string, cents int64) string {
	t.Helper()
	id, err := repo.Record(context.Background(), core.Expense{
		OwnerID:     owner,
		Date:        day,
		Description: cat + " expense",
		Amount:      core.Money{Cents: cents},
		Category:    cat,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	return id
}

func TestSQLiteRepository_FindFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustRecord(t, repo, "u1", core.NewDate(2025, 1, 10), "food", 1000)
	mustRecord(t, repo, "u1", core.NewDate(2025, 2, 10), "transport", 250)
	mustRecord(t, repo, "u1", core.NewDate(2025, 3, 10), "food", 1500)
	mustRecord(t, repo, "u2", core.NewDate(2025, 2, 10), "food", 999)

	from := core.NewDate(2025, 2, 1).Time
	to := core.NewDate(2025, 3, 10).Time

	tests := []struct {
		name      string
		filter    core.Filter
		wantCount int
		wantFirst string
	}{
		{"owner only", core.Filter{OwnerID: "u1"}, 3, "2025-03-10"},
		{"category", core.Filter{OwnerID: "u1", Category: "food"}, 2, "2025-03-10"},
		{"from", core.Filter{OwnerID: "u1", From: &from}, 2, "2025-03-10"},
		{"inclusive to", core.Filter{OwnerID: "u1", To: &to}, 3, "2025-03-10"},
		{"range and category", core.Filter{OwnerID: "u1", From: &from, To: &to, Category: "transport"}, 1, "2025-02-10"},
		{"inverted range", core.Filter{OwnerID: "u1", From: &to, To: &from}, 0, ""},
		{"unknown owner", core.Filter{OwnerID: "nobody"}, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Find(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Find: %v", err)
			}
			if len(got) != tt.wantCount {
				t.Fatalf("got %d expenses, want %d", len(got), tt.wantCount)
			}
			if tt.wantCount > 0 && got[0].Date.ISO() != tt.wantFirst {
				t.Errorf("first date = %s, want %s", got[0].Date.ISO(), tt.wantFirst)
			}
			for i := 1; i < len(got); i++ {
				if got[i].Date.After(got[i-1].Date.Time) {
					t.Fatalf("results not in descending date order: %v", got)
				}
			}
		})
	}
}

func TestSQLiteRepository_RecordRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	spent := core.Date{Time: time.Date(2025, 4, 2, 18, 30, 0, 0, time.UTC)}
	id, err := repo.Record(ctx, core.Expense{
		OwnerID:     "u1",
		Date:        spent,
		Description: "Dinner",
		Amount:      core.Money{Cents: 4250},
		Category:    "food",
		Subcategory: "restaurant",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := repo.Find(ctx, core.Filter{OwnerID: "u1"})
	if err != nil || len(got) != 1 {
		t.Fatalf("Find: %v (%d rows)", err, len(got))
	}
	e := got[0]
	if e.ID != id || !e.Date.Equal(spent.Time) || e.Amount.Cents != 4250 || e.Subcategory != "restaurant" {
		t.Fatalf("unexpected round trip: %+v", e)
	}

	rowID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		t.Fatalf("id %q is not numeric: %v", id, err)
	}
	byID, err := repo.GetExpense(ctx, rowID)
	if err != nil {
		t.Fatalf("GetExpense: %v", err)
	}
	if byID.ID != e.ID || !byID.Date.Equal(e.Date.Time) || byID.Amount != e.Amount || byID.Description != e.Description {
		t.Errorf("GetExpense = %+v, want %+v", byID, e)
	}
	if _, err := repo.GetExpense(ctx, rowID+100); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("missing id: got %v, want sql.ErrNoRows", err)
	}

	if _, err := repo.Record(ctx, core.Expense{OwnerID: "u1"}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestSQLiteRepository_RecordWithSourceIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	e := core.Expense{
		OwnerID:     "u1",
		Date:        core.NewDate(2025, 5, 1),
		Description: "Rent",
		Amount:      core.Money{Cents: 90000},
		Category:    "housing",
	}

	first, err := repo.RecordWithSource(ctx, e, "msg-1")
	if err != nil {
		t.Fatalf("first record: %v", err)
	}
	second, err := repo.RecordWithSource(ctx, e, "msg-1")
	if err != nil {
		t.Fatalf("second record: %v", err)
	}
	if first != second {
		t.Fatalf("expected same id for duplicate source ref, got %s and %s", first, second)
	}

	got, _ := repo.Find(ctx, core.Filter{OwnerID: "u1"})
	if len(got) != 1 {
		t.Fatalf("expected a single stored row, got %d", len(got))
	}
}
