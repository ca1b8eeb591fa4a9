package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"spese-insights/internal/core"
	"spese-insights/internal/expenses"

	_ "modernc.org/sqlite"
)

// timeLayout keeps spent_at lexicographically ordered.
const timeLayout = "2006-01-02T15:04:05Z"

var (
	_ expenses.Finder   = (*SQLiteRepository)(nil)
	_ expenses.Recorder = (*SQLiteRepository)(nil)
	_ expenses.Pinger   = (*SQLiteRepository)(nil)
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func dsn(dbPath string) string {
	return "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping implements expenses.Pinger
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Record implements expenses.Recorder
func (r *SQLiteRepository) Record(ctx context.Context, e core.Expense) (string, error) {
	return r.RecordWithSource(ctx, e, "")
}

// RecordWithSource stores e once per non-empty sourceRef. Recording the same
// sourceRef again returns the id of the existing row.
func (r *SQLiteRepository) RecordWithSource(ctx context.Context, e core.Expense, sourceRef string) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validate expense: %w", err)
	}

	id, err := r.queries.CreateExpense(ctx, CreateExpenseParams{
		OwnerID:     e.OwnerID,
		SpentAt:     formatTime(e.Date.Time),
		Description: e.Description,
		AmountCents: e.Amount.Cents,
		Category:    e.Category,
		Subcategory: e.Subcategory,
		SourceRef:   sql.NullString{String: sourceRef, Valid: sourceRef != ""},
	})
	if errors.Is(err, sql.ErrNoRows) && sourceRef != "" {
		id, err = r.queries.GetExpenseIDBySourceRef(ctx, sourceRef)
		if err != nil {
			return "", fmt.Errorf("get duplicate expense: %w", err)
		}
		slog.InfoContext(ctx, "Expense already recorded", "id", id, "source_ref", sourceRef)
		return strconv.FormatInt(id, 10), nil
	}
	if err != nil {
		return "", fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", id,
		"owner_id", e.OwnerID,
		"amount_cents", e.Amount.Cents,
		"category", e.Category)

	return strconv.FormatInt(id, 10), nil
}

// Find implements expenses.Finder
func (r *SQLiteRepository) Find(ctx context.Context, f core.Filter) ([]core.Expense, error) {
	params := FindExpensesParams{OwnerID: f.OwnerID}
	if f.From != nil {
		params.From = sql.NullString{String: formatTime(*f.From), Valid: true}
	}
	if f.To != nil {
		params.To = sql.NullString{String: formatTime(*f.To), Valid: true}
	}
	if f.Category != "" {
		params.Category = sql.NullString{String: f.Category, Valid: true}
	}

	rows, err := r.queries.FindExpenses(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("find expenses: %w", err)
	}

	items := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		e, err := toCore(row)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, nil
}

// GetExpense retrieves a single expense by ID
func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row, err := r.queries.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense by id: %w", err)
	}
	return toCore(row)
}

func toCore(row Expense) (core.Expense, error) {
	spentAt, err := time.Parse(timeLayout, row.SpentAt)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse spent_at of expense %d: %w", row.ID, err)
	}
	return core.Expense{
		ID:          strconv.FormatInt(row.ID, 10),
		OwnerID:     row.OwnerID,
		Date:        core.Date{Time: spentAt},
		Description: row.Description,
		Amount:      core.Money{Cents: row.AmountCents},
		Category:    row.Category,
		Subcategory: row.Subcategory,
	}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
