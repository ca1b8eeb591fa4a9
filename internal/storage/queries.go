package storage

import (
	"context"
	"database/sql"
	"strings"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Expense is a row of the expenses table.
type Expense struct {
	ID          int64
	OwnerID     string
	SpentAt     string
	Description string
	AmountCents int64
	Category    string
	Subcategory string
	SourceRef   sql.NullString
	CreatedAt   string
}

const expenseColumns = `id, owner_id, spent_at, description, amount_cents, category, subcategory, source_ref, created_at`

type CreateExpenseParams struct {
	OwnerID     string
	SpentAt     string
	Description string
	AmountCents int64
	Category    string
	Subcategory string
	SourceRef   sql.NullString
}

const createExpense = `INSERT INTO expenses (owner_id, spent_at, description, amount_cents, category, subcategory, source_ref)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (source_ref) DO NOTHING
RETURNING id`

// CreateExpense inserts a row and returns its id. It returns sql.ErrNoRows
// when a row with the same source_ref already exists.
func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createExpense,
		arg.OwnerID,
		arg.SpentAt,
		arg.Description,
		arg.AmountCents,
		arg.Category,
		arg.Subcategory,
		arg.SourceRef,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getExpenseIDBySourceRef = `SELECT id FROM expenses WHERE source_ref = ?`

func (q *Queries) GetExpenseIDBySourceRef(ctx context.Context, sourceRef string) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, getExpenseIDBySourceRef, sourceRef).Scan(&id)
	return id, err
}

const getExpense = `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`

func (q *Queries) GetExpense(ctx context.Context, id int64) (Expense, error) {
	return scanExpense(q.db.QueryRowContext(ctx, getExpense, id))
}

type FindExpensesParams struct {
	OwnerID  string
	From     sql.NullString
	To       sql.NullString
	Category sql.NullString
}

// FindExpenses builds the owner query with only the supplied bounds.
func (q *Queries) FindExpenses(ctx context.Context, arg FindExpensesParams) ([]Expense, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + expenseColumns + ` FROM expenses WHERE owner_id = ?`)
	args := []interface{}{arg.OwnerID}

	if arg.From.Valid {
		sb.WriteString(` AND spent_at >= ?`)
		args = append(args, arg.From.String)
	}
	if arg.To.Valid {
		sb.WriteString(` AND spent_at <= ?`)
		args = append(args, arg.To.String)
	}
	if arg.Category.Valid {
		sb.WriteString(` AND category = ?`)
		args = append(args, arg.Category.String)
	}
	sb.WriteString(` ORDER BY spent_at DESC, id DESC`)

	rows, err := q.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanExpense(row rowScanner) (Expense, error) {
	var e Expense
	err := row.Scan(
		&e.ID,
		&e.OwnerID,
		&e.SpentAt,
		&e.Description,
		&e.AmountCents,
		&e.Category,
		&e.Subcategory,
		&e.SourceRef,
		&e.CreatedAt,
	)
	return e, err
}
