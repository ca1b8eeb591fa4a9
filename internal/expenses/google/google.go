package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"spese-insights/internal/core"
	"spese-insights/internal/expenses"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// valuesGetter is the subset of the Sheets API used by the client.
type valuesGetter interface {
	Get(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error)
}

type sheetsValues struct {
	svc *gsheet.Service
}

func (s sheetsValues) Get(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// Client reads expenses from a spreadsheet whose first row holds the headers
// Owner, Date, Description, Amount, Category and optionally Subcategory.
type Client struct {
	values        valuesGetter
	spreadsheetID string
	expensesSheet string
}

var (
	_ expenses.Finder = (*Client)(nil)
	_ expenses.Pinger = (*Client)(nil)
)

// Config locates the expense sheet and the service account credentials.
// CredentialsJSON takes precedence over CredentialsFile.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// New creates a read-only Sheets client. SheetName defaults to "Expenses".
func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Expenses"
	}

	credentialsJSON, err := loadCredentials(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		values:        sheetsValues{svc: svc},
		spreadsheetID: spreadsheetID,
		expensesSheet: sheetName,
	}, nil
}

func loadCredentials(ctx context.Context, cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", cfg.CredentialsFile)
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials")
	}
}

// Find implements expenses.Finder. The sheet is read in full and filtered locally.
func (c *Client) Find(ctx context.Context, f core.Filter) ([]core.Expense, error) {
	rows, err := c.values.Get(ctx, c.spreadsheetID, c.expensesSheet+"!A:F")
	if err != nil {
		return nil, fmt.Errorf("read expenses sheet %q: %w", c.expensesSheet, err)
	}

	all, skipped, err := parseExpenses(rows)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		slog.WarnContext(ctx, "Skipped malformed expense rows", "sheet", c.expensesSheet, "skipped", skipped)
	}

	out := make([]core.Expense, 0)
	for _, e := range all {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	core.SortByDateDesc(out)
	return out, nil
}

// Ping implements expenses.Pinger by reading the header row.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.values.Get(ctx, c.spreadsheetID, c.expensesSheet+"!A1:F1")
	return err
}
