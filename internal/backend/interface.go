package backend

import (
	"context"
	"slices"

	"spese-insights/internal/expenses"
	gsheet "spese-insights/internal/expenses/google"
)

// Store is what the insights server needs from an expense backend.
type Store interface {
	expenses.Finder
	expenses.Pinger
}

// CleanupFunc releases resources held by a store.
type CleanupFunc func() error

// BackendResult pairs an opened store with its optional cleanup.
type BackendResult struct {
	Store   Store
	Cleanup CleanupFunc
}

// Close runs Cleanup when set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory opens the store named by a Config.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config selects a store and carries the settings of that store only.
type Config struct {
	Type BackendType

	SQLiteDBPath  string
	Sheets        gsheet.Config
	DataDirectory string
}

// BackendType names an expense store implementation.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

var backendTypes = []BackendType{MemoryBackend, SQLiteBackend, SheetsBackend}

func (bt BackendType) String() string { return string(bt) }

// IsValid reports whether bt names a known store.
func (bt BackendType) IsValid() bool {
	return slices.Contains(backendTypes, bt)
}
