package expenses

import (
	"context"

	"spese-insights/internal/core"
)

// Ports for outbound adapters.
type (
	// Finder returns the expenses matching a filter, most recent first.
	Finder interface {
		Find(ctx context.Context, f core.Filter) ([]core.Expense, error)
	}

	// Recorder persists a new expense and returns its store reference.
	Recorder interface {
		Record(ctx context.Context, e core.Expense) (ref string, err error)
	}

	// Pinger reports whether the backing store is reachable.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
