// Package generator turns a list of expenses into natural-language insights
// using a hosted language model.
package generator

import (
	"context"
	"errors"

	"spese-insights/internal/core"
)

// Generator produces insights for a non-empty, date-ordered list of expenses.
type Generator interface {
	// Provider is the human-readable provider name used in error messages.
	Provider() string
	// Configured reports whether the credential needed to call the provider is present.
	Configured() bool
	Generate(ctx context.Context, expenses []core.Expense) (core.Insights, error)
}

// ErrNotConfigured is returned by Generate when the provider has no credential.
var ErrNotConfigured = errors.New("generator is not configured")

// ErrEmptyResponse is returned when the model replies with no text.
var ErrEmptyResponse = errors.New("model response is empty")

// NotConfiguredMessage is the client-facing message for a missing credential.
func NotConfiguredMessage(g Generator) string {
	return g.Provider() + " API key is not configured on the server."
}
