package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"spese-insights/internal/core"
	"spese-insights/internal/expenses"
	"spese-insights/internal/generator"
	"spese-insights/internal/log"
)

// InsightQuery carries the raw, optional filter values of a request.
type InsightQuery struct {
	StartDate string
	EndDate   string
	Category  string
}

// InsightService fetches an owner's expenses and asks the generator for insights.
type InsightService struct {
	finder    expenses.Finder
	generator generator.Generator
	logger    *log.Logger
}

func NewInsightService(finder expenses.Finder, gen generator.Generator, logger *log.Logger) *InsightService {
	return &InsightService{
		finder:    finder,
		generator: gen,
		logger:    logger.WithComponent(log.ComponentInsights),
	}
}

// Insights returns the insights envelope for ownerID. Failures are *core.Error
// values tagged with the kind that decides the response status.
func (s *InsightService) Insights(ctx context.Context, ownerID string, q InsightQuery) (core.Envelope, error) {
	logger := s.loggerFor(ctx)
	fields := log.NewFields().WithInsightQuery(ownerID, q.StartDate, q.EndDate, q.Category)

	filter, err := BuildFilter(ownerID, q)
	if err != nil {
		logger.WarnContext(ctx, "Rejected insights filter", fields.WithError(err).ToSlice()...)
		return core.Envelope{}, err
	}

	items, err := s.finder.Find(ctx, filter)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to query expenses",
			fields.WithError(err).WithOperation(log.OpFind).WithErrorKind(string(core.KindStoreUnavailable)).ToSlice()...)
		return core.Envelope{}, core.NewError(core.KindStoreUnavailable, err)
	}

	period := core.NewPeriod(q.StartDate, q.EndDate)
	if len(items) == 0 {
		return core.Envelope{
			Insights:     core.EmptyInsights(),
			ExpenseCount: 0,
			Period:       period,
		}, nil
	}

	if !s.generator.Configured() {
		e := &core.Error{
			Kind:    core.KindGeneratorUnavailable,
			Message: generator.NotConfiguredMessage(s.generator),
			Err:     generator.ErrNotConfigured,
		}
		logger.ErrorContext(ctx, "Insights generator is not configured",
			fields.WithError(e).WithErrorKind(string(e.Kind)).ToSlice()...)
		return core.Envelope{}, e
	}

	insights, err := s.generator.Generate(ctx, items)
	if err != nil {
		kind := core.KindGeneratorFailed
		if errors.Is(err, generator.ErrNotConfigured) {
			kind = core.KindGeneratorUnavailable
		}
		logger.ErrorContext(ctx, "Failed to generate insights",
			fields.WithError(err).WithOperation(log.OpGenerate).WithErrorKind(string(kind)).ToSlice()...)
		return core.Envelope{}, core.NewError(kind, err)
	}

	logger.InfoContext(ctx, "Generated insights",
		log.FieldOwnerID, ownerID,
		log.FieldExpenseCount, len(items),
		log.FieldProvider, s.generator.Provider())

	return core.Envelope{
		Insights:     insights,
		ExpenseCount: len(items),
		Period:       period,
	}, nil
}

// loggerFor prefers the request logger carried by ctx, which holds the
// request ID, and falls back to the service logger.
func (s *InsightService) loggerFor(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(log.LoggerContextKey).(*log.Logger); ok && l != nil {
		return l.WithComponent(log.ComponentInsights)
	}
	return s.logger
}

// BuildFilter converts raw query values into a store filter. Empty values are
// unbounded. Dates are YYYY-MM-DD (midnight UTC) or RFC 3339. A start after
// the end is accepted and simply matches nothing.
func BuildFilter(ownerID string, q InsightQuery) (core.Filter, error) {
	f := core.Filter{OwnerID: ownerID, Category: q.Category}

	from, err := parseBound("startDate", q.StartDate)
	if err != nil {
		return core.Filter{}, err
	}
	to, err := parseBound("endDate", q.EndDate)
	if err != nil {
		return core.Filter{}, err
	}
	f.From, f.To = from, to
	return f, nil
}

func parseBound(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	v := strings.TrimSpace(value)
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		t = t.UTC()
		return &t, nil
	}
	return nil, core.Errorf(core.KindInvalidFilter,
		fmt.Sprintf("invalid %s %q: expected YYYY-MM-DD or RFC 3339", name, value))
}
