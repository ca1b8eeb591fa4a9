package http

import (
	"net/url"

	"spese-insights/internal/services"
)

// Query parameter names of the insights endpoint.
const (
	paramStartDate = "startDate"
	paramEndDate   = "endDate"
	paramCategory  = "category"
)

// ParseInsightQuery extracts the optional filters. Values are passed through
// literally; an empty value counts as omitted.
func ParseInsightQuery(query url.Values) services.InsightQuery {
	return services.InsightQuery{
		StartDate: query.Get(paramStartDate),
		EndDate:   query.Get(paramEndDate),
		Category:  query.Get(paramCategory),
	}
}
