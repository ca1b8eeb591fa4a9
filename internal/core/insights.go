package core

const (
	// PeriodAllTime is reported as period.from when no start date was given.
	PeriodAllTime = "All time"
	// PeriodPresent is reported as period.to when no end date was given.
	PeriodPresent = "Present"

	NoDataPatterns     = "No data available for analysis."
	NoDataBudgetHealth = "No expense data available for health assessment."
)

// NoDataSuggestions are returned to owners whose filter matched nothing.
var NoDataSuggestions = []string{
	"Start by adding some expenses to get personalized insights",
	"Try adjusting your date range or category filters",
	"Add expenses across different categories for better analysis",
}

// CategorySpend is one entry of the top spending categories.
type CategorySpend struct {
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// Trend is a spending trend observed by the generator.
type Trend struct {
	Description string `json:"description"`
	Direction   string `json:"direction,omitempty"`
}

// Insights is the analysis produced for a set of expenses.
type Insights struct {
	TopCategories   []CategorySpend `json:"topCategories"`
	Trends          []Trend         `json:"trends"`
	UnusualPatterns string          `json:"unusualPatterns"`
	Suggestions     []string        `json:"suggestions"`
	BudgetHealth    string          `json:"budgetHealth"`
}

// Period echoes the requested date bounds.
type Period struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Envelope is the response body of an insights request.
type Envelope struct {
	Insights     Insights `json:"insights"`
	ExpenseCount int      `json:"expenseCount"`
	Period       Period   `json:"period"`
}

// EmptyInsights returns the placeholder analysis used when there is no data.
func EmptyInsights() Insights {
	return Insights{
		TopCategories:   []CategorySpend{},
		Trends:          []Trend{},
		UnusualPatterns: NoDataPatterns,
		Suggestions:     append([]string(nil), NoDataSuggestions...),
		BudgetHealth:    NoDataBudgetHealth,
	}
}

// NewPeriod returns the period for the raw query bounds, substituting the
// open-ended labels for empty values.
func NewPeriod(startDate, endDate string) Period {
	p := Period{From: startDate, To: endDate}
	if p.From == "" {
		p.From = PeriodAllTime
	}
	if p.To == "" {
		p.To = PeriodPresent
	}
	return p
}

// Normalize replaces nil slices with empty ones so they encode as [].
func (i Insights) Normalize() Insights {
	if i.TopCategories == nil {
		i.TopCategories = []CategorySpend{}
	}
	if i.Trends == nil {
		i.Trends = []Trend{}
	}
	if i.Suggestions == nil {
		i.Suggestions = []string{}
	}
	return i
}
