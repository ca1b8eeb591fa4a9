package generator

import (
	"encoding/json"
	"fmt"
	"sort"

	"spese-insights/internal/core"

	"github.com/shopspring/decimal"
)

// SystemPrompt instructs the model to answer with a single JSON object.
const SystemPrompt = `You are a personal finance assistant. Analyse the user's expenses and reply with a single JSON object and nothing else.
The object must have exactly these keys:
- "topCategories": array of {"category": string, "amount": number, "percentage": number}, highest spend first, at most 5 entries
- "trends": array of {"description": string, "direction": "up" | "down" | "stable"}
- "unusualPatterns": string describing anomalies or unusual spending, or "None detected."
- "suggestions": array of short actionable strings
- "budgetHealth": string with a one or two sentence assessment
Amounts are in the same currency as the input. Percentages are of the total spend and add up to at most 100.`

type promptExpense struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`
}

type promptCategory struct {
	Category string `json:"category"`
	Total    string `json:"total"`
	Count    int    `json:"count"`
}

type promptDocument struct {
	ExpenseCount   int              `json:"expenseCount"`
	Total          string           `json:"total"`
	CategoryTotals []promptCategory `json:"categoryTotals"`
	Expenses       []promptExpense  `json:"expenses"`
}

// BuildPrompt renders the user prompt for expenses. Amounts are exact
// two-decimal strings; category totals are sorted by spend descending.
func BuildPrompt(expenses []core.Expense) (string, error) {
	doc := promptDocument{
		ExpenseCount: len(expenses),
		Expenses:     make([]promptExpense, 0, len(expenses)),
	}

	total := decimal.Zero
	byCategory := map[string]*struct {
		sum   decimal.Decimal
		count int
	}{}
	for _, e := range expenses {
		amount := e.Amount.Decimal()
		total = total.Add(amount)

		c, ok := byCategory[e.Category]
		if !ok {
			c = &struct {
				sum   decimal.Decimal
				count int
			}{sum: decimal.Zero}
			byCategory[e.Category] = c
		}
		c.sum = c.sum.Add(amount)
		c.count++

		doc.Expenses = append(doc.Expenses, promptExpense{
			Date:        e.Date.ISO(),
			Description: e.Description,
			Amount:      amount.StringFixed(2),
			Category:    e.Category,
			Subcategory: e.Subcategory,
		})
	}
	doc.Total = total.StringFixed(2)

	names := make([]string, 0, len(byCategory))
	for name := range byCategory {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := byCategory[names[i]].sum, byCategory[names[j]].sum
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		c := byCategory[name]
		doc.CategoryTotals = append(doc.CategoryTotals, promptCategory{
			Category: name,
			Total:    c.sum.StringFixed(2),
			Count:    c.count,
		})
	}

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal prompt: %w", err)
	}
	return "Here are my expenses as JSON. Provide insights.\n\n" + string(b), nil
}
