package generator

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"spese-insights/internal/core"
)

func sampleExpenses() []core.Expense {
	return []core.Expense{
		{ID: "3", OwnerID: "u1", Date: core.NewDate(2025, 3, 2), Description: "Train", Amount: core.Money{Cents: 1250}, Category: "Transport"},
		{ID: "2", OwnerID: "u1", Date: core.NewDate(2025, 3, 1), Description: "Dinner", Amount: core.Money{Cents: 4000}, Category: "Food", Subcategory: "Restaurants"},
		{ID: "1", OwnerID: "u1", Date: core.NewDate(2025, 2, 27), Description: "Groceries", Amount: core.Money{Cents: 2005}, Category: "Food"},
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt, err := BuildPrompt(sampleExpenses())
	if err != nil {
		t.Fatalf("BuildPrompt: %v", err)
	}
	idx := strings.Index(prompt, "{")
	if idx < 0 {
		t.Fatalf("prompt has no JSON document: %q", prompt)
	}

	var doc promptDocument
	if err := json.Unmarshal([]byte(prompt[idx:]), &doc); err != nil {
		t.Fatalf("prompt JSON: %v", err)
	}
	if doc.ExpenseCount != 3 {
		t.Errorf("expenseCount = %d", doc.ExpenseCount)
	}
	if doc.Total != "72.55" {
		t.Errorf("total = %s, want 72.55", doc.Total)
	}
	if len(doc.CategoryTotals) != 2 {
		t.Fatalf("categoryTotals = %+v", doc.CategoryTotals)
	}
	if got := doc.CategoryTotals[0]; got.Category != "Food" || got.Total != "60.05" || got.Count != 2 {
		t.Errorf("first category = %+v", got)
	}
	if got := doc.Expenses[0]; got.Date != "2025-03-02" || got.Amount != "12.50" {
		t.Errorf("first expense = %+v", got)
	}
	if doc.Expenses[1].Subcategory != "Restaurants" {
		t.Errorf("subcategory lost: %+v", doc.Expenses[1])
	}
}

func TestParseInsights(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
		check   func(t *testing.T, got core.Insights)
	}{
		{
			name:    "plain json",
			content: `{"topCategories":[{"category":"Food","amount":60.05,"percentage":82.8}],"trends":[{"description":"Food is rising","direction":"up"}],"unusualPatterns":"None detected.","suggestions":["Cook at home"],"budgetHealth":"Fine."}`,
			check: func(t *testing.T, got core.Insights) {
				if len(got.TopCategories) != 1 || got.TopCategories[0].Category != "Food" {
					t.Errorf("topCategories = %+v", got.TopCategories)
				}
				if got.Trends[0].Direction != "up" {
					t.Errorf("trends = %+v", got.Trends)
				}
				if got.BudgetHealth != "Fine." {
					t.Errorf("budgetHealth = %q", got.BudgetHealth)
				}
			},
		},
		{
			name:    "fenced json",
			content: "```json\n{\"unusualPatterns\":\"x\",\"budgetHealth\":\"y\"}\n```",
			check: func(t *testing.T, got core.Insights) {
				if got.UnusualPatterns != "x" {
					t.Errorf("unusualPatterns = %q", got.UnusualPatterns)
				}
				if got.TopCategories == nil || got.Trends == nil || got.Suggestions == nil {
					t.Errorf("nil slices not normalised: %+v", got)
				}
			},
		},
		{
			name:    "surrounding prose",
			content: "Sure! Here you go: {\"budgetHealth\":\"ok\"} Hope it helps.",
			check: func(t *testing.T, got core.Insights) {
				if got.BudgetHealth != "ok" {
					t.Errorf("budgetHealth = %q", got.BudgetHealth)
				}
			},
		},
		{name: "empty", content: "   ", wantErr: true},
		{name: "not json", content: "I cannot help with that", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInsights(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, got)
		})
	}
}

func TestParseInsights_EmptyIsErrEmptyResponse(t *testing.T) {
	if _, err := ParseInsights(""); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("got %v, want ErrEmptyResponse", err)
	}
}

type namedGenerator struct{ Generator }

func (namedGenerator) Provider() string { return "Gemini" }

func TestNotConfiguredMessage(t *testing.T) {
	want := "Gemini API key is not configured on the server."
	if got := NotConfiguredMessage(namedGenerator{}); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
