package anthropic

import (
	"context"
	"errors"
	"testing"

	"spese-insights/internal/core"
	"spese-insights/internal/generator"
	"spese-insights/internal/log"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type fakeMessages struct {
	blocks []anthropic.ContentBlockUnion
	err    error
	params anthropic.MessageNewParams
}

func (f *fakeMessages) New(_ context.Context, body anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	f.params = body
	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.Message{Content: f.blocks}, nil
}

var expenses = []core.Expense{
	{ID: "1", OwnerID: "u1", Date: core.NewDate(2025, 5, 1), Description: "Coffee", Amount: core.Money{Cents: 350}, Category: "Food"},
}

func TestGenerate(t *testing.T) {
	fake := &fakeMessages{blocks: []anthropic.ContentBlockUnion{
		{Type: "text", Text: "```json\n{\"suggestions\":[\"Brew at home\"],"},
		{Type: "text", Text: "\"budgetHealth\":\"Healthy.\"}\n```"},
	}}
	g := New(Config{APIKey: "key"}, log.New(log.DefaultConfig()))
	g.messages = fake

	got, err := g.Generate(context.Background(), expenses)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(fake.params.Model) != DefaultModel {
		t.Errorf("model = %q", fake.params.Model)
	}
	if len(fake.params.System) != 1 || fake.params.System[0].Text != generator.SystemPrompt {
		t.Errorf("system prompt not set")
	}
	if got.BudgetHealth != "Healthy." || len(got.Suggestions) != 1 {
		t.Errorf("insights = %+v", got)
	}
	if got.TopCategories == nil || got.Trends == nil {
		t.Errorf("nil slices not normalised")
	}
}

func TestGenerate_Errors(t *testing.T) {
	g := New(Config{}, log.New(log.DefaultConfig()))
	if _, err := g.Generate(context.Background(), expenses); !errors.Is(err, generator.ErrNotConfigured) {
		t.Fatalf("unconfigured: got %v", err)
	}

	g = New(Config{APIKey: "key"}, log.New(log.DefaultConfig()))
	g.messages = &fakeMessages{err: errors.New("overloaded")}
	if _, err := g.Generate(context.Background(), expenses); err == nil {
		t.Fatal("expected api error")
	}

	g.messages = &fakeMessages{blocks: []anthropic.ContentBlockUnion{{Type: "tool_use"}}}
	if _, err := g.Generate(context.Background(), expenses); !errors.Is(err, generator.ErrEmptyResponse) {
		t.Fatalf("no text blocks: got %v", err)
	}
}
