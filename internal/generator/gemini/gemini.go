// Package gemini implements the insights generator on Google's Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"spese-insights/internal/core"
	"spese-insights/internal/generator"
	"spese-insights/internal/log"

	"google.golang.org/genai"
)

const (
	ProviderName = "Gemini"
	DefaultModel = "gemini-1.5-flash"
)

// contentGenerator is the part of *genai.Models the generator calls.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Config struct {
	APIKey string
	Model  string
}

// Generator calls Gemini with a JSON response schema. The client is created
// on the first Generate so a missing key does not prevent startup.
type Generator struct {
	cfg    Config
	logger *log.Logger

	mu     sync.Mutex
	models contentGenerator
}

var _ generator.Generator = (*Generator)(nil)

func New(cfg Config, logger *log.Logger) *Generator {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	return &Generator{cfg: cfg, logger: logger.WithComponent(log.ComponentGenerator)}
}

func (g *Generator) Provider() string { return ProviderName }

func (g *Generator) Configured() bool { return g.cfg.APIKey != "" }

func (g *Generator) Generate(ctx context.Context, expenses []core.Expense) (core.Insights, error) {
	if !g.Configured() {
		return core.Insights{}, generator.ErrNotConfigured
	}
	models, err := g.client(ctx)
	if err != nil {
		return core.Insights{}, err
	}

	prompt, err := generator.BuildPrompt(expenses)
	if err != nil {
		return core.Insights{}, err
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: generator.SystemPrompt}},
		},
		Temperature:      genai.Ptr(float32(0.2)),
		ResponseMIMEType: "application/json",
		ResponseSchema:   insightsSchema,
	}

	g.logger.DebugContext(ctx, "Requesting insights",
		log.FieldProvider, ProviderName,
		log.FieldModel, g.cfg.Model,
		log.FieldExpenseCount, len(expenses))

	resp, err := models.GenerateContent(ctx, g.cfg.Model, genai.Text(prompt), config)
	if err != nil {
		return core.Insights{}, fmt.Errorf("gemini generate content: %w", err)
	}
	content := strings.TrimSpace(resp.Text())
	if content == "" {
		return core.Insights{}, generator.ErrEmptyResponse
	}
	return generator.ParseInsights(content)
}

func (g *Generator) client(ctx context.Context) (contentGenerator, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.models != nil {
		return g.models, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	g.models = client.Models
	return g.models, nil
}

var insightsSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"topCategories": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"category":   {Type: genai.TypeString},
					"amount":     {Type: genai.TypeNumber},
					"percentage": {Type: genai.TypeNumber},
				},
				Required: []string{"category", "amount", "percentage"},
			},
		},
		"trends": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"description": {Type: genai.TypeString},
					"direction":   {Type: genai.TypeString, Enum: []string{"up", "down", "stable"}},
				},
				Required: []string{"description"},
			},
		},
		"unusualPatterns": {Type: genai.TypeString},
		"suggestions": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
		"budgetHealth": {Type: genai.TypeString},
	},
	Required: []string{"topCategories", "trends", "unusualPatterns", "suggestions", "budgetHealth"},
}
