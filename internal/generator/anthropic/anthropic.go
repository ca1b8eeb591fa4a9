// Package anthropic implements the insights generator on Anthropic's Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"spese-insights/internal/core"
	"spese-insights/internal/generator"
	"spese-insights/internal/log"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	ProviderName     = "Anthropic"
	DefaultModel     = "claude-3-5-haiku-latest"
	defaultMaxTokens = 2048
)

// messageCreator is the part of anthropic.MessageService the generator calls.
type messageCreator interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type Config struct {
	APIKey string
	Model  string
}

// Generator asks Claude for the insights JSON. The client is created lazily.
type Generator struct {
	cfg    Config
	logger *log.Logger

	mu       sync.Mutex
	messages messageCreator
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
	prompt, err := generator.BuildPrompt(expenses)
	if err != nil {
		return core.Insights{}, err
	}

	g.logger.DebugContext(ctx, "Requesting insights",
		log.FieldProvider, ProviderName,
		log.FieldModel, g.cfg.Model,
		log.FieldExpenseCount, len(expenses))

	msg, err := g.client().New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.cfg.Model),
		MaxTokens: defaultMaxTokens,
		System:    []anthropic.TextBlockParam{{Text: generator.SystemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return core.Insights{}, fmt.Errorf("anthropic create message: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	content := strings.TrimSpace(sb.String())
	if content == "" {
		return core.Insights{}, generator.ErrEmptyResponse
	}
	return generator.ParseInsights(content)
}

func (g *Generator) client() messageCreator {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.messages == nil {
		client := anthropic.NewClient(option.WithAPIKey(g.cfg.APIKey))
		g.messages = &client.Messages
	}
	return g.messages
}
