package backend

import (
	"fmt"

	"spese-insights/internal/config"
	"spese-insights/internal/generator"
	"spese-insights/internal/generator/anthropic"
	"spese-insights/internal/generator/gemini"
	"spese-insights/internal/log"
)

// NewGenerator returns the insights generator selected by INSIGHTS_PROVIDER.
// A missing API key is not an error here; it is reported per request.
func NewGenerator(cfg *config.Config, logger *log.Logger) (generator.Generator, error) {
	var gen generator.Generator
	switch cfg.InsightsProvider {
	case "", "gemini":
		gen = gemini.New(gemini.Config{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel}, logger)
	case "anthropic":
		gen = anthropic.New(anthropic.Config{APIKey: cfg.AnthropicAPIKey, Model: cfg.AnthropicModel}, logger)
	default:
		return nil, fmt.Errorf("unsupported insights provider: %s", cfg.InsightsProvider)
	}

	if !gen.Configured() {
		logger.WithComponent(log.ComponentBackend).Warn("Insights generator has no API key; requests with data will fail",
			log.FieldProvider, gen.Provider())
	}
	return gen, nil
}
