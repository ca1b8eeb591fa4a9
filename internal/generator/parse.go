package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"spese-insights/internal/core"
)

// ParseInsights decodes a model reply into insights. Markdown code fences and
// text around the outermost JSON object are ignored.
func ParseInsights(content string) (core.Insights, error) {
	cleaned := cleanupModelJSON(content)
	if cleaned == "" {
		return core.Insights{}, ErrEmptyResponse
	}
	var out core.Insights
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return core.Insights{}, fmt.Errorf("model returned invalid JSON: %w", err)
	}
	return out.Normalize(), nil
}

func cleanupModelJSON(content string) string {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		lines := strings.Split(trimmed, "\n")
		if len(lines) >= 2 {
			lines = lines[1:]
			if strings.TrimSpace(lines[len(lines)-1]) == "```" {
				lines = lines[:len(lines)-1]
			}
			trimmed = strings.Join(lines, "\n")
		}
	}
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		trimmed = trimmed[start : end+1]
	}
	return strings.TrimSpace(trimmed)
}
