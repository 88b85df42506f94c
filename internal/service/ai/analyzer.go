// Package ai implements the request analyzer on top of the Gemini
// generateContent REST API.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"autohub/internal/config"
	models "autohub/internal/domain/models/workrequest"
	"autohub/internal/domain/services"
)

const analysisPromptFormat = `Analyze this automation request targeting tool version %s:

TITLE: %s
DESCRIPTION: %s
PRIORITY: %s

Provide JSON with: complexityScore (1-10), suggestedNamespaces (array), implementationStrategy (string), pseudoCode (string)`

// GeminiAnalyzer produces implementation analyses for work requests. It is
// disabled unless analysis is switched on and an API key is configured.
type GeminiAnalyzer struct {
	client  *GeminiClient
	enabled bool
	logger  *slog.Logger
}

// NewGeminiAnalyzer creates the analyzer from configuration.
func NewGeminiAnalyzer(cfg *config.Config, logger *slog.Logger) services.RequestAnalyzer {
	enabled := cfg.EnableAIAnalysis && cfg.GeminiAPIKey != ""

	var client *GeminiClient
	if enabled {
		client = NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel)
	}

	return &GeminiAnalyzer{
		client:  client,
		enabled: enabled,
		logger:  logger,
	}
}

// NewGeminiAnalyzerWithClient creates an enabled analyzer around an existing
// client.
func NewGeminiAnalyzerWithClient(client *GeminiClient, logger *slog.Logger) services.RequestAnalyzer {
	return &GeminiAnalyzer{
		client:  client,
		enabled: true,
		logger:  logger,
	}
}

// Enabled reports whether analysis is configured and switched on
func (a *GeminiAnalyzer) Enabled() bool {
	return a.enabled
}

// Analyze builds the analysis prompt from the request and its image
// attachments and returns the model's JSON verdict.
func (a *GeminiAnalyzer) Analyze(ctx context.Context, req *models.Request) (string, error) {
	parts := []geminiPart{{Text: buildPrompt(req)}}

	for i := range req.Attachments {
		att := &req.Attachments[i]
		if !strings.HasPrefix(att.MimeType, "image/") {
			continue
		}
		parts = append(parts, geminiPart{
			InlineData: &geminiInlineData{
				MimeType: att.MimeType,
				Data:     stripDataURL(att.Data),
			},
		})
	}

	raw, err := a.client.Generate(ctx, parts)
	if err != nil {
		return "", err
	}

	verdict := stripFences(raw)
	if !json.Valid([]byte(verdict)) {
		return "", fmt.Errorf("model returned invalid JSON")
	}

	return verdict, nil
}

// buildPrompt renders the analysis prompt for a request
func buildPrompt(req *models.Request) string {
	toolVersion := "unspecified"
	if req.ToolVersion != nil && *req.ToolVersion != "" {
		toolVersion = *req.ToolVersion
	}
	return fmt.Sprintf(analysisPromptFormat, toolVersion, req.Title, req.Description, req.Priority)
}

// stripFences removes a markdown code fence wrapping the model's reply
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = text[len("```json"):]
	} else if strings.HasPrefix(text, "```") {
		text = text[len("```"):]
	}
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// stripDataURL extracts the base64 payload from a data URL. Inline media
// must be bare base64; stored attachment data may carry the URL wrapper.
func stripDataURL(data string) string {
	if strings.HasPrefix(data, "data:") {
		if i := strings.Index(data, ","); i >= 0 {
			return data[i+1:]
		}
	}
	return data
}
