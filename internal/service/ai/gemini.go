package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultGeminiBaseURL is the generateContent REST endpoint root
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	// DefaultGeminiTimeout is the default HTTP timeout for analysis calls
	DefaultGeminiTimeout = 60 * time.Second
)

// GeminiClient calls the Gemini generateContent REST API.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGeminiClient creates a client for the given model.
func NewGeminiClient(apiKey, model string) *GeminiClient {
	return &GeminiClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: DefaultGeminiBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultGeminiTimeout,
		},
	}
}

// NewGeminiClientWithConfig creates a client with custom configuration.
func NewGeminiClientWithConfig(apiKey, model, baseURL string, timeout time.Duration) *GeminiClient {
	return &GeminiClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Generate sends one multi-part prompt and returns the model's text reply.
func (c *GeminiClient) Generate(ctx context.Context, parts []geminiPart) (string, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{Parts: parts}},
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payloadBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }() // Error ignored: response consumed

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(geminiResp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from model")
	}

	var sb strings.Builder
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}

	return sb.String(), nil
}

// geminiRequest is the generateContent request body
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

// geminiContent groups the parts of one prompt turn
type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

// geminiPart is either prompt text or inline base64 media
type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

// geminiInlineData carries an inline media payload
type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// geminiResponse is the subset of the generateContent reply we read
type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

// geminiCandidate is one generated reply
type geminiCandidate struct {
	Content geminiContent `json:"content"`
}
