package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	appcatalog "github.com/dropflow/backend/internal/application/catalog"
	"github.com/dropflow/backend/internal/domain/catalog"
)

const (
	// maxContentResponseSize limits the response body size
	maxContentResponseSize = 1 * 1024 * 1024 // 1MB max response

	defaultModel = "gpt-4o-mini"
)

// Config holds settings for the OpenAI-compatible copy generator
type Config struct {
	APIKey  string
	BaseURL string // e.g. https://api.openai.com/v1
	Model   string
	Timeout time.Duration
}

// Validate validates the content generator configuration
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("content: api key is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("content: base url is required")
	}
	return nil
}

// OpenAIGenerator produces marketing copy through any OpenAI-compatible
// chat completions endpoint.
type OpenAIGenerator struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOpenAIGenerator creates a new generator
func NewOpenAIGenerator(config *Config, logger *zap.Logger) (*OpenAIGenerator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &OpenAIGenerator{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// generatedCopy is the JSON shape the model is asked to produce
type generatedCopy struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Generate implements the content generator port
func (g *OpenAIGenerator) Generate(ctx context.Context, product catalog.Product) (appcatalog.Copy, error) {
	model := g.config.Model
	if model == "" {
		model = defaultModel
	}

	prompt := fmt.Sprintf(
		"Write conversion-focused storefront copy for this product.\n"+
			"Product: %s\nNiche: %s\nPrice: $%s\n"+
			"Respond with JSON only: {\"title\": \"...\", \"description\": \"...\"}. "+
			"Title under 70 characters, description 2-3 sentences, no emoji.",
		product.Name, product.Niche, product.ResalePrice.StringFixed(2))

	reqBody, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: "You write concise, truthful e-commerce product copy."},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   300,
	})
	if err != nil {
		return appcatalog.Copy{}, fmt.Errorf("content: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimSuffix(g.config.BaseURL, "/")+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return appcatalog.Copy{}, fmt.Errorf("content: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.config.APIKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return appcatalog.Copy{}, fmt.Errorf("content: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxContentResponseSize))
	if err != nil {
		return appcatalog.Copy{}, fmt.Errorf("content: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return appcatalog.Copy{}, fmt.Errorf("content: HTTP %d from completions endpoint", resp.StatusCode)
	}

	var chat chatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return appcatalog.Copy{}, fmt.Errorf("content: failed to decode response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return appcatalog.Copy{}, fmt.Errorf("content: empty completion")
	}

	copy, err := parseGeneratedCopy(chat.Choices[0].Message.Content)
	if err != nil {
		return appcatalog.Copy{}, err
	}

	g.logger.Debug("Generated product copy",
		zap.String("sku", product.SKU),
		zap.String("title", copy.Title))
	return copy, nil
}

// parseGeneratedCopy extracts the JSON object from a completion, tolerating
// models that wrap it in markdown fences or prose.
func parseGeneratedCopy(content string) (appcatalog.Copy, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return appcatalog.Copy{}, fmt.Errorf("content: completion contains no JSON object")
	}

	var parsed generatedCopy
	if err := json.Unmarshal([]byte(content[start:end+1]), &parsed); err != nil {
		return appcatalog.Copy{}, fmt.Errorf("content: failed to parse completion JSON: %w", err)
	}
	if parsed.Title == "" && parsed.Description == "" {
		return appcatalog.Copy{}, fmt.Errorf("content: completion JSON is empty")
	}
	return appcatalog.Copy{Title: parsed.Title, Description: parsed.Description}, nil
}

var _ appcatalog.ContentGenerator = (*OpenAIGenerator)(nil)
