package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rjgems/backend/internal/domain"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiClient generates text with Google's Gemini API
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiClient creates a Gemini-backed generator. baseURL is optional and
// only needed to point at a proxy or a test server.
func NewGeminiClient(ctx context.Context, apiKey, model, baseURL string, timeout time.Duration) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: Gemini API key is required", domain.ErrConfig)
	}
	if model == "" {
		model = defaultGeminiModel
	}

	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("%w: creating Gemini client: %v", domain.ErrConfig, err)
	}

	return &GeminiClient{client: client, model: model, timeout: timeout}, nil
}

// Generate sends prompt as a single user turn and returns the first
// candidate's text parts joined together.
func (c *GeminiClient) Generate(ctx context.Context, prompt string, opts domain.GenerationOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), c.generateConfig(opts))
	if err != nil {
		return "", fmt.Errorf("%w: gemini: %v", domain.ErrGateway, err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: gemini: response has no candidates", domain.ErrGateway)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: gemini: candidate has no text", domain.ErrGateway)
	}
	return text, nil
}

func (c *GeminiClient) generateConfig(opts domain.GenerationOptions) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		SafetySettings: safetySettings(),
	}
	if opts.Temperature > 0 {
		cfg.Temperature = genai.Ptr(opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = opts.MaxTokens
	}
	return cfg
}

func safetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, category := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  category,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		})
	}
	return settings
}
