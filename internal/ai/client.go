package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yazgan/pressgen/internal/models"
)

// Provider is the generation provider call: one freeform instruction in,
// freeform text out. No schema is enforced by the provider; the extractor
// deals with whatever comes back.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client calls the Gemini generateContent endpoint over REST.
type Client struct {
	client      *resty.Client
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ClientOption tweaks the provider client.
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint, used by tests.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) { c.baseURL = url }
}

// WithGenerationParams sets temperature and max output tokens.
func WithGenerationParams(temperature float64, maxTokens int) ClientOption {
	return func(c *Client) {
		c.temperature = temperature
		c.maxTokens = maxTokens
	}
}

// WithTimeout bounds the provider call.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.client.SetTimeout(d) }
}

// NewClient creates a provider client for the given model.
func NewClient(apiKey, model string, opts ...ClientOption) *Client {
	c := &Client{
		client:      resty.New().SetTimeout(60 * time.Second),
		apiKey:      apiKey,
		model:       model,
		baseURL:     "https://generativelanguage.googleapis.com/v1beta/models",
		temperature: 0.7,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate sends one instruction block and returns the raw response text.
// Failures come back as typed pipeline errors with a stable code.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			Temperature:     c.temperature,
			MaxOutputTokens: c.maxTokens,
		},
	}

	var resp generateResponse
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&resp).
		SetError(&resp).
		Post(url)

	if err != nil {
		return "", models.NewPipelineError(models.CodeNetworkError, "provider request failed", true, err)
	}

	switch {
	case httpResp.StatusCode() == http.StatusUnauthorized || httpResp.StatusCode() == http.StatusForbidden:
		return "", models.NewPipelineError(models.CodeAuthFailed, "provider rejected credentials", false, nil)
	case httpResp.StatusCode() == http.StatusTooManyRequests:
		return "", models.NewPipelineError(models.CodeRateLimited, "provider rate limit hit", true, nil)
	case httpResp.StatusCode() >= 500:
		return "", models.NewPipelineError(models.CodePlatformError,
			fmt.Sprintf("provider returned status %d", httpResp.StatusCode()), true, nil)
	}

	if resp.Error != nil {
		return "", models.NewPipelineError(models.CodePlatformError, resp.Error.Message, false, nil)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", models.NewPipelineError(models.CodeEmptyResponse, "no content in provider response", true, nil)
	}

	return resp.Candidates[0].Content.Parts[0].Text, nil
}
