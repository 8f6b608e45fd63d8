package image

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yazgan/pressgen/internal/models"
)

// PexelsProvider searches the Pexels free-image API.
type PexelsProvider struct {
	client *resty.Client
	apiKey string
	base   string
}

type pexelsResponse struct {
	Photos []struct {
		Width  int    `json:"width"`
		Height int    `json:"height"`
		Alt    string `json:"alt"`
		Src    struct {
			Large string `json:"large"`
		} `json:"src"`
	} `json:"photos"`
}

// NewPexelsProvider creates the search stage client.
func NewPexelsProvider(apiKey string) *PexelsProvider {
	return &PexelsProvider{
		client: resty.New().SetTimeout(15 * time.Second),
		apiKey: apiKey,
		base:   "https://api.pexels.com/v1",
	}
}

// SetBaseURL overrides the endpoint, used by tests.
func (p *PexelsProvider) SetBaseURL(url string) { p.base = url }

// Search returns the best match for the query, or an error when nothing
// usable came back.
func (p *PexelsProvider) Search(ctx context.Context, query string) (*GeneratedImage, error) {
	var result pexelsResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Authorization", p.apiKey).
		SetQueryParams(map[string]string{"query": query, "per_page": "1"}).
		SetResult(&result).
		Get(p.base + "/search")

	if err != nil {
		return nil, models.NewPipelineError(models.CodeNetworkError, "image search request failed", true, err)
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return nil, models.NewPipelineError(models.CodeAuthFailed, "image search rejected credentials", false, nil)
	}
	if resp.StatusCode() >= 400 {
		return nil, models.NewPipelineError(models.CodePlatformError,
			fmt.Sprintf("image search returned status %d", resp.StatusCode()), resp.StatusCode() >= 500, nil)
	}
	if len(result.Photos) == 0 {
		return nil, models.NewPipelineError(models.CodeEmptyResponse, "no image found for query", false, nil)
	}

	photo := result.Photos[0]
	return &GeneratedImage{
		Url:     photo.Src.Large,
		Width:   photo.Width,
		Height:  photo.Height,
		AltText: photo.Alt,
	}, nil
}

// DallEProvider generates images through the OpenAI images endpoint. The
// returned URL is explicitly time-limited by the provider and must be
// re-hosted before it can be treated as durable.
type DallEProvider struct {
	client *resty.Client
	apiKey string
	model  string
	base   string
}

type dalleResponse struct {
	Data []struct {
		Url string `json:"url"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewDallEProvider creates the generation stage client.
func NewDallEProvider(apiKey, model string) *DallEProvider {
	return &DallEProvider{
		client: resty.New().SetTimeout(120 * time.Second),
		apiKey: apiKey,
		model:  model,
		base:   "https://api.openai.com/v1",
	}
}

// SetBaseURL overrides the endpoint, used by tests.
func (p *DallEProvider) SetBaseURL(url string) { p.base = url }

// Generate creates one image for the prompt at the requested size.
func (p *DallEProvider) Generate(ctx context.Context, prompt, size string) (*GeneratedImage, error) {
	var result dalleResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(p.apiKey).
		SetBody(map[string]any{
			"model":  p.model,
			"prompt": prompt,
			"n":      1,
			"size":   size,
		}).
		SetResult(&result).
		SetError(&result).
		Post(p.base + "/images/generations")

	if err != nil {
		return nil, models.NewPipelineError(models.CodeNetworkError, "image generation request failed", true, err)
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return nil, models.NewPipelineError(models.CodeAuthFailed, "image generation rejected credentials", false, nil)
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		return nil, models.NewPipelineError(models.CodeRateLimited, "image generation rate limit hit", true, nil)
	}
	if resp.StatusCode() >= 400 {
		msg := fmt.Sprintf("image generation returned status %d", resp.StatusCode())
		if result.Error != nil {
			msg = result.Error.Message
		}
		return nil, models.NewPipelineError(models.CodePlatformError, msg, resp.StatusCode() >= 500, nil)
	}
	if len(result.Data) == 0 || result.Data[0].Url == "" {
		return nil, models.NewPipelineError(models.CodeEmptyResponse, "no image in generation response", true, nil)
	}

	width, height := parseSize(size)
	return &GeneratedImage{
		Url:     result.Data[0].Url,
		Width:   width,
		Height:  height,
		AltText: prompt,
	}, nil
}
