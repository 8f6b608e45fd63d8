// Package wordpress adapts the WordPress REST API: media upload and post
// publishing for a configured target site.
package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yazgan/pressgen/internal/image"
	"github.com/yazgan/pressgen/internal/models"
)

// Client talks to one WordPress site using application-password basic auth.
type Client struct {
	client *resty.Client
}

// NewClient creates a WordPress REST client.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		client: resty.New().SetTimeout(timeout),
	}
}

// UploadRequest is one media upload: the binary file plus its metadata.
type UploadRequest struct {
	File    *image.File
	Title   string
	AltText string
	Caption string
}

// MediaRef is the permanent target-hosted reference an upload returns. It
// replaces the ephemeral provider URL.
type MediaRef struct {
	ID        int64  `json:"id"`
	Url       string `json:"url"`
	MimeType  string `json:"mime_type"`
	MediaType string `json:"media_type"`
}

// PostRequest is the publish call payload.
type PostRequest struct {
	Title         string            `json:"title"`
	Content       string            `json:"content"`
	Status        string            `json:"status"`
	Excerpt       string            `json:"excerpt,omitempty"`
	Categories    []int             `json:"categories,omitempty"`
	Tags          []int             `json:"tags,omitempty"`
	Meta          map[string]string `json:"meta,omitempty"`
	FeaturedMedia int64             `json:"featured_media,omitempty"`
}

// PostRef identifies the created post on the target.
type PostRef struct {
	ID   int64  `json:"id"`
	Link string `json:"link"`
}

type mediaResponse struct {
	ID        int64  `json:"id"`
	SourceUrl string `json:"source_url"`
	MimeType  string `json:"mime_type"`
	MediaType string `json:"media_type"`
}

type postResponse struct {
	ID   int64  `json:"id"`
	Link string `json:"link"`
}

type wpErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NormalizeBaseURL tolerates a site URL supplied with or without a scheme
// and with or without a trailing slash.
func NormalizeBaseURL(siteUrl string) string {
	s := strings.TrimSpace(siteUrl)
	if s == "" {
		return s
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "https://" + s
	}
	return strings.TrimRight(s, "/")
}

func restURL(target models.Target, path string) string {
	return NormalizeBaseURL(target.SiteUrl) + "/wp-json/wp/v2" + path
}

// UploadMedia pushes a binary file to the target and returns its
// permanent media reference. This is the only path that turns an
// ephemeral provider URL into a durable one.
func (c *Client) UploadMedia(ctx context.Context, target models.Target, req UploadRequest) (*MediaRef, error) {
	if req.File == nil || len(req.File.Data) == 0 {
		return nil, models.NewPipelineError(models.CodeEmptyResponse, "no file data to upload", false, nil)
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBasicAuth(target.Username, target.AppPassword).
		SetFileReader("file", req.File.Filename, strings.NewReader(string(req.File.Data))).
		SetFormData(uploadFormData(req)).
		Post(restURL(target, "/media"))

	if err != nil {
		return nil, models.NewPipelineError(models.CodeNetworkError, "media upload request failed", true, err)
	}
	if pe := classifyResponse(resp, "media upload"); pe != nil {
		return nil, pe
	}

	var media mediaResponse
	if err := json.Unmarshal(resp.Body(), &media); err != nil {
		return nil, malformedBody(resp, "media upload", err)
	}
	if media.ID == 0 || media.SourceUrl == "" {
		return nil, models.NewPipelineError(models.CodeMalformedResponse,
			"media upload response is missing id or source_url", false, nil)
	}

	return &MediaRef{
		ID:        media.ID,
		Url:       media.SourceUrl,
		MimeType:  media.MimeType,
		MediaType: media.MediaType,
	}, nil
}

func uploadFormData(req UploadRequest) map[string]string {
	form := map[string]string{}
	if req.Title != "" {
		form["title"] = req.Title
	}
	if req.AltText != "" {
		form["alt_text"] = req.AltText
	}
	if req.Caption != "" {
		form["caption"] = req.Caption
	}
	return form
}

// PublishPost creates a post on the target and returns its external
// reference for Publication.Complete.
func (c *Client) PublishPost(ctx context.Context, target models.Target, post PostRequest) (*PostRef, error) {
	if post.Status == "" {
		post.Status = target.Status
	}
	if post.Status == "" {
		post.Status = "draft"
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBasicAuth(target.Username, target.AppPassword).
		SetHeader("Content-Type", "application/json").
		SetBody(post).
		Post(restURL(target, "/posts"))

	if err != nil {
		return nil, models.NewPipelineError(models.CodeNetworkError, "publish request failed", true, err)
	}
	if pe := classifyResponse(resp, "publish"); pe != nil {
		return nil, pe
	}

	var created postResponse
	if err := json.Unmarshal(resp.Body(), &created); err != nil {
		return nil, malformedBody(resp, "publish", err)
	}
	if created.ID == 0 {
		return nil, models.NewPipelineError(models.CodeMalformedResponse,
			"publish response is missing the post id", false, nil)
	}

	return &PostRef{ID: created.ID, Link: created.Link}, nil
}

// classifyResponse maps non-2xx responses to the upload failure taxonomy:
// auth failure, retryable platform error, or malformed response when the
// body is HTML instead of JSON (a misconfigured endpoint, not a parse bug).
func classifyResponse(resp *resty.Response, op string) *models.PipelineError {
	code := resp.StatusCode()
	if code >= 200 && code < 300 {
		return nil
	}

	if looksLikeHTML(resp) {
		return models.NewPipelineError(models.CodeMalformedResponse,
			fmt.Sprintf("%s returned HTML (status %d) instead of JSON; check the site URL and REST API availability", op, code),
			false, nil)
	}

	var body wpErrorBody
	message := fmt.Sprintf("%s returned status %d", op, code)
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Message != "" {
		message = fmt.Sprintf("%s failed: %s (%s)", op, body.Message, body.Code)
	}

	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return models.NewPipelineError(models.CodeAuthFailed, message, false, nil)
	case code == http.StatusTooManyRequests:
		return models.NewPipelineError(models.CodeRateLimited, message, true, nil)
	case code >= 500:
		return models.NewPipelineError(models.CodePlatformError, message, true, nil)
	default:
		return models.NewPipelineError(models.CodePlatformError, message, false, nil)
	}
}

func malformedBody(resp *resty.Response, op string, cause error) *models.PipelineError {
	if looksLikeHTML(resp) {
		return models.NewPipelineError(models.CodeMalformedResponse,
			fmt.Sprintf("%s returned HTML instead of JSON; check the site URL and REST API availability", op),
			false, cause)
	}
	return models.NewPipelineError(models.CodeMalformedResponse,
		fmt.Sprintf("%s returned an unparseable body", op), false, cause)
}

func looksLikeHTML(resp *resty.Response) bool {
	contentType := resp.Header().Get("Content-Type")
	if strings.Contains(contentType, "text/html") {
		return true
	}
	body := strings.TrimSpace(string(resp.Body()))
	return strings.HasPrefix(strings.ToLower(body), "<!doctype html") ||
		strings.HasPrefix(strings.ToLower(body), "<html")
}

// ExternalID renders the post id the way Publication stores it.
func (r *PostRef) ExternalID() string {
	return strconv.FormatInt(r.ID, 10)
}
