package image

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yazgan/pressgen/internal/models"
	"github.com/yazgan/pressgen/internal/utils"
)

// DefaultDownloadTimeout is the fixed ceiling for fetching an image into
// memory. Provider URLs expire, so a hung download must be cut off, not
// waited out.
const DefaultDownloadTimeout = 30 * time.Second

// File is an in-memory binary blob ready for upload.
type File struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Downloader fetches a chosen image into memory with a bounded timeout.
type Downloader struct {
	client  *resty.Client
	timeout time.Duration
}

// NewDownloader creates a downloader. A non-positive timeout falls back
// to the default ceiling.
func NewDownloader(timeout time.Duration) *Downloader {
	if timeout <= 0 {
		timeout = DefaultDownloadTimeout
	}
	return &Downloader{
		client:  resty.New(),
		timeout: timeout,
	}
}

// Download fetches the image at rawURL. Timeout and abort conditions are
// converted into a typed "download timed out" error instead of hanging or
// surfacing a transport error.
func (d *Downloader) Download(ctx context.Context, rawURL string) (*File, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	resp, err := d.client.R().
		SetContext(ctx).
		Get(rawURL)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, models.NewPipelineError(models.CodeDownloadTimeout,
				fmt.Sprintf("image download timed out after %v", d.timeout), true, err)
		}
		return nil, models.NewPipelineError(models.CodeNetworkError, "image download failed", true, err)
	}
	if resp.StatusCode() >= 400 {
		return nil, models.NewPipelineError(models.CodePlatformError,
			fmt.Sprintf("image host returned status %d", resp.StatusCode()), resp.StatusCode() >= 500, nil)
	}

	data := resp.Body()
	if len(data) == 0 {
		return nil, models.NewPipelineError(models.CodeEmptyResponse, "image download returned an empty body", true, nil)
	}

	contentType := resp.Header().Get("Content-Type")
	if contentType == "" || !strings.HasPrefix(contentType, "image/") {
		contentType = "image/jpeg"
	}

	return &File{
		Data:        data,
		Filename:    filenameFor(rawURL, contentType),
		ContentType: contentType,
	}, nil
}

// filenameFor derives a stable upload filename from the source URL.
func filenameFor(rawURL, contentType string) string {
	ext := ".jpg"
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		ext = exts[len(exts)-1]
	}
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "" && base != "/" && base != "." && strings.Contains(base, ".") {
			return base
		}
	}
	return utils.ShortHash(rawURL) + ext
}
