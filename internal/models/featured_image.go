package models

import (
	"time"

	"github.com/google/uuid"
)

// ImageStatus is the lifecycle state of a featured image.
type ImageStatus string

const (
	ImagePending   ImageStatus = "pending"
	ImageSearching ImageStatus = "searching"
	ImageFound     ImageStatus = "found"
	ImageFailed    ImageStatus = "failed"
	ImageUploaded  ImageStatus = "uploaded"
)

// FeaturedImage is the one-per-article image entity. Its URL is set only
// while it is found or uploaded; a found URL is an ephemeral provider URL,
// an uploaded URL is the permanent target-hosted one. Callers mutate it
// only through the transition methods below.
type FeaturedImage struct {
	ID           string      `json:"id"`
	ArticleID    string      `json:"article_id"`
	AIPrompt     string      `json:"ai_prompt,omitempty"`
	SearchQuery  string      `json:"search_query,omitempty"`
	Filename     string      `json:"filename,omitempty"`
	AltText      string      `json:"alt_text,omitempty"`
	Url          string      `json:"url,omitempty"`
	MediaID      int64       `json:"media_id,omitempty"`
	Status       ImageStatus `json:"status"`
	ErrorMessage string      `json:"error_message,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// NewFeaturedImage creates a pending image for the given article.
func NewFeaturedImage(articleID string) *FeaturedImage {
	now := time.Now().UTC()
	return &FeaturedImage{
		ID:        uuid.NewString(),
		ArticleID: articleID,
		Status:    ImagePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// StartSearch records the query or prompt being tried and moves the image
// to searching.
func (f *FeaturedImage) StartSearch(query, prompt string) error {
	if f.Status != ImagePending && f.Status != ImageSearching {
		return &ImageStateError{From: f.Status, To: ImageSearching}
	}
	f.SearchQuery = query
	f.AIPrompt = prompt
	f.Status = ImageSearching
	f.touch()
	return nil
}

// MarkFound records the ephemeral provider URL of a located image.
func (f *FeaturedImage) MarkFound(url, altText string) error {
	if f.Status != ImageSearching {
		return &ImageStateError{From: f.Status, To: ImageFound}
	}
	f.Url = url
	f.AltText = altText
	f.Status = ImageFound
	f.touch()
	return nil
}

// MarkUploaded replaces the ephemeral URL with the permanent target-hosted
// reference. Only a successful media upload may call this.
func (f *FeaturedImage) MarkUploaded(mediaID int64, url, filename string) error {
	if f.Status != ImageFound {
		return &ImageStateError{From: f.Status, To: ImageUploaded}
	}
	f.MediaID = mediaID
	f.Url = url
	f.Filename = filename
	f.Status = ImageUploaded
	f.touch()
	return nil
}

// MarkFailed is terminal and keeps the error message for operators.
func (f *FeaturedImage) MarkFailed(msg string) error {
	if f.Status == ImageUploaded || f.Status == ImageFailed {
		return &ImageStateError{From: f.Status, To: ImageFailed}
	}
	f.Url = ""
	f.ErrorMessage = msg
	f.Status = ImageFailed
	f.touch()
	return nil
}

func (f *FeaturedImage) touch() {
	f.UpdatedAt = time.Now().UTC()
}
