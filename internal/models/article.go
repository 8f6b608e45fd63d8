package models

import "time"

// ExtractionStrategy names the parsing strategy that recovered an
// ArticlePayload from the raw provider response.
type ExtractionStrategy string

const (
	StrategyDirect      ExtractionStrategy = "direct"
	StrategyFencedBlock ExtractionStrategy = "fenced_block"
	StrategyBraceScan   ExtractionStrategy = "brace_scan"
	StrategyQuotedJSON  ExtractionStrategy = "quoted_json"
	StrategyLineScan    ExtractionStrategy = "line_scan"
	StrategyHeuristic   ExtractionStrategy = "heuristic"
)

// SEOSource records where the meta description and tags came from.
// "regex" means the lenient label-scan fallback and should be treated
// as low confidence.
type SEOSource string

const (
	SEOSourceStructured SEOSource = "structured"
	SEOSourceRegex      SEOSource = "regex"
	SEOSourceNone       SEOSource = "none"
)

// ArticlePayload is the typed result of one generation call. It has no
// identity of its own; it belongs to the call that produced it until it
// is handed to a Publication or persisted as an article.
type ArticlePayload struct {
	Title           string             `json:"title"`
	Content         string             `json:"content"`
	MetaDescription string             `json:"meta_description,omitempty"`
	Tags            []string           `json:"tags,omitempty"`
	ImagePrompt     string             `json:"image_prompt,omitempty"`
	Category        string             `json:"category,omitempty"`
	RawResponse     string             `json:"-"`
	Strategy        ExtractionStrategy `json:"strategy,omitempty"`
	SEOSource       SEOSource          `json:"seo_source,omitempty"`
}

// Article is a generated article persisted alongside its publications.
type Article struct {
	ID          string         `json:"id"`
	SourceGuid  string         `json:"source_guid"`
	Payload     ArticlePayload `json:"payload"`
	SourceUrl   string         `json:"source_url"`
	ImageID     string         `json:"image_id,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at,omitempty"`
	PublishedAt time.Time      `json:"published_at,omitempty"`
}
