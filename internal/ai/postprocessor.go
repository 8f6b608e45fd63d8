package ai

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yazgan/pressgen/internal/models"
)

type PostProcessor struct {
	maxTitleLength       int
	maxDescriptionLength int
	minContentLength     int

	controlRe *regexp.Regexp
	scriptRe  *regexp.Regexp
}

func NewPostProcessor() *PostProcessor {
	return &PostProcessor{
		maxTitleLength:       60,
		maxDescriptionLength: 160,
		minContentLength:     50,
		controlRe:            regexp.MustCompile(`[\x00-\x1F\x7F]`),
		scriptRe:             regexp.MustCompile(`<script[^>]*>[\s\S]*?<\/script>`),
	}
}

// Process validates and cleans an extracted payload in place.
func (p *PostProcessor) Process(payload *models.ArticlePayload) error {
	if payload.Title == "" {
		return fmt.Errorf("missing required field: title")
	}
	if len(payload.Content) < p.minContentLength {
		return fmt.Errorf("content too short, minimum %d characters required", p.minContentLength)
	}

	payload.Title = p.cleanText(payload.Title)
	payload.MetaDescription = p.cleanText(payload.MetaDescription)
	payload.Content = p.cleanHTML(payload.Content)

	if len(payload.Title) > p.maxTitleLength {
		payload.Title = payload.Title[:p.maxTitleLength-3] + "..."
	}
	if len(payload.MetaDescription) > p.maxDescriptionLength {
		payload.MetaDescription = payload.MetaDescription[:p.maxDescriptionLength-3] + "..."
	}

	if payload.Category == "" {
		payload.Category = "General"
	}
	if len(payload.Tags) == 0 {
		payload.Tags = []string{"news", strings.ToLower(payload.Category)}
	}

	return nil
}

// cleanText removes unwanted characters and normalizes whitespace
func (p *PostProcessor) cleanText(s string) string {
	s = p.controlRe.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// cleanHTML strips script blocks and other dangerous tags from the
// generated article body.
func (p *PostProcessor) cleanHTML(content string) string {
	content = p.scriptRe.ReplaceAllString(content, "")

	dangerousTags := []string{"<script", "<iframe", "<object", "<embed", "<link", "<meta"}
	for _, tag := range dangerousTags {
		re := regexp.MustCompile(fmt.Sprintf(`%s[^>]*>`, tag))
		content = re.ReplaceAllString(content, "")
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.TrimSpace(content)
}
