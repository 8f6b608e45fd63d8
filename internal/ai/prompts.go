package ai

import (
	"fmt"
	"strings"

	"github.com/yazgan/pressgen/internal/models"
)

// CustomPrompts are per-request instruction overrides merged into the
// combined instruction block. Empty fields fall back to the defaults.
type CustomPrompts struct {
	Title   string
	Content string
	SEO     string
	Image   string
}

const taskFraming = `You are an expert journalist and SEO writer.
Turn the source material below into a publish-ready article.`

const defaultTitleInstruction = `Write a catchy, factual title (under 60 characters).`

const defaultContentInstruction = `Write the full article as clean HTML using <p>, <h2>, and <ul> tags.
Keep the facts of the source; do not invent details.`

const defaultSEOInstruction = `Provide a meta description (1-2 sentences, under 160 characters)
and 5-7 relevant tags.`

const defaultImageInstruction = `Describe one featured image for the article as a short visual prompt.`

const responseFormat = `Respond with a single valid JSON object and nothing else:
{
  "title": "...",
  "content": "...",
  "meta_description": "...",
  "tags": ["..."],
  "image_prompt": "...",
  "category": "..."
}`

// BuildArticlePrompt concatenates the title/content/SEO/image
// sub-instructions with the fixed task framing into one instruction block
// for a single provider call.
func BuildArticlePrompt(item models.FeedItem, custom CustomPrompts) string {
	var b strings.Builder
	b.WriteString(taskFraming)
	b.WriteString("\n\n")

	b.WriteString("Title instructions: ")
	b.WriteString(orDefault(custom.Title, defaultTitleInstruction))
	b.WriteString("\n\nContent instructions: ")
	b.WriteString(orDefault(custom.Content, defaultContentInstruction))
	b.WriteString("\n\nSEO instructions: ")
	b.WriteString(orDefault(custom.SEO, defaultSEOInstruction))
	b.WriteString("\n\nImage instructions: ")
	b.WriteString(orDefault(custom.Image, defaultImageInstruction))

	b.WriteString("\n\n")
	b.WriteString(responseFormat)

	b.WriteString("\n\nSource material:\n")
	fmt.Fprintf(&b, "Title: %s\n\n", escapeForPrompt(item.Title))
	fmt.Fprintf(&b, "Content: %s\n\n", escapeForPrompt(item.Content))
	if item.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", escapeForPrompt(item.Category))
	}

	return b.String()
}

func orDefault(custom, fallback string) string {
	if strings.TrimSpace(custom) != "" {
		return strings.TrimSpace(custom)
	}
	return fallback
}

// escapeForPrompt flattens whitespace so source text cannot break the
// instruction structure.
func escapeForPrompt(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.TrimSpace(s)
}
