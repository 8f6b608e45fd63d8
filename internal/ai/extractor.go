package ai

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/yazgan/pressgen/internal/logger"
	"github.com/yazgan/pressgen/internal/models"
)

// PlaceholderTitle is used when no heuristic title candidate fits the
// length bounds, PlaceholderContent when the response carries no usable
// text at all. Both keep the never-empty guarantee of Extract.
const (
	PlaceholderTitle   = "Untitled Article"
	PlaceholderContent = "No content could be extracted from the response."
)

const (
	minTitleLen = 10
	maxTitleLen = 200
)

// Extractor recovers a typed ArticlePayload from raw model output. The
// provider enforces no schema, so the extractor works through a layered
// set of parsing strategies and degrades to heuristic text extraction
// rather than failing. Extract never returns an error.
type Extractor struct {
	fencedRe   *regexp.Regexp
	metaDescRe *regexp.Regexp
	tagsRe     *regexp.Regexp
}

// NewExtractor creates an extractor with its scan patterns compiled.
func NewExtractor() *Extractor {
	return &Extractor{
		fencedRe:   regexp.MustCompile("(?s)```(?:json|JSON)\\s*\\n?(.*?)```"),
		metaDescRe: regexp.MustCompile(`(?im)^\s*(?:\*\*)?meta\s*description(?:\*\*)?\s*[:\-]\s*(.+)$`),
		tagsRe:     regexp.MustCompile(`(?im)^\s*(?:\*\*)?tags(?:\*\*)?\s*[:\-]\s*(.+)$`),
	}
}

type candidate struct {
	strategy models.ExtractionStrategy
	text     string
}

// Extract returns a best-effort payload for the raw text. The first
// strategy/shape combination yielding both a non-empty title and content
// wins; otherwise the heuristic fallback guarantees a usable result.
func (e *Extractor) Extract(raw string) models.ArticlePayload {
	for _, c := range e.candidates(raw) {
		obj, ok := parseObject(c.text)
		if !ok {
			continue
		}
		payload, ok := recognize(obj)
		if !ok {
			continue
		}
		payload.RawResponse = raw
		payload.Strategy = c.strategy
		if payload.SEOSource == "" {
			e.scanSEO(raw, &payload)
		}
		logger.Debug().
			Str("strategy", string(c.strategy)).
			Msg("structured extraction succeeded")
		return payload
	}

	payload := e.heuristic(raw)
	payload.RawResponse = raw
	payload.Strategy = models.StrategyHeuristic
	e.scanSEO(raw, &payload)
	logger.Warn().Msg("no parseable structure in provider response, used heuristic extraction")
	return payload
}

// candidates generates parse attempts in strict priority order.
func (e *Extractor) candidates(raw string) []candidate {
	trimmed := strings.TrimSpace(raw)
	out := []candidate{{models.StrategyDirect, trimmed}}

	if m := e.fencedRe.FindStringSubmatch(raw); m != nil {
		out = append(out, candidate{models.StrategyFencedBlock, strings.TrimSpace(m[1])})
	}

	if block, ok := braceScan(raw); ok {
		out = append(out, candidate{models.StrategyBraceScan, block})
	}

	if inner, ok := unwrapQuoted(trimmed); ok {
		out = append(out, candidate{models.StrategyQuotedJSON, strings.TrimSpace(inner)})
		// The unwrapped string may itself carry a fenced block.
		if m := e.fencedRe.FindStringSubmatch(inner); m != nil {
			out = append(out, candidate{models.StrategyQuotedJSON, strings.TrimSpace(m[1])})
		}
	}

	if block, ok := lineAnchoredScan(raw); ok {
		out = append(out, candidate{models.StrategyLineScan, block})
	}

	return out
}

// braceScan extracts the substring between the first '{' and its
// syntactically matching '}', tracking depth through strings and escapes
// across the whole text.
func braceScan(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		ch := raw[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return raw[start : i+1], true
				}
			}
		}
	}
	return "", false
}

// unwrapQuoted handles a response that is itself a JSON string literal
// containing escaped JSON: unescape once and hand back the interior.
func unwrapQuoted(trimmed string) (string, bool) {
	if len(trimmed) < 2 || trimmed[0] != '"' || trimmed[len(trimmed)-1] != '"' {
		return "", false
	}
	var inner string
	if err := json.Unmarshal([]byte(trimmed), &inner); err != nil {
		return "", false
	}
	return inner, true
}

// lineAnchoredScan walks line by line for a line beginning with '{' and
// accumulates until brace depth returns to zero.
func lineAnchoredScan(raw string) (string, bool) {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		if !strings.HasPrefix(strings.TrimSpace(line), "{") {
			continue
		}
		var block strings.Builder
		depth := 0
		inString := false
		escaped := false
		for j := i; j < len(lines); j++ {
			if block.Len() > 0 {
				block.WriteByte('\n')
			}
			block.WriteString(lines[j])
			for k := 0; k < len(lines[j]); k++ {
				ch := lines[j][k]
				if escaped {
					escaped = false
					continue
				}
				switch ch {
				case '\\':
					if inString {
						escaped = true
					}
				case '"':
					inString = !inString
				case '{':
					if !inString {
						depth++
					}
				case '}':
					if !inString {
						depth--
					}
				}
			}
			if depth == 0 && block.Len() > 0 {
				return block.String(), true
			}
		}
	}
	return "", false
}

func parseObject(text string) (map[string]any, bool) {
	if text == "" || !strings.HasPrefix(strings.TrimSpace(text), "{") {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// Field-name aliases tried in order for the flat shapes.
var (
	titleAliases   = []string{"title", "headline", "subject", "name"}
	contentAliases = []string{"content", "body", "text", "article", "description"}
)

// recognize tries the known payload shapes in priority order: the nested
// "advanced" article object, the flat title+content object, then the
// alias-field lookup.
func recognize(obj map[string]any) (models.ArticlePayload, bool) {
	if payload, ok := recognizeAdvanced(obj); ok {
		return payload, true
	}
	if payload, ok := recognizeSimple(obj); ok {
		return payload, true
	}
	return recognizeAliases(obj)
}

// recognizeAdvanced matches the nested article object carrying separate
// basic-data/SEO/content/image sub-objects.
func recognizeAdvanced(obj map[string]any) (models.ArticlePayload, bool) {
	article, ok := subObject(obj, "article")
	if !ok {
		article = obj
	}
	basic, hasBasic := subObject(article, "basicData", "basic_data", "basic")
	content, hasContent := subObject(article, "content")
	if !hasBasic || !hasContent {
		return models.ArticlePayload{}, false
	}

	payload := models.ArticlePayload{
		Title:   stringField(basic, "title", "headline"),
		Content: stringField(content, "html", "content", "body", "text"),
	}
	if payload.Title == "" || payload.Content == "" {
		return models.ArticlePayload{}, false
	}

	if seo, ok := subObject(article, "seo"); ok {
		payload.MetaDescription = stringField(seo, "metaDescription", "meta_description", "description")
		payload.Tags = stringSlice(seo, "tags", "keywords")
		payload.SEOSource = models.SEOSourceStructured
	}
	if image, ok := subObject(article, "image"); ok {
		payload.ImagePrompt = stringField(image, "prompt", "imagePrompt", "image_prompt", "description")
	}
	payload.Category = stringField(basic, "category")
	return payload, true
}

// recognizeSimple matches a flat object with both title and content.
func recognizeSimple(obj map[string]any) (models.ArticlePayload, bool) {
	title := stringField(obj, "title")
	content := stringField(obj, "content")
	if title == "" || content == "" {
		return models.ArticlePayload{}, false
	}
	payload := models.ArticlePayload{Title: title, Content: content}
	fillFlatSEO(obj, &payload)
	return payload, true
}

// recognizeAliases is the first-match lookup across the ordered alias
// lists for title and content.
func recognizeAliases(obj map[string]any) (models.ArticlePayload, bool) {
	title := stringField(obj, titleAliases...)
	content := stringField(obj, contentAliases...)
	if title == "" || content == "" || title == content {
		return models.ArticlePayload{}, false
	}
	payload := models.ArticlePayload{Title: title, Content: content}
	fillFlatSEO(obj, &payload)
	return payload, true
}

func fillFlatSEO(obj map[string]any, payload *models.ArticlePayload) {
	payload.MetaDescription = stringField(obj, "meta_description", "metaDescription", "seo_description", "excerpt")
	payload.Tags = stringSlice(obj, "tags", "keywords")
	payload.ImagePrompt = stringField(obj, "image_prompt", "imagePrompt", "image_description")
	payload.Category = stringField(obj, "category")
	if payload.MetaDescription != "" || len(payload.Tags) > 0 {
		payload.SEOSource = models.SEOSourceStructured
	}
}

func subObject(obj map[string]any, keys ...string) (map[string]any, bool) {
	for _, key := range keys {
		if nested, ok := obj[key].(map[string]any); ok {
			return nested, true
		}
	}
	return nil, false
}

func stringField(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func stringSlice(obj map[string]any, keys ...string) []string {
	for _, key := range keys {
		switch v := obj[key].(type) {
		case []any:
			var out []string
			for _, item := range v {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					out = append(out, strings.TrimSpace(s))
				}
			}
			if len(out) > 0 {
				return out
			}
		case string:
			return splitCommaList(v)
		}
	}
	return nil
}

func splitCommaList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// heuristic guesses a title from markdown-heading, "Title:"-prefixed, or
// first-short-line patterns and treats the rest of the text as content.
func (e *Extractor) heuristic(raw string) models.ArticlePayload {
	cleaned := stripFences(raw)
	lines := strings.Split(cleaned, "\n")

	// Explicit markers win anywhere in the text; the first short line is
	// only a last resort, so a preamble cannot shadow a real heading.
	title := ""
	titleLine := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "#"):
			title = strings.TrimSpace(strings.TrimLeft(trimmed, "# "))
			titleLine = i
		case strings.HasPrefix(strings.ToLower(trimmed), "title:"):
			title = strings.TrimSpace(trimmed[len("title:"):])
			titleLine = i
		default:
			continue
		}
		break
	}
	if titleLine == -1 {
		for i, line := range lines {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			if len(trimmed) <= maxTitleLen {
				title = trimmed
				titleLine = i
			}
			break
		}
	}

	if len(title) < minTitleLen || len(title) > maxTitleLen {
		title = PlaceholderTitle
		titleLine = -1
	}

	var contentLines []string
	for i, line := range lines {
		if i == titleLine {
			continue
		}
		contentLines = append(contentLines, line)
	}
	content := strings.TrimSpace(strings.Join(contentLines, "\n"))
	content = strings.Trim(content, `"'`)
	if content == "" {
		content = strings.TrimSpace(cleaned)
	}
	if content == "" {
		content = strings.TrimSpace(raw)
	}
	if content == "" {
		content = PlaceholderContent
	}

	return models.ArticlePayload{Title: title, Content: content}
}

// stripFences removes code-fence markers and surrounding quote characters
// before heuristic extraction.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// scanSEO is the lenient label-scan fallback for SEO fields. It can match
// unrelated text, so results are flagged as regex-sourced and treated as
// best effort, never authoritative.
func (e *Extractor) scanSEO(raw string, payload *models.ArticlePayload) {
	matched := false
	if payload.MetaDescription == "" {
		if m := e.metaDescRe.FindStringSubmatch(raw); m != nil {
			payload.MetaDescription = strings.Trim(strings.TrimSpace(m[1]), `"'`)
			matched = true
		}
	}
	if len(payload.Tags) == 0 {
		if m := e.tagsRe.FindStringSubmatch(raw); m != nil {
			payload.Tags = splitCommaList(m[1])
			matched = true
		}
	}
	if matched {
		payload.SEOSource = models.SEOSourceRegex
	} else if payload.SEOSource == "" {
		payload.SEOSource = models.SEOSourceNone
	}
}
