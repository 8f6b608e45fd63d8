package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yazgan/pressgen/internal/models"
)

func TestExtractDirectParse(t *testing.T) {
	e := NewExtractor()

	payload := e.Extract(`{"title":"Hello","content":"<p>World</p>"}`)

	assert.Equal(t, "Hello", payload.Title)
	assert.Equal(t, "<p>World</p>", payload.Content)
	assert.Equal(t, models.StrategyDirect, payload.Strategy)
	assert.Equal(t, `{"title":"Hello","content":"<p>World</p>"}`, payload.RawResponse)
}

func TestExtractDirectParseTrimsFields(t *testing.T) {
	e := NewExtractor()

	payload := e.Extract(`{"title":"  Hello  ","content":"  body  "}`)

	assert.Equal(t, "Hello", payload.Title)
	assert.Equal(t, "body", payload.Content)
}

func TestExtractFencedBlock(t *testing.T) {
	e := NewExtractor()

	raw := "```json\n{\"title\":\"A\",\"content\":\"B\"}\n```"
	payload := e.Extract(raw)

	assert.Equal(t, "A", payload.Title)
	assert.Equal(t, "B", payload.Content)
	assert.Equal(t, models.StrategyFencedBlock, payload.Strategy)
}

func TestExtractFencedBlockMatchesUnwrappedInterior(t *testing.T) {
	e := NewExtractor()

	inner := `{"title":"Fenced title","content":"Fenced content"}`
	wrapped := e.Extract("```json\n" + inner + "\n```")
	direct := e.Extract(inner)

	assert.Equal(t, direct.Title, wrapped.Title)
	assert.Equal(t, direct.Content, wrapped.Content)
}

func TestExtractBraceScan(t *testing.T) {
	e := NewExtractor()

	payload := e.Extract(`Some preamble {"title":"X","content":"Y"} trailing`)

	assert.Equal(t, "X", payload.Title)
	assert.Equal(t, "Y", payload.Content)
	assert.Equal(t, models.StrategyBraceScan, payload.Strategy)
}

func TestExtractBraceScanNested(t *testing.T) {
	e := NewExtractor()

	raw := "noise before\n{\"title\":\"Nested\",\"content\":\"has {braces} inside\",\"meta\":{\"x\":1}}\nafter"
	payload := e.Extract(raw)

	assert.Equal(t, "Nested", payload.Title)
	assert.Equal(t, "has {braces} inside", payload.Content)
}

func TestExtractQuotedJSON(t *testing.T) {
	e := NewExtractor()

	// A response that is itself a JSON string literal of escaped JSON.
	raw := `"{\"title\":\"Quoted title\",\"content\":\"Quoted content\"}"`
	payload := e.Extract(raw)

	assert.Equal(t, "Quoted title", payload.Title)
	assert.Equal(t, "Quoted content", payload.Content)
}

func TestExtractQuotedFencedJSON(t *testing.T) {
	e := NewExtractor()

	raw := `"` + "```json\\n{\\\"title\\\":\\\"A title here\\\",\\\"content\\\":\\\"B\\\"}\\n```" + `"`
	payload := e.Extract(raw)

	assert.Equal(t, "A title here", payload.Title)
	assert.Equal(t, "B", payload.Content)
}

func TestExtractLineAnchoredScan(t *testing.T) {
	e := NewExtractor()

	raw := "Here is your article { not json\n" +
		"{\n" +
		"  \"title\": \"Line anchored\",\n" +
		"  \"content\": \"multi\\nline\"\n" +
		"}\n" +
		"done"
	payload := e.Extract(raw)

	assert.Equal(t, "Line anchored", payload.Title)
	assert.Equal(t, "multi\nline", payload.Content)
}

func TestExtractAdvancedShape(t *testing.T) {
	e := NewExtractor()

	raw := `{
		"article": {
			"basicData": {"title": "Advanced title", "category": "tech"},
			"content": {"html": "<p>Advanced body</p>"},
			"seo": {"metaDescription": "A meta description", "tags": ["go", "news"]},
			"image": {"prompt": "a server room"}
		}
	}`
	payload := e.Extract(raw)

	assert.Equal(t, "Advanced title", payload.Title)
	assert.Equal(t, "<p>Advanced body</p>", payload.Content)
	assert.Equal(t, "A meta description", payload.MetaDescription)
	assert.Equal(t, []string{"go", "news"}, payload.Tags)
	assert.Equal(t, "a server room", payload.ImagePrompt)
	assert.Equal(t, "tech", payload.Category)
	assert.Equal(t, models.SEOSourceStructured, payload.SEOSource)
}

func TestExtractAliasFields(t *testing.T) {
	e := NewExtractor()

	payload := e.Extract(`{"headline":"Alias headline","body":"Alias body"}`)

	assert.Equal(t, "Alias headline", payload.Title)
	assert.Equal(t, "Alias body", payload.Content)
}

func TestExtractAliasOrderPrefersTitleOverHeadline(t *testing.T) {
	e := NewExtractor()

	payload := e.Extract(`{"headline":"second","title":"first","content":"x"}`)

	assert.Equal(t, "first", payload.Title)
}

func TestExtractSEOFromFlatShape(t *testing.T) {
	e := NewExtractor()

	raw := `{"title":"T","content":"C","meta_description":"flat meta","tags":"a, b ,c"}`
	payload := e.Extract(raw)

	assert.Equal(t, "flat meta", payload.MetaDescription)
	assert.Equal(t, []string{"a", "b", "c"}, payload.Tags)
	assert.Equal(t, models.SEOSourceStructured, payload.SEOSource)
}

func TestExtractHeuristicMarkdownHeading(t *testing.T) {
	e := NewExtractor()

	raw := "# A Heuristic Title\n\nFirst paragraph of the article.\n\nSecond paragraph."
	payload := e.Extract(raw)

	assert.Equal(t, "A Heuristic Title", payload.Title)
	assert.Contains(t, payload.Content, "First paragraph")
	assert.NotContains(t, payload.Content, "Heuristic Title")
	assert.Equal(t, models.StrategyHeuristic, payload.Strategy)
}

func TestExtractHeuristicTitlePrefix(t *testing.T) {
	e := NewExtractor()

	raw := "Title: Prefixed Title Example\nThe rest is content."
	payload := e.Extract(raw)

	assert.Equal(t, "Prefixed Title Example", payload.Title)
	assert.Equal(t, "The rest is content.", payload.Content)
}

func TestExtractHeuristicHeadingAfterPreamble(t *testing.T) {
	e := NewExtractor()

	raw := "Here is your article:\n\n# The Actual Headline\n\nBody paragraph of the piece."
	payload := e.Extract(raw)

	assert.Equal(t, "The Actual Headline", payload.Title)
	assert.Contains(t, payload.Content, "Body paragraph")
}

func TestExtractHeuristicTitlePrefixAfterPreamble(t *testing.T) {
	e := NewExtractor()

	raw := "Sure, happy to help.\nTitle: Buried But Explicit Title\nAnd here is the body."
	payload := e.Extract(raw)

	assert.Equal(t, "Buried But Explicit Title", payload.Title)
	assert.Contains(t, payload.Content, "here is the body")
}

func TestExtractHeuristicPlaceholderWhenTitleOutOfBounds(t *testing.T) {
	e := NewExtractor()

	raw := "short\nsome content follows here"
	payload := e.Extract(raw)

	assert.Equal(t, PlaceholderTitle, payload.Title)
	assert.NotEmpty(t, payload.Content)
}

func TestExtractNeverReturnsEmpty(t *testing.T) {
	e := NewExtractor()

	for _, raw := range []string{
		"no json at all, just prose that rambles on for a while",
		"{broken json",
		"```\nunclosed fence",
		"",
		"   ",
		`"just a plain quoted string"`,
	} {
		payload := e.Extract(raw)
		assert.NotEmpty(t, payload.Title, "raw: %q", raw)
		assert.NotEmpty(t, strings.TrimSpace(payload.Content), "raw: %q", raw)
	}
}

func TestExtractEmptyInputGetsPlaceholders(t *testing.T) {
	e := NewExtractor()

	payload := e.Extract("")

	assert.Equal(t, PlaceholderTitle, payload.Title)
	assert.Equal(t, PlaceholderContent, payload.Content)
	assert.Equal(t, models.StrategyHeuristic, payload.Strategy)
}

func TestExtractSEORegexFallbackFlagged(t *testing.T) {
	e := NewExtractor()

	raw := "# A Long Enough Title\n\nBody text.\n\nMeta Description: scanned from prose\nTags: alpha, beta"
	payload := e.Extract(raw)

	assert.Equal(t, "scanned from prose", payload.MetaDescription)
	assert.Equal(t, []string{"alpha", "beta"}, payload.Tags)
	assert.Equal(t, models.SEOSourceRegex, payload.SEOSource, "regex fallback is low confidence")
}

func TestExtractRecordsWinningStrategy(t *testing.T) {
	e := NewExtractor()

	cases := map[string]models.ExtractionStrategy{
		`{"title":"Direct win","content":"c"}`:                 models.StrategyDirect,
		"```json\n{\"title\":\"t\",\"content\":\"c\"}\n```":    models.StrategyFencedBlock,
		`pre {"title":"t","content":"c"} post`:                 models.StrategyBraceScan,
		"plain text only, nothing structured to be found here": models.StrategyHeuristic,
	}
	for raw, want := range cases {
		payload := e.Extract(raw)
		require.Equal(t, want, payload.Strategy, "raw: %q", raw)
	}
}
