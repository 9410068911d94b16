// Package textnorm cleans raw CV and job text and extracts structured signals from it.
// Every function in this package is pure and deterministic.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

var (
	markupPattern     = regexp.MustCompile(`<[a-zA-Z!/][^>]*>`)
	spacePattern      = regexp.MustCompile(`[ \t\f\v\p{Zs}]+`)
	blankLinesPattern = regexp.MustCompile(`\n{3,}`)
)

// blockSelectors are elements that end a line when rendered.
const blockSelectors = "p, div, li, tr, h1, h2, h3, h4, h5, h6, section, article, header, footer, ul, ol, table, blockquote, pre"

// LooksLikeHTML reports whether text contains markup tags.
func LooksLikeHTML(text string) bool {
	return markupPattern.MatchString(text)
}

// StripMarkup converts HTML to plain text, keeping one line per block element.
// Input without markup is returned unchanged.
func StripMarkup(text string) string {
	if !LooksLikeHTML(text) {
		return text
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		// The tokenizer is lenient; fall back to dropping tags
		return markupPattern.ReplaceAllString(text, " ")
	}

	doc.Find("script, style, noscript, template, svg").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find(blockSelectors).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return doc.Text()
}

// CleanText normalizes line endings, collapses intra-line whitespace and
// reduces runs of blank lines to one, while preserving line structure.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		cleaned = append(cleaned, cleanLine(line))
	}

	result := strings.Join(cleaned, "\n")
	result = blankLinesPattern.ReplaceAllString(result, "\n\n")

	return strings.TrimSpace(result)
}

func cleanLine(line string) string {
	line = strings.Map(func(r rune) rune {
		if r == '\t' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, line)
	line = spacePattern.ReplaceAllString(line, " ")
	return strings.TrimSpace(line)
}

// Collapse joins all whitespace-separated fields with single spaces.
func Collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Lines returns the non-blank lines of cleaned text.
func Lines(clean string) []string {
	var lines []string
	for _, line := range strings.Split(clean, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
