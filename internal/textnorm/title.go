package textnorm

import (
	"strings"
	"unicode/utf8"
)

const (
	// maxTitleScanLines caps the title search regardless of document length.
	maxTitleScanLines = 15
	minTitleLength    = 3
	maxTitleLength    = 80
	maxTitleWords     = 8
)

var titleKeywords = []string{
	"engineer", "developer", "programmer", "manager", "analyst", "specialist",
	"consultant", "architect", "designer", "scientist", "lead", "director",
	"coordinator", "administrator", "technician", "representative", "executive",
	"officer", "assistant", "accountant", "intern", "head of", "tester", "writer",
}

var contactMarkers = []string{
	"@", "email", "e-mail", "phone", "tel:", "mobile", "linkedin", "github",
	"address", "http://", "https://", "www.",
}

// ExtractLastTitle returns the first title-like line in the first third of the
// document: short, without sentence-ending punctuation, free of contact details
// and containing a job-title keyword. It returns "" when no line qualifies.
func ExtractLastTitle(clean string) string {
	lines := Lines(clean)
	if len(lines) == 0 {
		return ""
	}

	limit := (len(lines) + 2) / 3
	limit = min(limit, maxTitleScanLines)

	for _, line := range lines[:limit] {
		candidate := strings.TrimLeft(line, "-*•·> ")
		if isTitleLike(candidate) {
			return candidate
		}
	}
	return ""
}

func isTitleLike(line string) bool {
	n := utf8.RuneCountInString(line)
	if n < minTitleLength || n > maxTitleLength {
		return false
	}
	if strings.ContainsAny(line[len(line)-1:], ".!?:;,") {
		return false
	}
	if len(strings.Fields(line)) > maxTitleWords {
		return false
	}

	lower := strings.ToLower(line)
	for _, marker := range contactMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	for _, kw := range titleKeywords {
		if containsWord(lower, kw) {
			return true
		}
	}
	return false
}

// containsWord reports whether word occurs in s starting at a word boundary.
// Suffixes are allowed so "engineer" matches "engineering lead" but "lead" does not match "misleading".
func containsWord(s, word string) bool {
	for start := 0; start < len(s); {
		idx := strings.Index(s[start:], word)
		if idx < 0 {
			return false
		}
		begin := start + idx
		if begin == 0 {
			return true
		}
		if prev, _ := utf8.DecodeLastRuneInString(s[:begin]); !isTokenChar(prev) {
			return true
		}
		start = begin + 1
	}
	return false
}
