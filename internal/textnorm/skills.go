package textnorm

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxSkills caps how many skills are reported for one document.
const MaxSkills = 30

// ExtractSkills finds vocabulary skills in text, case-insensitively.
// Phrases are tried longest first and every match masks the characters it
// covers, so "machine learning" never also yields a shorter phrase inside it.
// A phrase only matches at token boundaries. Results are sorted canonical names.
func ExtractSkills(text string) []string {
	haystack := strings.ToLower(Collapse(text))
	if haystack == "" {
		return []string{}
	}

	used := make([]bool, len(haystack))
	found := make(map[string]struct{})

	for _, entry := range phraseIndex {
		for start := 0; start < len(haystack); {
			idx := strings.Index(haystack[start:], entry.phrase)
			if idx < 0 {
				break
			}
			begin := start + idx
			end := begin + len(entry.phrase)
			start = begin + 1

			if !atBoundary(haystack, begin, end) || spanUsed(used, begin, end) {
				continue
			}
			for i := begin; i < end; i++ {
				used[i] = true
			}
			found[entry.skill] = struct{}{}
		}
	}

	skills := make([]string, 0, len(found))
	for s := range found {
		skills = append(skills, s)
	}
	sort.Strings(skills)

	if len(skills) > MaxSkills {
		skills = skills[:MaxSkills]
	}
	return skills
}

// isTokenChar reports whether r can continue a skill token.
// '+' and '#' belong to tokens so "c" never matches inside "c++".
func isTokenChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '_'
}

func atBoundary(s string, begin, end int) bool {
	if begin > 0 {
		if prev, _ := utf8.DecodeLastRuneInString(s[:begin]); isTokenChar(prev) {
			return false
		}
	}
	if end < len(s) {
		if next, _ := utf8.DecodeRuneInString(s[end:]); isTokenChar(next) {
			return false
		}
	}
	return true
}

func spanUsed(used []bool, begin, end int) bool {
	for i := begin; i < end; i++ {
		if used[i] {
			return true
		}
	}
	return false
}
