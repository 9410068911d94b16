package textnorm

import (
	"strings"

	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/types"
)

// Result is normalized text plus the signals extracted from it.
type Result struct {
	// Clean keeps display casing and line structure.
	Clean string
	// Lower is the lower-cased copy used for matching.
	Lower   string
	Signals types.Signals
}

// Empty reports whether nothing but whitespace survived normalization.
func (r Result) Empty() bool {
	return strings.TrimSpace(r.Clean) == ""
}

// Normalize strips markup, normalizes whitespace and extracts skills,
// experience years and the most recent title. It never fails; absent
// data yields empty signals.
func Normalize(raw string) Result {
	clean := CleanText(StripMarkup(raw))
	lower := strings.ToLower(clean)

	return Result{
		Clean: clean,
		Lower: lower,
		Signals: types.Signals{
			Skills:          ExtractSkills(lower),
			ExperienceYears: ExtractExperienceYears(lower),
			LastTitle:       ExtractLastTitle(clean),
		},
	}
}
