package textnorm

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/types"
)

// MaxPlausibleYears bounds extracted experience values; larger numbers are
// almost always calendar years or unrelated figures.
const MaxPlausibleYears = 50

var experiencePatterns = []*regexp.Regexp{
	// "5 years of experience", "5+ years professional experience", "3 yrs experience"
	regexp.MustCompile(`\b(\d{1,3})\s*\+?\s*(?:years?|yrs?)\s*(?:of\s+)?(?:professional\s+|relevant\s+|work\s+|working\s+|industry\s+|hands-on\s+)?experience`),
	// "experience: 5 years", "experience - 5+ years"
	regexp.MustCompile(`experience\s*[:\-]?\s*(\d{1,3})\s*\+?\s*(?:years?|yrs?)\b`),
	// "7 years in software development"
	regexp.MustCompile(`\b(\d{1,3})\s*\+?\s*(?:years?|yrs?)\s+in\s+\w+`),
}

// ExtractExperienceYears returns the largest plausible "N years of experience"
// value in text, or nil when none is stated. Absence is unknown, not zero.
func ExtractExperienceYears(text string) *int {
	lower := strings.ToLower(Collapse(text))

	best := -1
	for _, pattern := range experiencePatterns {
		for _, match := range pattern.FindAllStringSubmatch(lower, -1) {
			years, err := strconv.Atoi(match[1])
			if err != nil || years < 0 || years > MaxPlausibleYears {
				continue
			}
			if years > best {
				best = years
			}
		}
	}

	if best < 0 {
		return nil
	}
	return &best
}

var (
	seniorLevelPattern = regexp.MustCompile(`\b(?:senior|sr|lead|principal|staff|head of|expert|experienced)\b|\b(?:[5-9]|1\d)\s*\+\s*(?:years?|yrs?)`)
	juniorLevelPattern = regexp.MustCompile(`\b(?:junior|jr|entry[- ]level|graduate|intern|internship|fresh|fresher|trainee)\b|\b0\s*-\s*[12]\s*(?:years?|yrs?)`)
	midLevelPattern    = regexp.MustCompile(`\b(?:mid[- ]?level|intermediate|mid[- ]career)\b|\b[2-4]\s*(?:\+|-\s*[3-5])\s*(?:years?|yrs?)`)
)

// ClassifyExperienceLevel infers the seniority a job posting asks for.
// Senior signals win over junior ones, junior over mid; no signal yields unspecified.
func ClassifyExperienceLevel(text string) types.ExperienceLevel {
	lower := strings.ToLower(Collapse(text))

	switch {
	case seniorLevelPattern.MatchString(lower):
		return types.LevelSenior
	case juniorLevelPattern.MatchString(lower):
		return types.LevelJunior
	case midLevelPattern.MatchString(lower):
		return types.LevelMid
	default:
		return types.LevelUnspecified
	}
}
