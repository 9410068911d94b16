package textnorm

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Skill is a canonical skill name and the phrases that identify it in text.
// When Phrases is empty the canonical name itself is the only phrase.
type Skill struct {
	Name    string
	Phrases []string
}

// Vocabulary is the maintained list of recognized skills. Names are lower-case
// canonical forms. Words that are ordinary English on their own ("go", "express",
// "spring") only match through unambiguous phrases.
//
// To add a skill, append an entry here; matching order is derived automatically.
var Vocabulary = []Skill{
	// Programming languages
	{Name: "python"},
	{Name: "java"},
	{Name: "javascript", Phrases: []string{"javascript", "ecmascript", "js"}},
	{Name: "typescript"},
	{Name: "c++", Phrases: []string{"c++", "cpp"}},
	{Name: "c#", Phrases: []string{"c#", "csharp", "c sharp"}},
	{Name: "php"},
	{Name: "ruby", Phrases: []string{"ruby", "ruby on rails", "rails"}},
	{Name: "go", Phrases: []string{"golang", "go lang", "go language", "go programming"}},
	{Name: "rust"},
	{Name: "kotlin"},
	{Name: "swift"},
	{Name: "scala"},
	{Name: "matlab"},
	{Name: "sql"},

	// Web
	{Name: "html", Phrases: []string{"html", "html5"}},
	{Name: "css", Phrases: []string{"css", "css3"}},
	{Name: "react", Phrases: []string{"react", "react.js", "reactjs"}},
	{Name: "angular", Phrases: []string{"angular", "angularjs", "angular.js"}},
	{Name: "vue", Phrases: []string{"vue", "vue.js", "vuejs"}},
	{Name: "node.js", Phrases: []string{"node.js", "nodejs", "node js"}},
	{Name: "express", Phrases: []string{"express.js", "expressjs"}},
	{Name: "django"},
	{Name: "flask"},
	{Name: "spring", Phrases: []string{"spring boot", "spring framework", "spring mvc"}},
	{Name: "laravel"},
	{Name: "bootstrap"},
	{Name: "jquery"},
	{Name: "graphql"},
	{Name: "rest api", Phrases: []string{"rest api", "rest apis", "restful", "restful api"}},

	// Cloud and DevOps
	{Name: "aws", Phrases: []string{"aws", "amazon web services"}},
	{Name: "azure", Phrases: []string{"azure", "microsoft azure"}},
	{Name: "gcp", Phrases: []string{"gcp", "google cloud", "google cloud platform"}},
	{Name: "docker"},
	{Name: "kubernetes", Phrases: []string{"kubernetes", "k8s"}},
	{Name: "jenkins"},
	{Name: "git"},
	{Name: "terraform"},
	{Name: "ansible"},
	{Name: "linux"},
	{Name: "ci/cd", Phrases: []string{"ci/cd", "continuous integration", "continuous delivery"}},
	{Name: "microservices", Phrases: []string{"microservices", "microservice"}},

	// Databases
	{Name: "mysql"},
	{Name: "postgresql", Phrases: []string{"postgresql", "postgres"}},
	{Name: "mongodb", Phrases: []string{"mongodb", "mongo"}},
	{Name: "redis"},
	{Name: "elasticsearch"},
	{Name: "oracle"},

	// Data science
	{Name: "machine learning"},
	{Name: "deep learning"},
	{Name: "natural language processing", Phrases: []string{"natural language processing", "nlp"}},
	{Name: "computer vision"},
	{Name: "data analysis", Phrases: []string{"data analysis", "data analytics"}},
	{Name: "tensorflow"},
	{Name: "pytorch"},
	{Name: "pandas"},
	{Name: "numpy"},
	{Name: "scikit-learn", Phrases: []string{"scikit-learn", "sklearn", "scikit learn"}},
	{Name: "tableau"},
	{Name: "power bi", Phrases: []string{"power bi", "powerbi"}},

	// Design and marketing
	{Name: "photoshop", Phrases: []string{"photoshop", "adobe photoshop"}},
	{Name: "illustrator", Phrases: []string{"illustrator", "adobe illustrator"}},
	{Name: "figma"},
	{Name: "canva"},
	{Name: "seo"},
	{Name: "sem"},
	{Name: "google analytics"},
	{Name: "social media", Phrases: []string{"social media", "social media marketing"}},

	// Business and finance
	{Name: "excel", Phrases: []string{"excel", "ms excel", "microsoft excel"}},
	{Name: "powerpoint"},
	{Name: "salesforce"},
	{Name: "crm"},
	{Name: "erp"},
	{Name: "sap"},
	{Name: "accounting"},
	{Name: "project management"},
}

// phraseEntry maps one searchable phrase to its canonical skill.
type phraseEntry struct {
	phrase string
	skill  string
}

// phraseIndex is the vocabulary flattened and ordered longest phrase first,
// so multi-word phrases claim their words before shorter phrases are tried.
var phraseIndex = buildPhraseIndex(Vocabulary)

// canonicalByPhrase resolves any known phrase to its canonical skill name.
var canonicalByPhrase = buildCanonicalMap(Vocabulary)

func buildPhraseIndex(vocab []Skill) []phraseEntry {
	var entries []phraseEntry
	for _, s := range vocab {
		phrases := s.Phrases
		if len(phrases) == 0 {
			phrases = []string{s.Name}
		}
		for _, p := range phrases {
			entries = append(entries, phraseEntry{phrase: strings.ToLower(p), skill: s.Name})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(entries[i].phrase), utf8.RuneCountInString(entries[j].phrase)
		if li != lj {
			return li > lj
		}
		return entries[i].phrase < entries[j].phrase
	})
	return entries
}

func buildCanonicalMap(vocab []Skill) map[string]string {
	m := make(map[string]string)
	for _, s := range vocab {
		m[s.Name] = s.Name
		for _, p := range s.Phrases {
			m[strings.ToLower(p)] = s.Name
		}
	}
	return m
}

// CanonicalSkill maps a skill name or known variant to its canonical form.
// Unknown names are returned trimmed and lower-cased.
func CanonicalSkill(name string) string {
	key := strings.ToLower(Collapse(name))
	if canonical, ok := canonicalByPhrase[key]; ok {
		return canonical
	}
	return key
}
