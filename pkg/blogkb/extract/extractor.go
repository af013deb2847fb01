package extract

import (
	"fmt"
	"regexp"
)

// Caps applied by the extractors. They are hard truncations of an ordered
// list, not samples.
const (
	MaxEntities         = 30
	MaxCodeSnippets     = 10
	MaxStatistics       = 10
	MaxQuotes           = 5
	MaxQuestions        = 20
	MaxContentQuestions = 5
	SectionKeyPoints    = 3
	FallbackKeyPoints   = 5
	DocumentKeyPoints   = 10
	MinSentenceLen      = 30
	MaxSentenceLen      = 500
	MinSectionBodyLen   = 50
	MaxInferredHeading  = 100
	MinConceptLen       = 5
	MinDefinitionLen    = 20
	MaxDefinitionLen    = 300
	MinStatisticLen     = 20
	MaxStatisticLen     = 300
	MinInlineCodeLen    = 10
	IntroductionHeading = "Introduction"
	MainContentHeading  = "Main Content"
)

var (
	statisticPattern    = regexp.MustCompile(`(?i)\d+%|\d+\s*(million|billion|thousand)`)
	statSentencePattern = regexp.MustCompile(`(?i)\d+%|\d{1,3}(,\d{3})+|\d+\s*(million|billion|trillion|thousand)`)
	conceptPattern      = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)\b`)
	fencedCodePattern   = regexp.MustCompile("(?s)```.*?```")
	fenceMarkerPattern  = regexp.MustCompile("```\\w*\\n?")
	inlineCodePattern   = regexp.MustCompile("`([^`]+)`")
	quotePattern        = regexp.MustCompile(`"([^"]{20,200})"`)
	questionPattern     = regexp.MustCompile(`(?i)\b(?:how|what|why|when|where|which|who)\s+[^.?!]*\?`)
	headingPrefix       = regexp.MustCompile(`^#+\s*`)
	sectionBoundary     = regexp.MustCompile(`(?m)^#{1,3}\s|\n\n[A-Z]`)
	newlineRun          = regexp.MustCompile(`\n+`)
)

// definitionRules are tried in order; later matches overwrite earlier ones
// for the same term.
var definitionRules = []*regexp.Regexp{
	regexp.MustCompile(`\b([A-Z][a-zA-Z\s]{2,30})\s+(?i:is)\s+(?:(?i:a|an|the)\s+)?([^.]+\.)`),
	regexp.MustCompile(`\b([A-Z][a-zA-Z\s]{2,30})\s+(?i:are)\s+(?:(?i:a|an|the)\s+)?([^.]+\.)`),
	regexp.MustCompile(`\b([A-Z][a-zA-Z\s]{2,30})\s+(?i:refers?\s+to)\s+([^.]+\.)`),
	regexp.MustCompile(`\b([A-Z][a-zA-Z\s]{2,30}),?\s+(?i:which\s+is)\s+([^.]+\.)`),
	regexp.MustCompile(`\b([A-Z][a-zA-Z\s]{2,30})\s+(?i:can\s+be\s+defined\s+as)\s+([^.]+\.)`),
}

// Extractor runs the extraction rule table over article text. It is safe for
// concurrent use once constructed.
type Extractor struct {
	rules       Rules
	importance  []string
	markers     []string
	stoplist    []string
	entityRules []entityRule
}

// New compiles rules into an Extractor.
func New(rules Rules) (*Extractor, error) {
	rules = rules.withDefaults()

	e := &Extractor{rules: rules}
	for _, w := range rules.ImportanceWords {
		e.importance = append(e.importance, lower(w))
	}
	for _, m := range rules.DefinitionMarkers {
		e.markers = append(e.markers, lower(m))
	}
	e.stoplist = rules.ConceptStoplist
	for _, g := range rules.TechnologyGroups {
		re, err := compileTermGroup(g)
		if err != nil {
			return nil, fmt.Errorf("compile technology group: %w", err)
		}
		e.entityRules = append(e.entityRules, entityRule{name: g.Name, pattern: re, typ: TypeTechnology})
	}
	return e, nil
}

// MustNew is like New but panics on an invalid rule table.
func MustNew(rules Rules) *Extractor {
	e, err := New(rules)
	if err != nil {
		panic(err)
	}
	return e
}

// Default returns an Extractor over DefaultRules.
func Default() *Extractor {
	return MustNew(DefaultRules())
}

// Rules returns the effective rule table.
func (e *Extractor) Rules() Rules {
	return e.rules
}
