package rank

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/cognicore/blogkb/pkg/blogkb/store"
)

const (
	// DefaultTopK is how many ranked documents feed the chat prompt.
	DefaultTopK = 6
	// DefaultContentWindow is how much of the body is scored, in characters.
	DefaultContentWindow = 3000

	minQueryWordLen = 3
	wordMatchScore  = 1.0
	boundaryBonus   = 0.5
	repeatBonus     = 0.2
	maxRepeatBonus  = 1.0
)

// Weights defines the per-field multipliers of the composite score
type Weights struct {
	Title    float64
	Topic    float64
	Summary  float64
	Tags     float64
	Category float64
	Content  float64
}

// DefaultWeights favours the title, then the topic, then summary and tags.
func DefaultWeights() Weights {
	return Weights{Title: 5, Topic: 4, Summary: 3, Tags: 3, Category: 2, Content: 1}
}

// Scorer ranks candidate documents against a query
type Scorer struct {
	weights       Weights
	contentWindow int
}

// NewScorer creates a new scorer with the given weights. contentWindow <= 0
// selects DefaultContentWindow.
func NewScorer(w Weights, contentWindow int) *Scorer {
	if contentWindow <= 0 {
		contentWindow = DefaultContentWindow
	}
	return &Scorer{weights: w, contentWindow: contentWindow}
}

// NewDefaultScorer uses DefaultWeights and DefaultContentWindow.
func NewDefaultScorer() *Scorer {
	return NewScorer(DefaultWeights(), DefaultContentWindow)
}

// Query is a parsed user query: its lowercased words longer than two
// characters, each with a compiled whole-word pattern.
type Query struct {
	Words      []string
	boundaries []*regexp.Regexp
}

// ParseQuery splits q on whitespace and keeps words longer than two
// characters. Repeated words are kept and score repeatedly.
func ParseQuery(q string) Query {
	var query Query
	for _, w := range strings.Fields(strings.ToLower(q)) {
		if utf8.RuneCountInString(w) < minQueryWordLen {
			continue
		}
		query.Words = append(query.Words, w)
		query.boundaries = append(query.boundaries, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(w)+`\b`))
	}
	return query
}

// Match scores text against the query. Each word found in text as a
// case-insensitive substring earns one point, half a point more when it also
// stands as a whole word, and 0.2 per occurrence (at most 1) when it occurs
// more than once.
func (q Query) Match(text string) float64 {
	if text == "" {
		return 0
	}
	lower := strings.ToLower(text)

	score := 0.0
	for i, w := range q.Words {
		if !strings.Contains(lower, w) {
			continue
		}
		score += wordMatchScore
		if q.boundaries[i].MatchString(text) {
			score += boundaryBonus
		}
		if n := strings.Count(lower, w); n > 1 {
			score += math.Min(float64(n)*repeatBonus, maxRepeatBonus)
		}
	}
	return score
}

// ScoreMatch is Match for a one-off query.
func ScoreMatch(text, query string) float64 {
	return ParseQuery(query).Match(text)
}

// ScoreBreakdown provides detailed scoring information. Field values are
// already weighted.
type ScoreBreakdown struct {
	Title    float64 `json:"title"`
	Topic    float64 `json:"topic"`
	Summary  float64 `json:"summary"`
	Tags     float64 `json:"tags"`
	Category float64 `json:"category"`
	Content  float64 `json:"content"`
	Total    float64 `json:"total"`
}

// ScoreWithBreakdown calculates the composite score with its per-field parts.
func (s *Scorer) ScoreWithBreakdown(q Query, doc store.SourceDocument) ScoreBreakdown {
	b := ScoreBreakdown{
		Title:    s.weights.Title * q.Match(doc.Title),
		Topic:    s.weights.Topic * q.Match(doc.Topic),
		Summary:  s.weights.Summary * q.Match(doc.Summary),
		Tags:     s.weights.Tags * q.Match(strings.Join(doc.Tags, " ")),
		Category: s.weights.Category * q.Match(doc.TopicCategory),
		Content:  s.weights.Content * q.Match(prefix(doc.Content, s.contentWindow)),
	}
	b.Total = b.Title + b.Topic + b.Summary + b.Tags + b.Category + b.Content
	return b
}

// Score calculates the composite relevance of doc.
func (s *Scorer) Score(q Query, doc store.SourceDocument) float64 {
	return s.ScoreWithBreakdown(q, doc).Total
}

// Scored is a ranked document.
type Scored struct {
	Doc       store.SourceDocument
	Breakdown ScoreBreakdown
}

// Rank scores every candidate and returns the k best, highest first. Equal
// scores keep candidate order. k <= 0 returns all candidates.
func (s *Scorer) Rank(query string, candidates []store.SourceDocument, k int) []Scored {
	q := ParseQuery(query)
	out := make([]Scored, len(candidates))
	for i, doc := range candidates {
		out[i] = Scored{Doc: doc, Breakdown: s.ScoreWithBreakdown(q, doc)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Breakdown.Total > out[j].Breakdown.Total
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

// prefix returns the first n characters of s.
func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
