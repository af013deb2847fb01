// Package cards builds the explainable answer card returned by chat calls.
package cards

import (
	"crypto/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cognicore/blogkb/pkg/blogkb/rank"
	"github.com/oklog/ulid/v2"
)

// Builder constructs answer cards
type Builder struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// New creates a new card builder
func New() *Builder {
	return &Builder{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Card is an answer together with the documents it was grounded on.
type Card struct {
	ID             string             `json:"id"`
	Query          string             `json:"query"`
	Answer         string             `json:"answer"`
	Sources        []SourceRef        `json:"sources"`
	ScoreBreakdown map[string]float64 `json:"scoreBreakdown"`
	Explain        Explain            `json:"explain"`
	CreatedAt      time.Time          `json:"createdAt"`
}

// SourceRef references a ranked source document
type SourceRef struct {
	Title    string `json:"title"`
	Topic    string `json:"topic"`
	Category string `json:"category"`
}

// Explain provides transparency into retrieval
type Explain struct {
	QueryWords   []string  `json:"queryWords"`
	MatchedWords []string  `json:"matchedWords"`
	Scores       []float64 `json:"scores"`
}

// Sources lists the ranked documents in rank order.
func Sources(ranked []rank.Scored) []SourceRef {
	out := make([]SourceRef, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, SourceRef{
			Title:    r.Doc.Title,
			Topic:    r.Doc.Topic,
			Category: r.Doc.TopicCategory,
		})
	}
	return out
}

// Build creates a card for an answer over the ranked documents.
func (b *Builder) Build(query, answer string, ranked []rank.Scored) Card {
	q := rank.ParseQuery(query)
	card := Card{
		ID:             b.newID(),
		Query:          query,
		Answer:         answer,
		Sources:        Sources(ranked),
		ScoreBreakdown: make(map[string]float64),
		Explain: Explain{
			QueryWords:   nonNil(q.Words),
			MatchedWords: []string{},
			Scores:       make([]float64, 0, len(ranked)),
		},
		CreatedAt: b.now().UTC(),
	}

	var sum rank.ScoreBreakdown
	matched := make(map[string]struct{})
	for _, r := range ranked {
		sum.Title += r.Breakdown.Title
		sum.Topic += r.Breakdown.Topic
		sum.Summary += r.Breakdown.Summary
		sum.Tags += r.Breakdown.Tags
		sum.Category += r.Breakdown.Category
		sum.Content += r.Breakdown.Content
		sum.Total += r.Breakdown.Total
		card.Explain.Scores = append(card.Explain.Scores, r.Breakdown.Total)

		// Only the metadata fields; content matches are too noisy to explain.
		meta := strings.ToLower(strings.Join([]string{
			r.Doc.Title, r.Doc.Topic, r.Doc.Summary, r.Doc.TopicCategory, strings.Join(r.Doc.Tags, " "),
		}, " "))
		for _, w := range q.Words {
			if strings.Contains(meta, w) {
				matched[w] = struct{}{}
			}
		}
	}

	// Average scores
	if n := float64(len(ranked)); n > 0 {
		card.ScoreBreakdown["title"] = sum.Title / n
		card.ScoreBreakdown["topic"] = sum.Topic / n
		card.ScoreBreakdown["summary"] = sum.Summary / n
		card.ScoreBreakdown["tags"] = sum.Tags / n
		card.ScoreBreakdown["category"] = sum.Category / n
		card.ScoreBreakdown["content"] = sum.Content / n
		card.ScoreBreakdown["total"] = sum.Total / n
	}

	for w := range matched {
		card.Explain.MatchedWords = append(card.Explain.MatchedWords, w)
	}
	sort.Strings(card.Explain.MatchedWords)

	return card
}

func (b *Builder) newID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(b.now()), b.entropy).String()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
