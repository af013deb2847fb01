package store

import (
	"context"
	"strings"
	"time"
)

// Store is the read side of the blog document store. The knowledge-base
// pipeline and the ranker only ever read through it.
type Store interface {
	Close() error

	// Find returns documents matching f, newest first.
	Find(ctx context.Context, f Filter) ([]SourceDocument, error)
	// TextSearch returns documents ranked by the store's full-text relevance.
	// Stores without a text index return internalerr.ErrTextSearchUnsupported.
	TextSearch(ctx context.Context, query string, limit int) ([]SourceDocument, error)
	Count(ctx context.Context, f Filter) (int64, error)
	// TopCategories returns categories by document count, largest first.
	TopCategories(ctx context.Context, limit int) ([]CategoryCount, error)
}

// Writer is implemented by stores that can be seeded with documents.
type Writer interface {
	Insert(ctx context.Context, docs ...SourceDocument) error
}

// SourceDocument is one stored blog article.
type SourceDocument struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Summary       string    `json:"summary"`
	Topic         string    `json:"topic"`
	TopicCategory string    `json:"topicCategory"`
	Tags          []string  `json:"tags"`
	AuthorName    string    `json:"authorName"`
	AuthorEmail   string    `json:"authorEmail"`
	Description   string    `json:"description"`
	Views         int64     `json:"views"`
	Likes         int64     `json:"likes"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Filter selects documents. Terms match case-insensitively as substrings of
// the title, summary, topic, category, tags or content; a document matches
// when any term does. An empty filter matches everything. Limit <= 0 means
// no limit.
type Filter struct {
	Terms    []string
	Category string
	Limit    int
}

// CategoryCount is a category name with its document count.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// Matches reports whether doc satisfies f. Stores without a query language
// use it directly; the others mirror it in their own dialect.
func (f Filter) Matches(doc SourceDocument) bool {
	if f.Category != "" && doc.TopicCategory != f.Category {
		return false
	}
	terms := f.NormalizedTerms()
	if len(terms) == 0 {
		return true
	}
	fields := []string{
		strings.ToLower(doc.Title),
		strings.ToLower(doc.Summary),
		strings.ToLower(doc.Topic),
		strings.ToLower(doc.TopicCategory),
		strings.ToLower(strings.Join(doc.Tags, " ")),
		strings.ToLower(doc.Content),
	}
	for _, term := range terms {
		for _, field := range fields {
			if strings.Contains(field, term) {
				return true
			}
		}
	}
	return false
}

// NormalizedTerms returns the lowercased, non-empty terms of f.
func (f Filter) NormalizedTerms() []string {
	var out []string
	for _, t := range f.Terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// QueryTerms splits a free-text query on spaces and keeps words longer than
// two characters.
func QueryTerms(query string) []string {
	var out []string
	for _, w := range strings.Fields(query) {
		if len([]rune(w)) > 2 {
			out = append(out, w)
		}
	}
	return out
}
