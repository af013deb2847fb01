package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/blogkb/pkg/blogkb/internalerr"
	"github.com/cognicore/blogkb/pkg/blogkb/store"
)

// Store is an in-memory implementation of store.Store for tests and small
// fixtures.
type Store struct {
	mu     sync.RWMutex
	docs   map[string]store.SourceDocument
	order  []string
	noText bool
}

// Option configures a Store.
type Option func(*Store)

// WithoutTextSearch makes TextSearch report internalerr.ErrTextSearchUnsupported,
// the way a document store without a text index behaves.
func WithoutTextSearch() Option {
	return func(s *Store) { s.noText = true }
}

// New creates a new in-memory store.
func New(opts ...Option) *Store {
	s := &Store{docs: make(map[string]store.SourceDocument)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// Insert adds or replaces documents keyed by ID. Documents without an ID get
// a fresh ULID.
func (s *Store) Insert(ctx context.Context, docs ...store.SourceDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range docs {
		if d.ID == "" {
			d.ID = ulid.Make().String()
		}
		if _, ok := s.docs[d.ID]; !ok {
			s.order = append(s.order, d.ID)
		}
		s.docs[d.ID] = copyDoc(d)
	}
	return nil
}

// Find returns matching documents, newest first.
func (s *Store) Find(ctx context.Context, f store.Filter) ([]store.SourceDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.SourceDocument
	for _, id := range s.order {
		doc := s.docs[id]
		if f.Matches(doc) {
			out = append(out, copyDoc(doc))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// TextSearch approximates a text index over title, summary and content: a
// document scores one point per occurrence of each query word and documents
// without any occurrence are left out.
func (s *Store) TextSearch(ctx context.Context, query string, limit int) ([]store.SourceDocument, error) {
	if s.noText {
		return nil, internalerr.ErrTextSearchUnsupported
	}

	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		doc   store.SourceDocument
		score int
	}
	var results []scored
	for _, id := range s.order {
		doc := s.docs[id]
		text := strings.ToLower(doc.Title + " " + doc.Summary + " " + doc.Content)
		score := 0
		for _, w := range words {
			score += strings.Count(text, w)
		}
		if score > 0 {
			results = append(results, scored{doc: copyDoc(doc), score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].doc.CreatedAt.After(results[j].doc.CreatedAt)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	out := make([]store.SourceDocument, len(results))
	for i, r := range results {
		out[i] = r.doc
	}
	return out, nil
}

// Count returns the number of matching documents.
func (s *Store) Count(ctx context.Context, f store.Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, doc := range s.docs {
		if f.Matches(doc) {
			n++
		}
	}
	return n, nil
}

// TopCategories returns the largest categories; ties break by name.
func (s *Store) TopCategories(ctx context.Context, limit int) ([]store.CategoryCount, error) {
	s.mu.RLock()
	counts := make(map[string]int64)
	for _, doc := range s.docs {
		counts[doc.TopicCategory]++
	}
	s.mu.RUnlock()

	out := make([]store.CategoryCount, 0, len(counts))
	for cat, n := range counts {
		out = append(out, store.CategoryCount{Category: cat, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func copyDoc(d store.SourceDocument) store.SourceDocument {
	tags := make([]string, len(d.Tags))
	copy(tags, d.Tags)
	d.Tags = tags
	return d
}
