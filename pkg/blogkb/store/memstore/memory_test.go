package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/blogkb/pkg/blogkb/internalerr"
	"github.com/cognicore/blogkb/pkg/blogkb/store"
)

func seeded(t *testing.T, opts ...Option) *Store {
	t.Helper()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New(opts...)
	require.NoError(t, s.Insert(context.Background(),
		store.SourceDocument{ID: "a", Title: "Quantum Computing Explained", Topic: "Quantum Computing",
			TopicCategory: "Science", Content: "Qubits and quantum gates.", CreatedAt: base},
		store.SourceDocument{ID: "b", Title: "Roman Roads", Topic: "Rome", TopicCategory: "History",
			Tags: []string{"Engineering"}, Content: "Roads built to last.", CreatedAt: base.Add(time.Hour)},
		store.SourceDocument{ID: "c", Title: "Cell Biology", Topic: "Cells", TopicCategory: "Science",
			Summary: "A quantum leap in microscopy.", CreatedAt: base.Add(2 * time.Hour)},
	))
	return s
}

func TestFindNewestFirst(t *testing.T) {
	s := seeded(t)
	docs, err := s.Find(context.Background(), store.Filter{})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{docs[0].ID, docs[1].ID, docs[2].ID})
}

func TestFindTermsAndCategory(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	docs, err := s.Find(ctx, store.Filter{Terms: []string{"QUANTUM"}})
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = s.Find(ctx, store.Filter{Terms: []string{"engineering"}})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "b", docs[0].ID)

	docs, err = s.Find(ctx, store.Filter{Category: "Science", Limit: 1})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "c", docs[0].ID)
}

func TestTextSearch(t *testing.T) {
	s := seeded(t)
	docs, err := s.TextSearch(context.Background(), "quantum", 10)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID, "two occurrences should outrank one")
}

func TestTextSearchUnsupported(t *testing.T) {
	s := seeded(t, WithoutTextSearch())
	_, err := s.TextSearch(context.Background(), "quantum", 10)
	assert.ErrorIs(t, err, internalerr.ErrTextSearchUnsupported)
}

func TestCountAndTopCategories(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	n, err := s.Count(ctx, store.Filter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	cats, err := s.TopCategories(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []store.CategoryCount{{Category: "Science", Count: 2}, {Category: "History", Count: 1}}, cats)
}

func TestInsertAssignsIDAndCopies(t *testing.T) {
	s := New()
	tags := []string{"x"}
	require.NoError(t, s.Insert(context.Background(), store.SourceDocument{Title: "Untitled", Tags: tags}))
	tags[0] = "mutated"

	docs, err := s.Find(context.Background(), store.Filter{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.NotEmpty(t, docs[0].ID)
	assert.Equal(t, []string{"x"}, docs[0].Tags)
}
