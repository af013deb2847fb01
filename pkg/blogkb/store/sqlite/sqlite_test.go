package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/blogkb/pkg/blogkb/internalerr"
	"github.com/cognicore/blogkb/pkg/blogkb/store"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	st, err := Open(context.Background(), filepath.Join(t.TempDir(), "blogs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func fixtures() []store.SourceDocument {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return []store.SourceDocument{
		{ID: "q1", Title: "Quantum Computing Explained", Topic: "Quantum Computing", TopicCategory: "Science",
			Tags: []string{"qubits", "physics"}, Summary: "How qubits compute.",
			Content: "Quantum computing uses qubits. Quantum gates manipulate them.", Views: 10, Likes: 2,
			CreatedAt: base, UpdatedAt: base},
		{ID: "h1", Title: "Roman Roads", Topic: "Rome", TopicCategory: "History",
			Tags: []string{"engineering"}, Content: "Roads built to last 100% of the time.",
			CreatedAt: base.Add(time.Hour), UpdatedAt: base.Add(time.Hour)},
		{ID: "s2", Title: "Cell Biology 101", Topic: "Cells", TopicCategory: "Science",
			Content: "A single quantum of light can damage a cell.",
			CreatedAt: base.Add(2 * time.Hour), UpdatedAt: base.Add(2 * time.Hour)},
	}
}

func TestInsertAndFind(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)
	require.NoError(t, st.Insert(ctx, fixtures()...))

	docs, err := st.Find(ctx, store.Filter{})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "s2", docs[0].ID, "newest first")
	assert.Equal(t, "q1", docs[2].ID)

	q := docs[2]
	assert.Equal(t, []string{"qubits", "physics"}, q.Tags)
	assert.EqualValues(t, 10, q.Views)
	assert.True(t, q.CreatedAt.Equal(fixtures()[0].CreatedAt))
}

func TestInsertUpserts(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)
	docs := fixtures()
	require.NoError(t, st.Insert(ctx, docs...))

	docs[0].Title = "Quantum Computing Revisited"
	require.NoError(t, st.Insert(ctx, docs[0]))

	n, err := st.Count(ctx, store.Filter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	found, err := st.Find(ctx, store.Filter{Terms: []string{"revisited"}})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "q1", found[0].ID)
}

func TestInsertRequiresID(t *testing.T) {
	st := openTemp(t)
	err := st.Insert(context.Background(), store.SourceDocument{Title: "No ID"})
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)
}

func TestFindFilters(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)
	require.NoError(t, st.Insert(ctx, fixtures()...))

	docs, err := st.Find(ctx, store.Filter{Terms: []string{"QUANTUM"}})
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = st.Find(ctx, store.Filter{Terms: []string{"engineering"}})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "h1", docs[0].ID)

	docs, err = st.Find(ctx, store.Filter{Terms: []string{"100%"}})
	require.NoError(t, err)
	require.Len(t, docs, 1, "LIKE wildcards in terms are literal")

	docs, err = st.Find(ctx, store.Filter{Category: "Science", Limit: 1})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "s2", docs[0].ID)

	n, err := st.Count(ctx, store.Filter{Category: "Science"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestTextSearch(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)
	require.NoError(t, st.Insert(ctx, fixtures()...))

	if !st.TextSearchEnabled() {
		_, err := st.TextSearch(ctx, "quantum", 10)
		assert.ErrorIs(t, err, internalerr.ErrTextSearchUnsupported)
		return
	}

	docs, err := st.TextSearch(ctx, "quantum computing?", 10)
	require.NoError(t, err)
	require.NotEmpty(t, docs)
	assert.Equal(t, "q1", docs[0].ID)

	docs, err = st.TextSearch(ctx, "?!", 10)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestTopCategories(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)
	require.NoError(t, st.Insert(ctx, fixtures()...))

	cats, err := st.TopCategories(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []store.CategoryCount{{Category: "Science", Count: 2}, {Category: "History", Count: 1}}, cats)
}

func TestMatchExpression(t *testing.T) {
	assert.Equal(t, `"quantum" OR "ai"`, matchExpression(`Quantum, "AI"?`))
	assert.Equal(t, "", matchExpression("  ...  "))
}

func TestFindKeepsRowWithMalformedTags(t *testing.T) {
	st := openTemp(t)
	ctx := context.Background()
	require.NoError(t, st.Insert(ctx, fixtures()...))

	_, err := st.db.ExecContext(ctx, `UPDATE blogs SET tags = 'not-an-array' WHERE id = 'h1'`)
	require.NoError(t, err)

	docs, err := st.Find(ctx, store.Filter{})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	for _, d := range docs {
		if d.ID == "h1" {
			assert.Empty(t, d.Tags)
		}
	}
}
