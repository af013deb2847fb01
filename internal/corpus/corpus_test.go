package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cognicore/blogkb/pkg/blogkb/store"
	"github.com/cognicore/blogkb/pkg/blogkb/store/memstore"
)

const sample = `{"id":"a1","title":"Quantum Computing Explained","topic":"Quantum Computing","topicCategory":"Technology","tags":["qubits"],"content":"Qubits.","views":10,"likes":2,"createdAt":"2025-01-02T03:04:05Z"}

not json at all
{"_id":"65f0c0ffee","title":"Baking Bread","content":"Flour."}
`

func TestLoad(t *testing.T) {
	docs, err := Load(strings.NewReader(sample), zap.NewNop())
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "a1", docs[0].ID)
	assert.Equal(t, "Technology", docs[0].TopicCategory)
	assert.Equal(t, []string{"qubits"}, docs[0].Tags)
	assert.Equal(t, int64(10), docs[0].Views)
	assert.True(t, docs[0].CreatedAt.Equal(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)))

	assert.Equal(t, "65f0c0ffee", docs[1].ID)
	assert.Equal(t, "Baking Bread", docs[1].Title)
}

func TestLoadNoValidLines(t *testing.T) {
	_, err := Load(strings.NewReader("\n{broken\n"), nil)
	assert.Error(t, err)
}

func TestLoadFromJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blogs.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	docs, err := LoadFromJSONL(path, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	_, err = LoadFromJSONL(filepath.Join(t.TempDir(), "missing.jsonl"), zap.NewNop())
	assert.Error(t, err)
}

type failingWriter struct{ calls int }

func (w *failingWriter) Insert(context.Context, ...store.SourceDocument) error {
	w.calls++
	if w.calls > 1 {
		return errors.New("disk full")
	}
	return nil
}

func TestImport(t *testing.T) {
	docs := make([]store.SourceDocument, 5)
	for i := range docs {
		docs[i] = store.SourceDocument{ID: string(rune('a' + i)), Title: "t"}
	}

	st := memstore.New()
	n, err := Import(context.Background(), st, docs, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	count, err := st.Count(context.Background(), store.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	n, err = Import(context.Background(), &failingWriter{}, docs, 2)
	assert.Error(t, err)
	assert.Equal(t, 2, n)
}
