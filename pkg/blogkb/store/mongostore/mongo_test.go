package mongostore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cognicore/blogkb/pkg/blogkb/internalerr"
	"github.com/cognicore/blogkb/pkg/blogkb/store"
)

func TestDatabaseFromURI(t *testing.T) {
	cases := map[string]string{
		"mongodb+srv://user:pw@cluster0.example.net/blogdb?retryWrites=true": "blogdb",
		"mongodb://localhost:27017/articles":                                 "articles",
		"mongodb://localhost:27017":                                          DefaultDatabase,
		"mongodb://localhost:27017/":                                         DefaultDatabase,
		"mongodb://localhost:27017/?replicaSet=rs0":                          DefaultDatabase,
	}
	for uri, want := range cases {
		assert.Equal(t, want, DatabaseFromURI(uri), uri)
	}
}

func TestBuildFilterEmpty(t *testing.T) {
	assert.Equal(t, bson.M{}, buildFilter(store.Filter{}))
}

func TestBuildFilterTermsAndCategory(t *testing.T) {
	f := buildFilter(store.Filter{Terms: []string{"Quantum", "c++"}, Category: "Science"})

	assert.Equal(t, "Science", f["topicCategory"])
	or, ok := f["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 6)

	first := or[0].(bson.M)
	re, ok := first["title"].(primitive.Regex)
	require.True(t, ok)
	assert.Equal(t, `quantum|c\+\+`, re.Pattern)
	assert.Equal(t, "i", re.Options)

	last := or[5].(bson.M)
	assert.Contains(t, last, "content")
}

func TestTopCategoriesPipeline(t *testing.T) {
	p := topCategoriesPipeline(5)
	require.Len(t, p, 3)
	assert.Equal(t, "$group", p[0][0].Key)
	assert.Equal(t, "$sort", p[1][0].Key)
	assert.Equal(t, bson.E{Key: "$limit", Value: 5}, p[2][0])

	assert.Len(t, topCategoriesPipeline(0), 2)
}

func TestRecordConversion(t *testing.T) {
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	oid := primitive.NewObjectID()

	doc := store.SourceDocument{ID: oid.Hex(), Title: "T", Views: 3, CreatedAt: now}
	rec := fromDocument(doc)
	assert.Equal(t, oid, rec.ID)
	assert.Equal(t, []string{}, rec.Tags)

	back := rec.toDocument()
	assert.Equal(t, oid.Hex(), back.ID)
	assert.EqualValues(t, 3, back.Views)
	assert.True(t, back.CreatedAt.Equal(now))

	plain := fromDocument(store.SourceDocument{ID: "imported-1"})
	assert.Equal(t, "imported-1", plain.ID)
	assert.Equal(t, "imported-1", plain.toDocument().ID)
}

func TestDecodeAllSkipsMalformedDocuments(t *testing.T) {
	cur, err := mongo.NewCursorFromDocuments([]interface{}{
		bson.D{{Key: "_id", Value: "a"}, {Key: "title", Value: "First"}, {Key: "tags", Value: bson.A{"go"}}},
		bson.D{{Key: "_id", Value: "b"}, {Key: "title", Value: "Broken"}, {Key: "tags", Value: "not-an-array"}},
		bson.D{{Key: "_id", Value: "c"}, {Key: "title", Value: "Third"}},
	}, nil, nil)
	require.NoError(t, err)

	core, logs := observer.New(zapcore.WarnLevel)
	docs, err := decodeAll(context.Background(), cur, zap.New(core))
	require.NoError(t, err)

	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, []string{"go"}, docs[0].Tags)
	assert.Equal(t, "c", docs[1].ID)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["id"], "b")
}

func TestDecodeAllEmptyCursor(t *testing.T) {
	cur, err := mongo.NewCursorFromDocuments(nil, nil, nil)
	require.NoError(t, err)

	docs, err := decodeAll(context.Background(), cur, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestClassifyTextErrorMissingIndex(t *testing.T) {
	err := classifyTextError(mongo.CommandError{Code: indexNotFoundCode, Message: "text index required for $text query"})
	assert.True(t, errors.Is(err, internalerr.ErrTextSearchUnsupported))
}

func TestClassifyTextErrorOtherFailures(t *testing.T) {
	err := classifyTextError(mongo.CommandError{Code: 13, Message: "unauthorized"})
	assert.False(t, errors.Is(err, internalerr.ErrTextSearchUnsupported))
	assert.Contains(t, err.Error(), "text search")

	plain := classifyTextError(errors.New("connection reset"))
	assert.False(t, errors.Is(plain, internalerr.ErrTextSearchUnsupported))
}
