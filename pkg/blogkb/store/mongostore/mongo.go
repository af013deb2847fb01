// Package mongostore serves blog documents from a MongoDB collection, the
// store the blog application writes to.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/cognicore/blogkb/pkg/blogkb/internalerr"
	"github.com/cognicore/blogkb/pkg/blogkb/store"
)

const (
	DefaultDatabase   = "test"
	DefaultCollection = "blogs"

	// indexNotFoundCode is returned for $text queries on a collection
	// without a text index.
	indexNotFoundCode = 27
)

// Options configures the MongoDB connection.
type Options struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
	Logger     *zap.Logger
}

// Store implements store.Store over a MongoDB collection.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *zap.Logger
}

var (
	_ store.Store  = (*Store)(nil)
	_ store.Writer = (*Store)(nil)
)

// Open connects to MongoDB and verifies the connection with a ping. When
// Database is empty it is taken from the URI path.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.URI == "" {
		return nil, fmt.Errorf("mongodb uri is empty: %w", internalerr.ErrInvalidConfig)
	}
	if opts.Database == "" {
		opts.Database = DatabaseFromURI(opts.URI)
	}
	if opts.Collection == "" {
		opts.Collection = DefaultCollection
	}

	clientOpts := mongoopts.Client().ApplyURI(opts.URI)
	if opts.Timeout > 0 {
		clientOpts.SetConnectTimeout(opts.Timeout)
		clientOpts.SetServerSelectionTimeout(opts.Timeout)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %v: %w", err, internalerr.ErrStoreUnavailable)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %v: %w", err, internalerr.ErrStoreUnavailable)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		client: client,
		coll:   client.Database(opts.Database).Collection(opts.Collection),
		logger: logger,
	}, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var dbNamePattern = regexp.MustCompile(`/([^/?]+)(\?|$)`)

// DatabaseFromURI returns the database named in a connection string's path,
// or DefaultDatabase.
func DatabaseFromURI(uri string) string {
	rest := uri
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	slash := strings.Index(rest, "/")
	if slash < 0 {
		return DefaultDatabase
	}
	if m := dbNamePattern.FindStringSubmatch(rest[slash:]); m != nil {
		return m[1]
	}
	return DefaultDatabase
}

// EnsureIndexes creates the text index used by TextSearch along with the
// sort and lookup indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "topic", Value: 1}}},
		{Keys: bson.D{{Key: "topicCategory", Value: 1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
		{Keys: bson.D{
			{Key: "title", Value: "text"},
			{Key: "content", Value: "text"},
			{Key: "summary", Value: "text"},
		}},
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

// Insert upserts documents by ID. Hex IDs are stored as ObjectIDs.
func (s *Store) Insert(ctx context.Context, docs ...store.SourceDocument) error {
	if len(docs) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(docs))
	for _, d := range docs {
		if d.ID == "" {
			return fmt.Errorf("insert blog %q: missing id: %w", d.Title, internalerr.ErrInvalidInput)
		}
		rec := fromDocument(d)
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": rec.ID}).
			SetReplacement(rec).
			SetUpsert(true))
	}
	if _, err := s.coll.BulkWrite(ctx, models); err != nil {
		return fmt.Errorf("insert blogs: %w", err)
	}
	return nil
}

// Find returns matching documents, newest first.
func (s *Store) Find(ctx context.Context, f store.Filter) ([]store.SourceDocument, error) {
	opts := mongoopts.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	cur, err := s.coll.Find(ctx, buildFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("find blogs: %w", err)
	}
	return decodeAll(ctx, cur, s.logger)
}

// TextSearch runs a $text query ordered by textScore.
func (s *Store) TextSearch(ctx context.Context, query string, limit int) ([]store.SourceDocument, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	score := bson.M{"$meta": "textScore"}
	opts := mongoopts.Find().
		SetProjection(bson.M{"score": score}).
		SetSort(bson.D{{Key: "score", Value: score}}).
		SetLimit(int64(limit))

	cur, err := s.coll.Find(ctx, bson.M{"$text": bson.M{"$search": query}}, opts)
	if err != nil {
		return nil, classifyTextError(err)
	}
	docs, err := decodeAll(ctx, cur, s.logger)
	if err != nil {
		return nil, classifyTextError(err)
	}
	return docs, nil
}

// Count returns the number of matching documents.
func (s *Store) Count(ctx context.Context, f store.Filter) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, buildFilter(f))
	if err != nil {
		return 0, fmt.Errorf("count blogs: %w", err)
	}
	return n, nil
}

// TopCategories groups by topicCategory, largest first.
func (s *Store) TopCategories(ctx context.Context, limit int) ([]store.CategoryCount, error) {
	cur, err := s.coll.Aggregate(ctx, topCategoriesPipeline(limit))
	if err != nil {
		return nil, fmt.Errorf("top categories: %w", err)
	}
	defer cur.Close(ctx)

	var out []store.CategoryCount
	for cur.Next(ctx) {
		var row struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out = append(out, store.CategoryCount{Category: row.ID, Count: row.Count})
	}
	return out, cur.Err()
}

func topCategoriesPipeline(limit int) mongo.Pipeline {
	p := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$topicCategory"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	if limit > 0 {
		p = append(p, bson.D{{Key: "$limit", Value: limit}})
	}
	return p
}

// buildFilter mirrors store.Filter.Matches: terms become one case-insensitive
// alternation tested against every searchable field.
func buildFilter(f store.Filter) bson.M {
	filter := bson.M{}
	if f.Category != "" {
		filter["topicCategory"] = f.Category
	}

	terms := f.NormalizedTerms()
	if len(terms) == 0 {
		return filter
	}
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(t)
	}
	re := primitive.Regex{Pattern: strings.Join(quoted, "|"), Options: "i"}

	fields := []string{"title", "summary", "topic", "topicCategory", "tags", "content"}
	or := make(bson.A, 0, len(fields))
	for _, field := range fields {
		or = append(or, bson.M{field: re})
	}
	filter["$or"] = or
	return filter
}

func classifyTextError(err error) error {
	var srvErr mongo.ServerError
	if errors.As(err, &srvErr) && srvErr.HasErrorCode(indexNotFoundCode) {
		return fmt.Errorf("%v: %w", err, internalerr.ErrTextSearchUnsupported)
	}
	return fmt.Errorf("text search: %w", err)
}

// decodeAll reads every document from cur. A document that does not decode
// into a blog is logged and skipped; only cursor failures are returned.
func decodeAll(ctx context.Context, cur *mongo.Cursor, logger *zap.Logger) ([]store.SourceDocument, error) {
	defer cur.Close(ctx)

	var out []store.SourceDocument
	for cur.Next(ctx) {
		var rec blogRecord
		if err := bson.Unmarshal(cur.Current, &rec); err != nil {
			logger.Warn("skipping undecodable blog",
				zap.String("id", cur.Current.Lookup("_id").String()),
				zap.Error(err))
			continue
		}
		out = append(out, rec.toDocument())
	}
	return out, cur.Err()
}
