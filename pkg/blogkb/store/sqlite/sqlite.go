package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/bytedance/sonic"
	_ "modernc.org/sqlite"

	"github.com/cognicore/blogkb/pkg/blogkb/internalerr"
	"github.com/cognicore/blogkb/pkg/blogkb/store"
)

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const blogColumns = `b.id, b.title, b.content, b.summary, b.topic, b.topic_category, b.tags,
	b.author_name, b.author_email, b.description, b.views, b.likes, b.created_at, b.updated_at`

// Store implements store.Store on SQLite. Full-text search uses an FTS5 table
// when the engine provides one.
type Store struct {
	db  *sql.DB
	fts bool
}

var (
	_ store.Store  = (*Store)(nil)
	_ store.Writer = (*Store)(nil)
)

// Open opens a SQLite database with WAL mode enabled and creates the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db}
	// A build without FTS5 still serves Find; TextSearch then reports
	// ErrTextSearchUnsupported.
	if _, err := db.ExecContext(ctx, ftsSchema); err == nil {
		s.fts = true
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// TextSearchEnabled reports whether the FTS5 index is available.
func (s *Store) TextSearchEnabled() bool {
	return s.fts
}

const ftsSchema = `
CREATE VIRTUAL TABLE IF NOT EXISTS blogs_fts USING fts5(
	id UNINDEXED,
	title,
	content,
	summary
);`

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS blogs (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL DEFAULT '',
	summary TEXT NOT NULL DEFAULT '',
	topic TEXT NOT NULL DEFAULT '',
	topic_category TEXT NOT NULL DEFAULT '',
	tags TEXT NOT NULL DEFAULT '[]',
	author_name TEXT NOT NULL DEFAULT '',
	author_email TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	views INTEGER NOT NULL DEFAULT 0,
	likes INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL DEFAULT '',
	updated_at TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_blogs_created_at ON blogs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_blogs_topic ON blogs(topic);
CREATE INDEX IF NOT EXISTS idx_blogs_topic_category ON blogs(topic_category);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Insert upserts documents by ID and refreshes their text index rows.
func (s *Store) Insert(ctx context.Context, docs ...store.SourceDocument) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const stmt = `
INSERT INTO blogs (id, title, content, summary, topic, topic_category, tags,
	author_name, author_email, description, views, likes, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	title=excluded.title,
	content=excluded.content,
	summary=excluded.summary,
	topic=excluded.topic,
	topic_category=excluded.topic_category,
	tags=excluded.tags,
	author_name=excluded.author_name,
	author_email=excluded.author_email,
	description=excluded.description,
	views=excluded.views,
	likes=excluded.likes,
	created_at=excluded.created_at,
	updated_at=excluded.updated_at;
`
	for _, d := range docs {
		if d.ID == "" {
			return fmt.Errorf("insert blog %q: missing id: %w", d.Title, internalerr.ErrInvalidInput)
		}
		tags, err := sonic.MarshalString(nonNil(d.Tags))
		if err != nil {
			return fmt.Errorf("encode tags: %w", err)
		}
		if _, err := tx.ExecContext(ctx, stmt,
			d.ID, d.Title, d.Content, d.Summary, d.Topic, d.TopicCategory, tags,
			d.AuthorName, d.AuthorEmail, d.Description, d.Views, d.Likes,
			formatTime(d.CreatedAt), formatTime(d.UpdatedAt),
		); err != nil {
			return fmt.Errorf("insert blog %s: %w", d.ID, err)
		}

		if !s.fts {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM blogs_fts WHERE id=?`, d.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO blogs_fts (id, title, content, summary) VALUES (?, ?, ?, ?)`,
			d.ID, d.Title, d.Content, d.Summary,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Find returns matching documents, newest first.
func (s *Store) Find(ctx context.Context, f store.Filter) ([]store.SourceDocument, error) {
	where, args := whereClause(f)
	query := `SELECT ` + blogColumns + ` FROM blogs b` + where + ` ORDER BY b.created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find blogs: %w", err)
	}
	defer rows.Close()
	return scanDocs(rows)
}

// TextSearch ranks documents by bm25 over title, content and summary. Any
// query word may match.
func (s *Store) TextSearch(ctx context.Context, query string, limit int) ([]store.SourceDocument, error) {
	if !s.fts {
		return nil, internalerr.ErrTextSearchUnsupported
	}
	match := matchExpression(query)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT `+blogColumns+`
FROM blogs_fts f
JOIN blogs b ON b.id = f.id
WHERE blogs_fts MATCH ?
ORDER BY bm25(blogs_fts)
LIMIT ?;
`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}
	defer rows.Close()
	return scanDocs(rows)
}

// Count returns the number of matching documents.
func (s *Store) Count(ctx context.Context, f store.Filter) (int64, error) {
	where, args := whereClause(f)
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blogs b`+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count blogs: %w", err)
	}
	return n, nil
}

// TopCategories returns the largest categories; ties break by name.
func (s *Store) TopCategories(ctx context.Context, limit int) ([]store.CategoryCount, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT topic_category, COUNT(*) AS n
FROM blogs
GROUP BY topic_category
ORDER BY n DESC, topic_category ASC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("top categories: %w", err)
	}
	defer rows.Close()

	var out []store.CategoryCount
	for rows.Next() {
		var c store.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// whereClause mirrors store.Filter.Matches in SQL.
func whereClause(f store.Filter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if f.Category != "" {
		conds = append(conds, `b.topic_category = ?`)
		args = append(args, f.Category)
	}

	terms := f.NormalizedTerms()
	if len(terms) > 0 {
		fields := []string{"b.title", "b.summary", "b.topic", "b.topic_category", "b.tags", "b.content"}
		var ors []string
		for _, term := range terms {
			pattern := "%" + escapeLike(term) + "%"
			for _, field := range fields {
				ors = append(ors, `lower(`+field+`) LIKE ? ESCAPE '\'`)
				args = append(args, pattern)
			}
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// matchExpression turns free text into an FTS5 OR query of quoted words.
func matchExpression(query string) string {
	words := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		quoted = append(quoted, `"`+w+`"`)
	}
	return strings.Join(quoted, " OR ")
}

type rowScanner interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanDocs(rows rowScanner) ([]store.SourceDocument, error) {
	var out []store.SourceDocument
	for rows.Next() {
		var (
			d                store.SourceDocument
			tags             string
			created, updated string
		)
		if err := rows.Scan(
			&d.ID, &d.Title, &d.Content, &d.Summary, &d.Topic, &d.TopicCategory, &tags,
			&d.AuthorName, &d.AuthorEmail, &d.Description, &d.Views, &d.Likes, &created, &updated,
		); err != nil {
			return nil, err
		}
		// Unreadable tags degrade to none rather than losing the row.
		if tags != "" {
			if err := sonic.UnmarshalString(tags, &d.Tags); err != nil {
				d.Tags = nil
			}
		}
		d.CreatedAt = parseTime(created)
		d.UpdatedAt = parseTime(updated)
		out = append(out, d)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
