// Package corpus reads blog exports in JSON Lines form and seeds a document
// store with them.
package corpus

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/cognicore/blogkb/pkg/blogkb/store"
)

// maxLine bounds a single JSONL record; blog bodies can be long.
const maxLine = 16 << 20

// DefaultBatchSize is how many documents Import writes per Insert call.
const DefaultBatchSize = 500

// record is one exported blog. Exports taken straight from MongoDB carry
// the identifier as _id.
type record struct {
	store.SourceDocument
	MongoID string `json:"_id"`
}

// LoadFromJSONL loads blogs from a JSONL file. Malformed lines are logged
// and skipped.
func LoadFromJSONL(path string, logger *zap.Logger) ([]store.SourceDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file %s: %w", path, err)
	}
	defer f.Close()

	if logger == nil {
		logger = zap.NewNop()
	}
	docs, err := Load(f, logger.With(zap.String("file", path)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return docs, nil
}

// Load reads JSONL records from r. It fails when no line holds a valid blog.
func Load(r io.Reader, logger *zap.Logger) ([]store.SourceDocument, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var docs []store.SourceDocument
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		var rec record
		if err := sonic.ConfigStd.UnmarshalFromString(text, &rec); err != nil {
			logger.Warn("skipping malformed JSON", zap.Int("line", line), zap.Error(err))
			continue
		}
		doc := rec.SourceDocument
		if doc.ID == "" {
			doc.ID = rec.MongoID
		}
		docs = append(docs, doc)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read line %d: %w", line+1, err)
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("no valid blogs found")
	}
	return docs, nil
}

// Import writes docs to w in batches of batchSize and returns how many were
// written.
func Import(ctx context.Context, w store.Writer, docs []store.SourceDocument, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	written := 0
	for start := 0; start < len(docs); start += batchSize {
		end := start + batchSize
		if end > len(docs) {
			end = len(docs)
		}
		if err := w.Insert(ctx, docs[start:end]...); err != nil {
			return written, fmt.Errorf("insert batch at %d: %w", start, err)
		}
		written = end
	}
	return written, nil
}
