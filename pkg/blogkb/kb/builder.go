package kb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/cognicore/blogkb/pkg/blogkb/internalerr"
	"github.com/cognicore/blogkb/pkg/blogkb/store"
)

// Builder runs the whole batch: read every blog, process each one, relate
// them and assemble the artifact. Concurrent builds are not supported.
type Builder struct {
	store     store.Store
	processor *Processor
	assembler *Assembler
	logger    *zap.Logger
	workers   int
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithProcessor replaces the default processor.
func WithProcessor(p *Processor) BuilderOption {
	return func(b *Builder) { b.processor = p }
}

// WithAssembler replaces the default assembler.
func WithAssembler(a *Assembler) BuilderOption {
	return func(b *Builder) { b.assembler = a }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// WithWorkers processes documents on a pool of n goroutines. n <= 1 keeps
// the sequential loop.
func WithWorkers(n int) BuilderOption {
	return func(b *Builder) { b.workers = n }
}

// NewBuilder creates a builder reading from st.
func NewBuilder(st store.Store, opts ...BuilderOption) *Builder {
	b := &Builder{
		store:     st,
		processor: NewProcessor(nil, nil),
		assembler: NewAssembler(),
		logger:    zap.NewNop(),
		workers:   1,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build produces a fresh knowledge base. Documents whose extraction fails are
// logged and left out. An empty store is reported as internalerr.ErrNotFound.
func (b *Builder) Build(ctx context.Context) (*KnowledgeBase, error) {
	runID := ulid.Make().String()
	log := b.logger.With(zap.String("run", runID))
	start := time.Now()

	docs, err := b.store.Find(ctx, store.Filter{})
	if err != nil {
		return nil, fmt.Errorf("fetch blogs: %v: %w", err, internalerr.ErrStoreUnavailable)
	}
	if len(docs) == 0 {
		log.Warn("no blogs found in store")
		return nil, fmt.Errorf("no blogs in store: %w", internalerr.ErrNotFound)
	}
	log.Info("fetched blogs", zap.Int("count", len(docs)))

	exts, err := b.processAll(ctx, log, docs)
	if err != nil {
		return nil, err
	}
	log.Info("processed blogs", zap.Int("processed", len(exts)), zap.Int("skipped", len(docs)-len(exts)))

	log.Info("building relationships")
	rels := BuildRelationships(exts)
	processed := make([]ProcessedDocument, len(exts))
	for i := range exts {
		processed[i] = Compose(exts[i], rels[i])
	}

	log.Info("assembling knowledge base")
	kb := b.assembler.Assemble(processed)

	s := kb.Metadata.Stats
	log.Info("knowledge base built",
		zap.Int("blogs", s.TotalBlogs),
		zap.Int("words", s.TotalWords),
		zap.Int("categories", s.TotalCategories),
		zap.Int("topics", s.TotalTopics),
		zap.Int("concepts", s.TotalConcepts),
		zap.Int("avg_reading_minutes", s.AvgReadingTime),
		zap.Int("qa_pairs", len(kb.QAKnowledge)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return kb, nil
}

type processResult struct {
	ext DocumentExtraction
	err error
}

// processAll keeps input order regardless of the worker count.
func (b *Builder) processAll(ctx context.Context, log *zap.Logger, docs []store.SourceDocument) ([]DocumentExtraction, error) {
	results := make([]processResult, len(docs))

	if b.workers <= 1 {
		for i, doc := range docs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			log.Debug("processing blog", zap.Int("index", i+1), zap.Int("total", len(docs)), zap.String("title", shorten(doc.Title, 50)))
			results[i].ext, results[i].err = b.processor.Process(doc)
		}
	} else {
		pool, err := ants.NewPool(b.workers)
		if err != nil {
			return nil, fmt.Errorf("create worker pool: %w", err)
		}
		defer pool.Release()

		var wg sync.WaitGroup
		for i := range docs {
			if err := ctx.Err(); err != nil {
				wg.Wait()
				return nil, err
			}
			i := i
			wg.Add(1)
			if err := pool.Submit(func() {
				defer wg.Done()
				log.Debug("processing blog", zap.Int("index", i+1), zap.Int("total", len(docs)), zap.String("title", shorten(docs[i].Title, 50)))
				results[i].ext, results[i].err = b.processor.Process(docs[i])
			}); err != nil {
				wg.Done()
				results[i].err = fmt.Errorf("submit blog %s: %w", docs[i].ID, err)
			}
		}
		wg.Wait()
	}

	out := make([]DocumentExtraction, 0, len(docs))
	seen := make(map[string]struct{}, len(docs))
	for i, r := range results {
		if r.err != nil {
			log.Warn("skipping blog", zap.String("id", docs[i].ID), zap.Error(r.err))
			continue
		}
		if _, dup := seen[r.ext.ID]; dup {
			log.Warn("skipping duplicate blog id", zap.String("id", r.ext.ID))
			continue
		}
		seen[r.ext.ID] = struct{}{}
		out = append(out, r.ext)
	}
	return out, nil
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
