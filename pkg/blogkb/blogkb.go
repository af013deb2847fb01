// Package blogkb is the entry point to the blog knowledge base: it builds the
// knowledge-base artifact from the document store and answers chat queries
// by ranking stored blogs and grounding an LLM on them.
package blogkb

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cognicore/blogkb/pkg/blogkb/cards"
	"github.com/cognicore/blogkb/pkg/blogkb/extract"
	"github.com/cognicore/blogkb/pkg/blogkb/internalerr"
	"github.com/cognicore/blogkb/pkg/blogkb/kb"
	"github.com/cognicore/blogkb/pkg/blogkb/rank"
	"github.com/cognicore/blogkb/pkg/blogkb/store"
)

// Limits bounds retrieval and conversation size.
type Limits struct {
	TopK            int
	HistoryLimit    int
	TextSearchLimit int
	FallbackLimit   int
	// TopCategories is how many categories the platform summary lists.
	TopCategories int
}

// DefaultLimits returns the limits used when Options leaves them zero.
func DefaultLimits() Limits {
	return Limits{
		TopK:            rank.DefaultTopK,
		HistoryLimit:    8,
		TextSearchLimit: 10,
		FallbackLimit:   15,
		TopCategories:   5,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.TopK <= 0 {
		l.TopK = d.TopK
	}
	if l.HistoryLimit <= 0 {
		l.HistoryLimit = d.HistoryLimit
	}
	if l.TextSearchLimit <= 0 {
		l.TextSearchLimit = d.TextSearchLimit
	}
	if l.FallbackLimit <= 0 {
		l.FallbackLimit = d.FallbackLimit
	}
	if l.TopCategories <= 0 {
		l.TopCategories = d.TopCategories
	}
	return l
}

// Options configures an Engine. Only Store is required.
type Options struct {
	Store     store.Store
	Builder   *kb.Builder
	Extractor *extract.Extractor
	Scorer    *rank.Scorer
	LLM       LLM
	Cards     *cards.Builder
	Logger    *zap.Logger
	Limits    Limits
}

// Engine is the main blog knowledge base facade
type Engine struct {
	store     store.Store
	builder   *kb.Builder
	extractor *extract.Extractor
	scorer    *rank.Scorer
	llm       LLM
	cards     *cards.Builder
	logger    *zap.Logger
	limits    Limits
}

// New creates an Engine with the given dependencies
func New(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("%w: store is required", internalerr.ErrInvalidConfig)
	}
	e := &Engine{
		store:     opts.Store,
		builder:   opts.Builder,
		extractor: opts.Extractor,
		scorer:    opts.Scorer,
		llm:       opts.LLM,
		cards:     opts.Cards,
		logger:    opts.Logger,
		limits:    opts.Limits.withDefaults(),
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.extractor == nil {
		e.extractor = extract.Default()
	}
	if e.scorer == nil {
		e.scorer = rank.NewDefaultScorer()
	}
	if e.cards == nil {
		e.cards = cards.New()
	}
	if e.builder == nil {
		e.builder = kb.NewBuilder(e.store,
			kb.WithProcessor(kb.NewProcessor(e.extractor, nil)),
			kb.WithLogger(e.logger))
	}
	return e, nil
}

// Close cleanly shuts down the engine and its store
func (e *Engine) Close() error {
	return e.store.Close()
}

// BuildKnowledgeBase runs the batch pipeline and atomically replaces the
// artifact at path. On any failure the previous artifact is left untouched.
func (e *Engine) BuildKnowledgeBase(ctx context.Context, path string) (*kb.KnowledgeBase, error) {
	base, err := e.builder.Build(ctx)
	if err != nil {
		return nil, err
	}
	n, err := kb.WriteArtifact(path, base)
	if err != nil {
		return nil, err
	}
	e.logger.Info("knowledge base written",
		zap.String("path", path),
		zap.Int("bytes", n),
		zap.Int("blogs", len(base.Blogs)))
	return base, nil
}

// Retrieve returns the stored blogs most relevant to query, best first.
// Candidates come from the store's text search; when that is unavailable the
// query words are matched as substrings instead. A query matching nothing
// yields an empty result. internalerr.ErrQueryFailed means neither path
// could reach the store.
func (e *Engine) Retrieve(ctx context.Context, query string) ([]rank.Scored, error) {
	candidates, err := e.store.TextSearch(ctx, query, e.limits.TextSearchLimit)
	if err != nil {
		e.logger.Debug("text search failed, using substring fallback", zap.Error(err))
		candidates, err = e.fallbackCandidates(ctx, query)
		if err != nil {
			e.logger.Warn("fallback search failed", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", internalerr.ErrQueryFailed, err)
		}
	}
	return e.scorer.Rank(query, candidates, e.limits.TopK), nil
}

func (e *Engine) fallbackCandidates(ctx context.Context, query string) ([]store.SourceDocument, error) {
	terms := store.QueryTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}
	return e.store.Find(ctx, store.Filter{Terms: terms, Limit: e.limits.FallbackLimit})
}

// PlatformStats reads the collection summary shown to the LLM.
func (e *Engine) PlatformStats(ctx context.Context) (PlatformStats, error) {
	total, err := e.store.Count(ctx, store.Filter{})
	if err != nil {
		return PlatformStats{}, fmt.Errorf("count blogs: %v: %w", err, internalerr.ErrStoreUnavailable)
	}
	top, err := e.store.TopCategories(ctx, e.limits.TopCategories)
	if err != nil {
		return PlatformStats{}, fmt.Errorf("top categories: %v: %w", err, internalerr.ErrStoreUnavailable)
	}
	return PlatformStats{TotalBlogs: total, TopCategories: top}, nil
}
