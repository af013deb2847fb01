package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/blogkb/internal/corpus"
	"github.com/cognicore/blogkb/internal/llm"
	"github.com/cognicore/blogkb/internal/logging"
	"github.com/cognicore/blogkb/pkg/blogkb"
	"github.com/cognicore/blogkb/pkg/blogkb/config"
	"github.com/cognicore/blogkb/pkg/blogkb/kb"
	"github.com/cognicore/blogkb/pkg/blogkb/rank"
	"github.com/cognicore/blogkb/pkg/blogkb/store"
	"github.com/cognicore/blogkb/pkg/blogkb/store/memstore"
	"github.com/cognicore/blogkb/pkg/blogkb/store/mongostore"
	"github.com/cognicore/blogkb/pkg/blogkb/store/sqlite"
)

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
	seedPath   string

	settings *config.Settings
	logger   *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "blogkb",
		Short:         "Blog knowledge base builder and chat assistant",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "config file (YAML)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&a.seedPath, "seed", "", "JSONL file loaded into the store before running")

	root.AddCommand(
		newUpdateKBCmd(a),
		newAskCmd(a),
		newImportCmd(a),
		newServeCmd(a),
		newStatsCmd(a),
	)
	return root
}

func (a *app) init() error {
	settings, err := config.LoadSettings(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		settings.Log.Level = a.logLevel
	}
	logger, err := logging.New(settings.Log.Level, settings.Log.Development)
	if err != nil {
		return err
	}
	a.settings = settings
	a.logger = logger
	return nil
}

// openStore opens the configured document store and applies --seed.
func (a *app) openStore(ctx context.Context) (store.Store, error) {
	s := a.settings.Store

	var st store.Store
	switch s.Driver {
	case config.DriverMongo:
		ms, err := mongostore.Open(ctx, mongostore.Options{
			URI:        s.URI,
			Database:   s.Database,
			Collection: s.Collection,
			Timeout:    s.Timeout,
			Logger:     a.logger,
		})
		if err != nil {
			return nil, err
		}
		st = ms
	case config.DriverSQLite:
		ss, err := sqlite.Open(ctx, s.Path)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		st = ss
	default:
		st = memstore.New()
	}
	a.logger.Debug("store opened", zap.String("driver", s.Driver))

	if a.seedPath != "" {
		if _, err := a.seed(ctx, st, a.seedPath, corpus.DefaultBatchSize); err != nil {
			st.Close()
			return nil, err
		}
	}
	return st, nil
}

func (a *app) seed(ctx context.Context, st store.Store, path string, batch int) (int, error) {
	w, ok := st.(store.Writer)
	if !ok {
		return 0, fmt.Errorf("store driver %q cannot be written to", a.settings.Store.Driver)
	}
	docs, err := corpus.LoadFromJSONL(path, a.logger)
	if err != nil {
		return 0, err
	}
	n, err := corpus.Import(ctx, w, docs, batch)
	if err != nil {
		return n, err
	}
	a.logger.Info("seeded store", zap.String("file", path), zap.Int("blogs", n))
	return n, nil
}

// newEngine wires the engine over st. The LLM is only configured when
// withLLM is set.
func (a *app) newEngine(st store.Store, withLLM bool) (*blogkb.Engine, error) {
	s := a.settings

	comp, err := config.LoadComponents(s.KB.Rules)
	if err != nil {
		return nil, err
	}

	assembler := kb.NewAssembler()
	assembler.Name = s.KB.Name
	assembler.Version = s.KB.Version
	assembler.Description = s.KB.Description
	assembler.PoweredBy = s.KB.PoweredBy

	builder := kb.NewBuilder(st,
		kb.WithProcessor(kb.NewProcessor(comp.Extractor, comp.Tokenizer)),
		kb.WithAssembler(assembler),
		kb.WithLogger(a.logger),
		kb.WithWorkers(s.KB.Workers),
	)

	opts := blogkb.Options{
		Store:     st,
		Builder:   builder,
		Extractor: comp.Extractor,
		Scorer:    rank.NewScorer(rank.DefaultWeights(), s.Chat.ContentWindow),
		Logger:    a.logger,
		Limits: blogkb.Limits{
			TopK:            s.Chat.TopK,
			HistoryLimit:    s.Chat.HistoryLimit,
			TextSearchLimit: s.Chat.TextSearchLimit,
			FallbackLimit:   s.Chat.FallbackLimit,
		},
	}
	if withLLM {
		client, err := llm.New(llm.Config{
			BaseURL:   s.LLM.BaseURL,
			APIKey:    s.LLM.APIKey,
			Model:     s.LLM.Model,
			MaxTokens: s.LLM.MaxTokens,
			Timeout:   s.LLM.Timeout,
		})
		if err != nil {
			return nil, err
		}
		opts.LLM = client
	}
	return blogkb.New(opts)
}
