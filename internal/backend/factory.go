package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"spendtrack/internal/amqp"
	"spendtrack/internal/classifier"
	"spendtrack/internal/parser"
	"spendtrack/internal/parser/llm"
	"spendtrack/internal/receipt"
	"spendtrack/internal/services"
	"spendtrack/internal/store"
	"spendtrack/internal/store/memory"
	"spendtrack/internal/store/postgres"
	"spendtrack/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w (valid backends: %v)", err, GetBackendTypeStrings())
	}

	kv, closeKV, err := f.openStore(ctx, config)
	if err != nil {
		return nil, err
	}

	cls, err := f.loadClassifier(config)
	if err != nil {
		_ = closeKV()
		return nil, err
	}

	var extractor receipt.Extractor = receipt.NewStubExtractor(nil)
	var cache *receipt.CachedExtractor
	if config.ReceiptCacheSize > 0 {
		cache, err = receipt.NewCachedExtractor(extractor, int64(config.ReceiptCacheSize))
		if err != nil {
			_ = closeKV()
			return nil, err
		}
		extractor = cache
	}

	opts := []services.Option{
		services.WithClassifier(cls),
		services.WithExtractor(extractor),
		services.WithParser(f.newParser(config, cls)),
	}

	// AMQP is optional; a broker that is down at startup only disables events.
	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
			amqpClient = nil
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			opts = append(opts, services.WithPublisher(amqpClient))
		}
	}

	repo := store.NewRepository(kv)
	svc := services.NewTransactionService(repo, opts...)

	f.logger.Info("Initialized backend",
		"type", config.Type,
		"parser", config.ParserBackend,
		"receipt_cache", config.ReceiptCacheSize,
		"amqp_enabled", amqpClient != nil)

	return &BackendResult{
		Service:    svc,
		Repository: repo,
		Publisher:  amqpClient,
		Cleanup: func() error {
			var errs []error
			if amqpClient != nil {
				errs = append(errs, amqpClient.Close())
			}
			if cache != nil {
				cache.Close()
			}
			errs = append(errs, closeKV())
			return errors.Join(errs...)
		},
	}, nil
}

func (f *DefaultFactory) openStore(ctx context.Context, config Config) (store.KV, CleanupFunc, error) {
	switch config.Type {
	case SQLiteBackend:
		s, err := sqlite.New(config.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.Info("Initialized SQLite store", "db_path", config.SQLiteDBPath)
		return s, s.Close, nil
	case PostgresBackend:
		s, err := postgres.New(ctx, config.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		f.logger.Info("Initialized Postgres store")
		return s, s.Close, nil
	case MemoryBackend:
		f.logger.Info("Initialized memory store")
		return memory.New(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) loadClassifier(config Config) (classifier.Classifier, error) {
	if config.CategoryRulesFile == "" {
		return classifier.Default(), nil
	}
	c, err := classifier.LoadRules(config.CategoryRulesFile)
	if err != nil {
		return classifier.Classifier{}, fmt.Errorf("failed to load category rules: %w", err)
	}
	f.logger.Info("Loaded category rules", "file", config.CategoryRulesFile, "rules", len(c.Rules()))
	return c, nil
}

func (f *DefaultFactory) newParser(config Config, cls classifier.Classifier) parser.Parser {
	if config.ParserBackend != LLMParser {
		return parser.NewRulesParser(parser.WithClassifier(cls))
	}
	f.logger.Info("Using LLM transcript parser", "base_url", config.LLMBaseURL, "model", config.LLMModel)
	return llm.New(llm.Config{
		BaseURL: config.LLMBaseURL,
		APIKey:  config.LLMAPIKey,
		Model:   config.LLMModel,
		Timeout: config.LLMTimeout,
	}, cls)
}
