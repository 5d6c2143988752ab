// Package app builds the service graph shared by the server and the CLI.
package app

import (
	"context"

	"parentguide-backend/cache"
	"parentguide-backend/catalog"
	"parentguide-backend/config"
	"parentguide-backend/linker"
	"parentguide-backend/provider"
	"parentguide-backend/ratelimit"
	"parentguide-backend/repository"
	"parentguide-backend/service"
	"parentguide-backend/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// App holds the wired components.
type App struct {
	Config       *config.Config
	Catalog      *catalog.Catalog
	Orchestrator *provider.Orchestrator
	Guidance     *service.GuidanceService
	Limiter      *ratelimit.Limiter

	closers []func()
}

// New wires every component from cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	cat, err := LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	a.Catalog = cat

	clients, err := a.initProviders(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Orchestrator = provider.NewOrchestrator(clients, cfg.Providers.Priority)
	if len(a.Orchestrator.Providers()) == 0 {
		zap.L().Warn("no AI provider has a valid API key, every answer will use fallback guidance")
	} else {
		zap.L().Info("AI providers enabled", zap.Strings("providers", a.Orchestrator.Providers()))
	}

	opts := []service.GuidanceServiceOption{
		service.GuidanceWithOrchestrator(a.Orchestrator),
		service.GuidanceWithLinker(linker.New(cat)),
		service.GuidanceWithMode(cfg.AI.Mode),
		service.GuidanceWithSafeMode(cfg.Render.SafeMode),
		service.GuidanceWithCompletionOptions(provider.CompletionOptions{
			MaxTokens:   cfg.Providers.MaxTokens,
			Temperature: cfg.Providers.Temperature,
		}),
		service.GuidanceWithSuggestionService(service.NewSuggestionService(a.Orchestrator,
			service.SuggestWithStrategy(cfg.Resources.Strategy),
			service.SuggestWithPreferredProvider(cfg.Resources.PreferredProvider),
			service.SuggestWithMaxTokens(cfg.Resources.MaxTokens),
		)),
	}

	if cfg.Cache.Enabled || cfg.RateLimit.Enabled {
		store, err := storage.NewStorage(ctx, storage.StorageConfig{
			Type:         storage.StorageType(cfg.Storage.Type),
			LocalPath:    cfg.Storage.LocalPath,
			S3Bucket:     cfg.Storage.S3Bucket,
			S3Region:     cfg.Storage.S3Region,
			AWSAccessKey: cfg.Storage.AccessKeyID,
			AWSSecretKey: cfg.Storage.SecretAccessKey,
		})
		if err != nil {
			a.Close()
			return nil, eris.Wrap(err, "app: initialize storage")
		}
		zap.L().Info("storage initialized", zap.String("type", cfg.Storage.Type))

		if cfg.Cache.Enabled {
			opts = append(opts, service.GuidanceWithResponseCache(cache.New(store, cfg.Cache.TTL)))
		}
		if cfg.RateLimit.Enabled {
			a.Limiter = ratelimit.New(store, cfg.RateLimit.Window, cfg.RateLimit.MaxRequests)
		}
	}

	if cfg.Database.URL != "" {
		pool, err := initPostgres(ctx, cfg.Database.URL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		opts = append(opts, service.GuidanceWithQuestionLogStore(repository.NewQuestionLogRepository(pool)))
	} else {
		zap.L().Info("DATABASE_URL not set, question log disabled")
	}

	a.Guidance = service.NewGuidanceService(opts...)
	return a, nil
}

// Close releases provider clients and the database pool.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// LoadCatalog loads the catalog at path, or the embedded default when path is empty.
func LoadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	cat, err := catalog.LoadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "app: load catalog %s", path)
	}
	return cat, nil
}

func (a *App) initProviders(ctx context.Context) ([]provider.Client, error) {
	p := a.Config.Providers
	vendor := func(v config.VendorConfig) provider.Config {
		return provider.Config{APIKey: v.APIKey, Model: v.Model, BaseURL: v.BaseURL, Timeout: p.Timeout}
	}

	gemini, err := provider.NewGemini(ctx, vendor(p.Gemini))
	if err != nil {
		return nil, eris.Wrap(err, "app: initialize Gemini")
	}
	a.closers = append(a.closers, func() { gemini.Close() })

	return []provider.Client{
		provider.NewOpenAI(vendor(p.OpenAI)),
		provider.NewAnthropic(vendor(p.Anthropic)),
		gemini,
	}, nil
}

func initPostgres(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "app: connect to Postgres")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "app: ping Postgres")
	}

	zap.L().Info("Postgres connection established")
	return pool, nil
}
