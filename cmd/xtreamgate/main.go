package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/voyagen/xtreamgate/internal/cache"
	"github.com/voyagen/xtreamgate/internal/config"
	"github.com/voyagen/xtreamgate/internal/logging"
	"github.com/voyagen/xtreamgate/internal/server"
	"github.com/voyagen/xtreamgate/internal/service"
	"github.com/voyagen/xtreamgate/internal/store"
	"github.com/voyagen/xtreamgate/internal/xtream"
)

func main() {
	configPath := flag.String("config", "", "Optional config file path (YAML); else use env DATABASE_URL")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appStore, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("store")
	}
	defer closeStore()

	// Connect to Redis if REDIS_URL is configured.
	var rds *cache.Redis
	var responses cache.Responses = cache.NewMemorySize(cfg.ResponseCacheMB << 20)
	var locker cache.Locker = cache.NewLocalLocker()
	if cfg.RedisURL != "" {
		rds, err = cache.New(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("redis")
		}
		defer rds.Close()

		if err := rds.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("redis ping")
		}

		appStore = store.NewCachedStore(appStore, rds)
		responses = cache.NewRedisResponses(rds)
		locker = cache.NewRedisLocker(rds)
		log.Info().Msg("redis connected (shared caching and background refresh enabled)")
	} else {
		log.Info().Msg("redis disabled (REDIS_URL not set)")
	}

	bulk, err := cache.NewBulk(cache.BulkOptions{
		Dir:         cfg.DataDir,
		GuideTTL:    cfg.GuideTTL,
		PlaylistTTL: cfg.PlaylistTTL,
		ServeStale:  cfg.ServeStaleOnError,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("bulk cache")
	}

	upstream := xtream.New(xtream.Options{
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
		Responses: responses,
		CacheTTL:  cfg.CacheTTL,
		RPS:       cfg.UpstreamRPS,
	})
	engine := service.New(cfg, service.Deps{
		Store:     appStore,
		Upstream:  upstream,
		Bulk:      bulk,
		Responses: responses,
		Locker:    locker,
	})

	if err := engine.SeedAccounts(ctx, cfg.Accounts); err != nil {
		log.Fatal().Err(err).Msg("seed accounts")
	}

	if rds != nil {
		go runRefreshWorker(ctx, rds, engine)
	}

	srv := server.New(engine, cfg, rds)
	if err := srv.ListenAndServe(ctx); err != nil {
		log.Fatal().Err(err).Msg("server")
	}
}

// openStore returns the in-process store for memory:// and PostgreSQL
// otherwise, after waiting for the database and applying migrations.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	if store.IsMemoryDSN(cfg.DatabaseURL) {
		log.Warn().Msg("using in-memory store; data is lost on exit")
		return store.NewMemory(), func() {}, nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err := store.WaitForDatabase(waitCtx, cfg.DatabaseURL, 2*time.Second); err != nil {
		return nil, nil, err
	}

	if err := store.RunMigrations(cfg.DatabaseURL, "file://"+migrationsDir()); err != nil {
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}

	pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("db: %w", err)
	}
	return pg, pg.Close, nil
}

// migrationsDir resolves ./migrations, falling back to the directory next
// to the executable.
func migrationsDir() string {
	abs, err := filepath.Abs("migrations")
	if err != nil {
		abs = "migrations"
	}
	if _, err := os.Stat(abs); err != nil {
		if exe, e := os.Executable(); e == nil {
			abs = filepath.Join(filepath.Dir(exe), "migrations")
		}
	}
	return abs
}

// runRefreshWorker continuously dequeues category refresh jobs from Redis
// and reconciles them. It stops when ctx is cancelled.
func runRefreshWorker(ctx context.Context, rds *cache.Redis, engine *service.Engine) {
	log.Info().Msg("refresh worker started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("refresh worker stopping")
			return
		default:
		}

		job, err := cache.Dequeue(ctx, rds, cache.DefaultQueue, 5*time.Second)
		if err != nil {
			log.Error().Err(err).Msg("refresh worker: dequeue")
			time.Sleep(2 * time.Second)
			continue
		}
		if job == nil {
			continue // timeout, loop back to check ctx
		}

		results, err := engine.ProcessRefreshJob(ctx, *job)
		if err != nil {
			log.Error().Err(err).Str("account", job.AccountID).Str("content_type", job.ContentType).Msg("refresh worker: job failed")
		}
		for ct, res := range results {
			for _, c := range res.NewCategories {
				log.Info().Str("account", job.AccountID).Str("content_type", ct).
					Str("category_id", string(c.ID)).Str("category_name", c.Name).
					Msg("new upstream category")
			}
		}
	}
}
