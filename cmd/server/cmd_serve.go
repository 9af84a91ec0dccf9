package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/todmy/reasoning-engine/internal/api"
	"github.com/todmy/reasoning-engine/internal/auth"
	"github.com/todmy/reasoning-engine/internal/embeddings"
	"github.com/todmy/reasoning-engine/internal/network"
	"github.com/todmy/reasoning-engine/internal/storage"
)

// embeddingCacheSize bounds the in-process claim embedding cache
const embeddingCacheSize = 10000

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Starts the HTTP API. Accounts and the analysis archive are enabled when
DATABASE_URL is set; semantic claim similarity when OPENROUTER_API_KEY is set.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, backends, err := newEngine()
	if err != nil {
		return err
	}

	var embedder embeddings.Embedder
	if cfg.Embeddings.APIKey != "" {
		client := embeddings.NewClient(cfg.Embeddings.APIKey,
			embeddings.WithBaseURL(cfg.Embeddings.BaseURL),
			embeddings.WithModel(cfg.Embeddings.Model),
		)
		embedder = embeddings.NewCachedClient(client, embeddings.NewMemoryCache(embeddingCacheSize), logger.Named("embeddings"))
		logger.Info("embeddings configured", zap.String("model", client.Model()))
	}

	analyzer := network.NewAnalyzer(engine, embedder, network.Options{
		Concurrency: cfg.Reasoning.NetworkConcurrency,
		StepLimit:   cfg.Reasoning.MaxStepsLimit,
	}, logger.Named("network"))

	var (
		users    auth.UserRepository
		analyses storage.AnalysisRepository
	)
	if cfg.Database.URL != "" {
		db, err := openDatabase(ctx, cfg.Database.URL, embeddings.GetEmbeddingDimension(cfg.Embeddings.Model))
		if err != nil {
			return err
		}
		defer db.Close()

		users = auth.NewPostgresRepository(db)
		analyses = storage.NewPostgresAnalysisRepository(db)
	} else {
		logger.Warn("DATABASE_URL not set; accounts and the analysis archive are disabled")
	}

	authService := auth.NewJWTService(auth.Config{
		SecretKey:     cfg.Auth.JWTSecret,
		TokenDuration: cfg.Auth.TokenDuration,
	}, users)

	server := api.NewServer(api.ServerConfig{
		Reasoner:       engine,
		Network:        analyzer,
		Auth:           authService,
		Analyses:       analyses,
		Embedder:       embedder,
		LocalModel:     backends.Local != nil,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger.Named("api"),
	})

	logger.Info("starting reasoning engine",
		zap.String("port", cfg.Server.Port),
		zap.Strings("backends", backends.Configured()),
	)
	return server.Run(ctx, ":"+cfg.Server.Port)
}

// openDatabase connects to Postgres and applies the schema
func openDatabase(ctx context.Context, url string, dimension int) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := storage.Migrate(ctx, db, dimension); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
