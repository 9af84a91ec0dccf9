package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/todmy/reasoning-engine/internal/analysis"
	"github.com/todmy/reasoning-engine/internal/auth"
	"github.com/todmy/reasoning-engine/internal/embeddings"
	"github.com/todmy/reasoning-engine/internal/logging"
	"github.com/todmy/reasoning-engine/internal/network"
	"github.com/todmy/reasoning-engine/internal/reasoning"
	"github.com/todmy/reasoning-engine/internal/storage"
	"github.com/todmy/reasoning-engine/pkg/models"
)

// Reasoner is the single-claim reasoning surface served over HTTP
type Reasoner interface {
	GenerateChain(ctx context.Context, req reasoning.GenerateRequest) (*reasoning.GenerateResponse, error)
	AnalyzeChain(ctx context.Context, claim string, chain models.ReasoningChain, evidence []string) analysis.Report
	Validate(ctx context.Context, req reasoning.ValidateRequest) (*reasoning.ValidationResult, error)
	IdentifyGaps(ctx context.Context, req reasoning.ValidateRequest) (*reasoning.GapReport, error)
	Strengthen(ctx context.Context, req reasoning.ValidateRequest) (*reasoning.StrengthenResult, error)
	Backends() []string
}

// NetworkAnalyzer reasons about several related claims at once
type NetworkAnalyzer interface {
	Analyze(ctx context.Context, req network.Request) (*network.Result, error)
}

// ServerConfig wires the server's collaborators. Analyses and Embedder may be
// nil: without a database the archive endpoints answer UNAVAILABLE, and without
// an embedder archived analyses carry no claim vector.
type ServerConfig struct {
	Reasoner       Reasoner
	Network        NetworkAnalyzer
	Auth           auth.Service
	Analyses       storage.AnalysisRepository
	Embedder       embeddings.Embedder
	LocalModel     bool
	AllowedOrigins []string
	Logger         *zap.Logger
}

type Server struct {
	router   *chi.Mux
	reasoner Reasoner
	network  NetworkAnalyzer
	auth     auth.Service
	analyses storage.AnalysisRepository
	embedder embeddings.Embedder
	local    bool
	logger   *zap.Logger
}

func NewServer(cfg ServerConfig) *Server {
	logger := logging.OrNop(cfg.Logger)
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:*", "https://*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s := &Server{
		router:   r,
		reasoner: cfg.Reasoner,
		network:  cfg.Network,
		auth:     cfg.Auth,
		analyses: cfg.Analyses,
		embedder: cfg.Embedder,
		local:    cfg.LocalModel,
		logger:   logger,
	}
	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	authHandlers := auth.NewHandlers(s.auth, s.logger.Named("auth"))

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", authHandlers.Register)
		r.Post("/auth/login", authHandlers.Login)

		// Reasoning is public; a valid token only enables archiving
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalMiddleware(s.auth))

			r.Route("/reasoning", func(r chi.Router) {
				r.Post("/generate", s.handleGenerate)
				r.Post("/analyze", s.handleAnalyze)
				r.Post("/validate", s.handleValidate)
				r.Post("/gaps", s.handleGaps)
				r.Post("/strengthen", s.handleStrengthen)
				r.Post("/multi-claim", s.handleMultiClaim)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.auth))

			r.Get("/auth/me", authHandlers.Me)

			r.Route("/analyses", func(r chi.Router) {
				r.Get("/", s.handleListAnalyses)
				r.Get("/similar", s.handleSimilarAnalyses)
				r.Get("/{analysisID}", s.handleGetAnalysis)
				r.Delete("/{analysisID}", s.handleDeleteAnalysis)
			})
		})
	})
}

// ServeHTTP makes the server usable as an http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("server listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
