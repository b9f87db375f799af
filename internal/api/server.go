// Package api serves the FinBuddy JSON API over net/http.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/finbuddy/internal/auth"
	"github.com/Veraticus/finbuddy/internal/classification"
	"github.com/Veraticus/finbuddy/internal/csvimport"
	"github.com/Veraticus/finbuddy/internal/engine"
	"github.com/Veraticus/finbuddy/internal/model"
	"github.com/Veraticus/finbuddy/internal/service"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxUploadBytes bounds CSV uploads.
const DefaultMaxUploadBytes = 10 << 20

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// BatchCategorizer categorizes the rows an import just stored.
type BatchCategorizer interface {
	Categorize(ctx context.Context, transactions []model.Transaction, opts engine.Options) (*engine.Summary, error)
}

// Assistant answers one chat message over a snapshot of the user's data.
type Assistant interface {
	Query(ctx context.Context, message string, transactions []model.Transaction, goals []model.Goal) model.Envelope
}

// InsightGenerator produces short observations about recent spending.
type InsightGenerator interface {
	Generate(ctx context.Context, transactions []model.Transaction) []string
}

// Deps are the collaborators a Server needs.
type Deps struct {
	Store          service.Storage
	Categorizer    classification.Classifier
	Engine         BatchCategorizer
	Assistant      Assistant
	Insights       InsightGenerator
	Tokens         *auth.TokenIssuer
	Logger         *slog.Logger
	Window         time.Duration
	MaxUploadBytes int64
}

// Server routes API requests to the stores and the assistant.
type Server struct {
	store       service.Storage
	categorizer classification.Classifier
	engine      BatchCategorizer
	assistant   Assistant
	insights    InsightGenerator
	tokens      *auth.TokenIssuer
	importer    *csvimport.Importer
	logger      *slog.Logger
	now         func() time.Time
	window      time.Duration
	maxUpload   int64
}

// NewServer validates deps and builds a server.
func NewServer(deps Deps) (*Server, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("api: store is required")
	case deps.Categorizer == nil:
		return nil, errors.New("api: categorizer is required")
	case deps.Engine == nil:
		return nil, errors.New("api: categorization engine is required")
	case deps.Assistant == nil:
		return nil, errors.New("api: assistant is required")
	case deps.Insights == nil:
		return nil, errors.New("api: insight generator is required")
	case deps.Tokens == nil:
		return nil, errors.New("api: token issuer is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	window := deps.Window
	if window <= 0 {
		window = 30 * 24 * time.Hour
	}
	maxUpload := deps.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}

	return &Server{
		store:       deps.Store,
		categorizer: deps.Categorizer,
		engine:      deps.Engine,
		assistant:   deps.Assistant,
		insights:    deps.Insights,
		tokens:      deps.Tokens,
		importer:    csvimport.NewImporter(logger),
		logger:      logger.With("component", "api"),
		now:         time.Now,
		window:      window,
		maxUpload:   maxUpload,
	}, nil
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	mux.Handle("GET /api/settings", s.authenticated(s.handleGetSettings))
	mux.Handle("PUT /api/settings", s.authenticated(s.handleUpdateSettings))

	mux.Handle("GET /api/transactions", s.authenticated(s.handleListTransactions))
	mux.Handle("POST /api/transactions", s.authenticated(s.handleCreateTransaction))
	mux.Handle("POST /api/transactions/upload", s.authenticated(s.handleUpload))
	mux.Handle("GET /api/transactions/{id}", s.authenticated(s.handleGetTransaction))
	mux.Handle("PUT /api/transactions/{id}", s.authenticated(s.handleUpdateTransaction))
	mux.Handle("DELETE /api/transactions/{id}", s.authenticated(s.handleDeleteTransaction))

	mux.Handle("GET /api/goals", s.authenticated(s.handleListGoals))
	mux.Handle("POST /api/goals", s.authenticated(s.handleCreateGoal))
	mux.Handle("GET /api/goals/{id}", s.authenticated(s.handleGetGoal))
	mux.Handle("PUT /api/goals/{id}", s.authenticated(s.handleUpdateGoal))
	mux.Handle("DELETE /api/goals/{id}", s.authenticated(s.handleDeleteGoal))

	mux.Handle("POST /api/ai/finbot", s.authenticated(s.handleFinBot))
	mux.Handle("GET /api/insights", s.authenticated(s.handleInsights))

	return s.withRequestID(s.withLogging(s.withRecovery(mux)))
}

// ListenAndServe serves on addr until ctx is canceled, then drains in-flight requests
// for up to shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("API listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("Shutting down API")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   s.now().UTC(),
	})
}

// snapshot loads the windowed transactions and all goals the assistant reasons over.
func (s *Server) snapshot(ctx context.Context, userID string) ([]model.Transaction, []model.Goal, error) {
	since := s.now().Add(-s.window)

	g, gctx := errgroup.WithContext(ctx)
	var txns []model.Transaction
	var goals []model.Goal
	g.Go(func() error {
		var err error
		txns, err = s.store.GetTransactions(gctx, service.TransactionFilter{UserID: userID, Since: &since})
		return err
	})
	g.Go(func() error {
		var err error
		goals, err = s.store.GetGoals(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return txns, goals, nil
}
