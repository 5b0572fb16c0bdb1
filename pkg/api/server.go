package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mvx-swap/pkg/metrics"
	"mvx-swap/pkg/swap"
	"mvx-swap/pkg/types"
	"mvx-swap/pkg/venue"
)

// Ranker ranks venues for a pair
type Ranker interface {
	Aggregate(ctx context.Context, tokenIn, tokenOut types.TokenID) (*types.RankedResult, error)
}

// Swapper estimates and prepares swaps
type Swapper interface {
	EstimateSwap(ctx context.Context, tokenIn, tokenOut types.TokenID, amountIn decimal.Decimal) (*types.SwapSummary, error)
	PrepareSwap(ctx context.Context, order types.SwapOrder) (*swap.Prepared, error)
}

// Options configures the HTTP server
type Options struct {
	CORSOrigins     []string
	DefaultSlippage decimal.Decimal
	RequestTimeout  time.Duration
}

// Server exposes quotes, estimates and unsigned swap transactions over HTTP
type Server struct {
	ranker   Ranker
	swaps    Swapper
	registry *venue.Registry
	opts     Options
	log      *zap.Logger
	router   *mux.Router
}

// NewServer creates a new API server
func NewServer(ranker Ranker, swaps Swapper, registry *venue.Registry, opts Options, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	s := &Server{
		ranker:   ranker,
		swaps:    swaps,
		registry: registry,
		opts:     opts,
		log:      log,
		router:   mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/quotes", s.handleQuotes).Methods("GET")
	api.HandleFunc("/estimate", s.handleEstimate).Methods("GET")
	api.HandleFunc("/swaps/prepare", s.handlePrepareSwap).Methods("POST")
	api.HandleFunc("/venues", s.handleVenues).Methods("GET")

	s.router.Handle("/metrics", metrics.Handler()).Methods("GET")
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
}

// Handler returns the router wrapped with CORS handling
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("api server starting", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("api server stopping")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	tokenIn, tokenOut, ok := pairParams(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	ranked, err := s.ranker.Aggregate(ctx, tokenIn, tokenOut)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	respondJSON(w, ranked)
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	tokenIn, tokenOut, ok := pairParams(w, r)
	if !ok {
		return
	}

	amount, err := decimal.NewFromString(r.URL.Query().Get("amountIn"))
	if err != nil || !amount.IsPositive() {
		respondError(w, http.StatusBadRequest, "invalid amountIn", "amountIn must be a positive number")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	summary, err := s.swaps.EstimateSwap(ctx, tokenIn, tokenOut, amount)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	respondJSON(w, summary)
}

func (s *Server) handlePrepareSwap(w http.ResponseWriter, r *http.Request) {
	var req PrepareSwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	order := req.Order(s.opts.DefaultSlippage)

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	prepared, err := s.swaps.PrepareSwap(ctx, order)
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	respondJSON(w, PrepareSwapResponse{
		Venue:        prepared.Estimate.Venue,
		AmountOut:    prepared.Estimate.AmountOut,
		MinAmountOut: prepared.MinAmountOut,
		PriceImpact:  prepared.Estimate.PriceImpact,
		Transaction:  prepared.Transaction,
		Data:         prepared.Transaction.DataString(),
	})
}

func (s *Server) handleVenues(w http.ResponseWriter, r *http.Request) {
	venues := s.registry.All()
	response := make([]VenueInfo, len(venues))
	for i, v := range venues {
		response[i] = VenueInfo{ID: v.ID, Capabilities: v.Capabilities()}
	}
	respondJSON(w, response)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]any{
		"status": "ok",
		"venues": s.registry.Len(),
	})
}

func (s *Server) respondFailure(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Warn("request failed", zap.Int("status", status), zap.Error(err))
	}
	respondError(w, status, http.StatusText(status), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidOrder), errors.Is(err, types.ErrTransactionBuild):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrUnsupportedVenue):
		return http.StatusUnprocessableEntity
	case errors.Is(err, types.ErrAggregationFailed):
		return http.StatusBadGateway
	case errors.Is(err, types.ErrEstimationFailed):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func pairParams(w http.ResponseWriter, r *http.Request) (types.TokenID, types.TokenID, bool) {
	q := r.URL.Query()
	tokenIn, tokenOut := types.TokenID(q.Get("tokenIn")), types.TokenID(q.Get("tokenOut"))
	if tokenIn == "" || tokenOut == "" {
		respondError(w, http.StatusBadRequest, "missing token pair", "tokenIn and tokenOut are required")
		return "", "", false
	}
	return tokenIn, tokenOut, true
}

func respondJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}
