package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"cosmossdk.io/log"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/openalpha/stakevault/api/handlers"
	"github.com/openalpha/stakevault/api/middleware"
	"github.com/openalpha/stakevault/api/websocket"
	"github.com/openalpha/stakevault/metrics"
)

// Server represents the API server
type Server struct {
	httpServer *http.Server
	hub        *websocket.Hub
	config     *Config
	logger     log.Logger

	ledger  *LedgerService
	metrics *metrics.Collector

	stakeHandler  *handlers.StakeHandler
	tokenHandler  *handlers.TokenHandler
	accessHandler *handlers.AccessHandler

	rateLimiter *middleware.RateLimiter
}

// Config contains server configuration
type Config struct {
	Host             string
	Port             int
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	DisableRateLimit bool // For testing purposes

	// BootstrapAdmin is the only address allowed to initialize staking
	BootstrapAdmin string
	// MintAuthority may mint test tokens through /v1/tokens/mint
	MintAuthority string

	RateLimit *middleware.RateLimitConfig
	Hub       *websocket.HubConfig
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		RateLimit:    middleware.DefaultRateLimitConfig(),
		Hub:          websocket.DefaultHubConfig(),
	}
}

// NewServer creates a new API server over a fresh in-memory ledger
func NewServer(config *Config, logger log.Logger) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	collector := metrics.GetCollector()

	ledger, err := NewLedgerService(LedgerConfig{
		BootstrapAdmin: config.BootstrapAdmin,
		MintAuthority:  config.MintAuthority,
		Metrics:        collector,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger service: %w", err)
	}

	hub := websocket.NewHub(config.Hub, collector, logger)
	ledger.SetPublisher(hub)

	rateLimiter := middleware.NewRateLimiter(config.RateLimit)
	rateLimiter.OnLimit = collector.RecordRateLimitHit

	return &Server{
		hub:           hub,
		config:        config,
		logger:        logger.With("module", "api"),
		ledger:        ledger,
		metrics:       collector,
		stakeHandler:  handlers.NewStakeHandler(ledger),
		tokenHandler:  handlers.NewTokenHandler(ledger),
		accessHandler: handlers.NewAccessHandler(ledger),
		rateLimiter:   rateLimiter,
	}, nil
}

// Ledger returns the service backing the server
func (s *Server) Ledger() *LedgerService {
	return s.ledger
}

// Hub returns the websocket hub
func (s *Server) Hub() *websocket.Hub {
	return s.hub
}

// Handler builds the HTTP handler chain: CORS -> RateLimit -> Router
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(s.instrument)

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	s.stakeHandler.RegisterRoutes(router)
	s.tokenHandler.RegisterRoutes(router)
	s.accessHandler.RegisterRoutes(router)

	// WebSocket
	router.HandleFunc("/ws", s.hub.ServeWS)

	if s.config.DisableRateLimit {
		return corsMiddleware(router)
	}
	return corsMiddleware(middleware.RateLimitMiddleware(s.rateLimiter)(router))
}

// Start starts the API server and blocks until it stops
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	go s.hub.Run()

	s.logger.Info("API server starting",
		"addr", addr,
		"bootstrap_admin", s.config.BootstrapAdmin,
		"rate_limit", !s.config.DisableRateLimit,
	)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	s.hub.Stop()
	s.rateLimiter.Stop()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"timestamp":  time.Now().Unix(),
		"height":     s.ledger.Height(),
		"ws_clients": s.hub.GetClientCount(),
		"warning":    "This API uses in-memory storage. For production, run stakevaultd.",
	})
}

// statusRecorder captures the response status for metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument tags each request with an id and records its latency under
// the matched route template
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		// the upgrade needs the raw writer to hijack the connection
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				path = tmpl
			}
		}

		timer := metrics.NewTimer()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.metrics.RecordAPIRequest(r.Method, path, strconv.Itoa(rec.status), timer.ElapsedMs())
		s.logger.Debug("Request served",
			"request_id", requestID,
			"method", r.Method,
			"path", path,
			"status", rec.status,
		)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Signer, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
