// Package http exposes the ledger over a JSON API, plus CSV import and
// export endpoints.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"spendlite/internal/cache"
	"spendlite/internal/core"
	"spendlite/internal/log"
	"spendlite/internal/store"
)

type Server struct {
	http.Server
	store       *store.Store
	logger      *log.Logger
	rateLimiter *rateLimiter

	// Aggregation views are memoized per filter query and purged wholesale
	// on every mutation.
	summaryCache  *cache.LRUCache[core.Summary]
	monthlyCache  *cache.LRUCache[[]core.MonthlyPoint]
	categoryCache *cache.LRUCache[[]core.CategoryTotal]

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, st *store.Store, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:           addr,
			Handler:        mux,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   10 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 1 << 16,
		},
		store:         st,
		logger:        logger.WithComponent(log.ComponentHTTP),
		rateLimiter:   newRateLimiter(),
		summaryCache:  cache.NewLRUCache[core.Summary](100, 5*time.Minute),
		monthlyCache:  cache.NewLRUCache[[]core.MonthlyPoint](100, 5*time.Minute),
		categoryCache: cache.NewLRUCache[[]core.CategoryTotal](100, 5*time.Minute),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/transactions", s.middleware(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.middleware(s.handleAddTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.middleware(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.middleware(s.handleRemoveTransaction))

	mux.HandleFunc("GET /api/summary", s.middleware(s.handleSummary))
	mux.HandleFunc("GET /api/series/monthly", s.middleware(s.handleMonthlySeries))
	mux.HandleFunc("GET /api/series/categories", s.middleware(s.handleCategoryTotals))
	mux.HandleFunc("GET /api/categories", s.middleware(s.handleCategories))

	mux.HandleFunc("GET /export", s.middleware(s.handleExport))
	mux.HandleFunc("POST /import", s.middleware(s.handleImport))
	mux.HandleFunc("POST /api/sample", s.middleware(s.handleLoadSample))

	return s
}

// middleware adds security headers, rate limiting, and request logging.
// Mutating methods are rate limited per client IP.
func (s *Server) middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldRequestID, requestID,
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		setSecurityHeaders(w)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "Request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// purgeViewCaches drops every memoized aggregation after a mutation.
func (s *Server) purgeViewCaches() {
	s.summaryCache.Purge()
	s.monthlyCache.Purge()
	s.categoryCache.Purge()
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
