package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/ShashankBejjanki1241/apache-log-stats/pkg/config"
	"github.com/ShashankBejjanki1241/apache-log-stats/pkg/metrics"
	"github.com/ShashankBejjanki1241/apache-log-stats/pkg/reporting"
)

// Server exposes one finished report over HTTP. It never re-reads input;
// every handler serves the same immutable ReportData.
type Server struct {
	config config.ServerConfig
	data   *reporting.ReportData
	router  *mux.Router
	logger  *logrus.Logger
	metrics *metrics.Registry
}

// NewServer wires the routes for data. reg is the run's metrics registry,
// shared with the processor so /metrics reports both; nil gets a fresh one.
func NewServer(cfg config.ServerConfig, data *reporting.ReportData, logger *logrus.Logger, reg *metrics.Registry) *Server {
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	s := &Server{
		config:  cfg,
		data:    data,
		router:  mux.NewRouter(),
		logger:  logger,
		metrics: reg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.healthHandler).Methods("GET")

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/report", s.reportHandler(reporting.FormatJSON, "application/json")).Methods("GET")
	api.HandleFunc("/report/text", s.reportHandler(reporting.FormatText, "text/plain; charset=utf-8")).Methods("GET")
	api.HandleFunc("/report/csv", s.reportHandler(reporting.FormatCSV, "text/csv")).Methods("GET")

	s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")

	s.router.Use(s.loggingMiddleware)
}

// Handler returns the routed handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"run_id":    s.data.RunID,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(health)
}

func (s *Server) reportHandler(format, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reporter, err := reporting.NewReporter(format)
		if err != nil {
			s.logger.Errorf("Failed to create reporter: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		var buf bytes.Buffer
		if err := reporter.Write(&buf, s.data); err != nil {
			s.logger.Errorf("Failed to render report: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.Write(buf.Bytes())
	}
}

// Middleware
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create response writer wrapper to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		s.metrics.HTTPRequestsTotal.WithLabelValues(route).Inc()

		s.logger.WithFields(logrus.Fields{
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    wrapped.statusCode,
			"duration":  time.Since(start),
			"remote_ip": r.RemoteAddr,
		}).Info("HTTP Request")
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("Serving report on %s", ln.Addr())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(s.config.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	s.logger.Info("Server stopped")
	return nil
}
