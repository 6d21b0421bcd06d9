// =============================================================================
// Column Splitter - Web Server
// =============================================================================
//
// This module serves the upload form and the pages around the splitter.
//
// ROUTES:
//   GET  /                      - Upload form
//   POST /                      - Upload a spreadsheet and split it
//   GET  /results               - List the split files of the last run
//   GET  /downloads/{filename}  - Download one split file
//   GET  /downloads.zip         - Download every split file as one archive
//   GET  /logs                  - Recent log records
//   GET  /metrics               - Prometheus metrics
//
// RUN MODEL:
//   Every upload clears the upload and output directories before the new
//   file is staged, so only one split may be in flight. Uploads are
//   serialized with a mutex.
//
// =============================================================================

package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ginjaninja78/xlsx-column-splitter/internal/config"
	"github.com/ginjaninja78/xlsx-column-splitter/internal/logging"
	"github.com/ginjaninja78/xlsx-column-splitter/internal/splitter"
	"github.com/ginjaninja78/xlsx-column-splitter/pkg/utils"
)

// multipartMemory is the part of a multipart form kept in memory; the rest
// spills to temporary files.
const multipartMemory = 8 << 20

// Server is the HTTP front end of the splitter.
type Server struct {
	cfg      *config.Config
	files    *utils.FileManager
	splitter *splitter.Splitter
	logs     *logging.Buffer
	logger   log.Logger

	// Metrics.
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec

	// splitMtx serializes uploads, which share the upload and output
	// directories.
	splitMtx sync.Mutex
}

// New creates a Server. logs backs the log viewer and may be nil, in which
// case the viewer is empty.
func New(cfg *config.Config, logger log.Logger, logs *logging.Buffer, reg *prometheus.Registry) *Server {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if logs == nil {
		logs = logging.NewBuffer(cfg.LogBufferSize)
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Server{
		cfg:      cfg,
		files:    utils.NewFileManager(cfg.UploadDir, cfg.OutputDir),
		splitter: splitter.New(logger, reg),
		logs:     logs,
		logger:   logger,
		registry: reg,
		requestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "column_splitter",
			Name:      "request_duration_seconds",
			Help:      "Time (in seconds) spent serving HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status_code"}),
	}
}

// Router returns the HTTP handler with every route registered.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	s.RegisterRoutes(router)
	router.Use(s.instrument)
	return router
}

// RegisterRoutes registers the server routes on router.
func (s *Server) RegisterRoutes(router *mux.Router) {
	router.Path("/").Methods("GET").HandlerFunc(s.handleIndex)
	router.Path("/").Methods("POST").HandlerFunc(s.handleUpload)
	router.Path("/results").Methods("GET").HandlerFunc(s.handleResults)
	router.Path("/downloads.zip").Methods("GET").HandlerFunc(s.handleArchive)
	router.Path("/downloads/{filename}").Methods("GET").HandlerFunc(s.handleDownload)
	router.Path("/logs").Methods("GET").HandlerFunc(s.handleLogs)

	// Metrics endpoint.
	router.Path("/metrics").Methods("GET").Handler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
}

// Run serves on the configured address until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.files.EnsureDirectories(); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s.Router(),
		ReadTimeout:  1 * time.Minute,
		WriteTimeout: 5 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		level.Info(s.logger).Log("msg", "server listening", "addr", s.cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		level.Info(s.logger).Log("msg", "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// instrument records the duration of every request by route.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		s.requestDuration.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
