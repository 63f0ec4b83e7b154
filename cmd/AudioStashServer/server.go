package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jadolg/AudioStash"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const contentTypeHeader = "Content-Type"

// maxUploadBytes bounds the multipart body of upload and pipeline requests
const maxUploadBytes = 256 << 20

// Server represents the HTTP server for the audio storage service
type Server struct {
	addr        string
	workDir     string
	uploader    *audiostash.Uploader
	pipeline    *audiostash.Pipeline
	auth        *audiostash.AuthMiddleware
	uploadGroup singleflight.Group
	jobs        *StateManager
}

// NewServer creates a server from a loaded configuration
func NewServer(config *audiostash.Config) *Server {
	uploader := config.NewUploader()
	if uploader == nil {
		log.Warn("No storage credentials configured, uploads are disabled and the pipeline simulates them")
	}

	return &Server{
		addr:     fmt.Sprintf(":%d", config.Port),
		workDir:  config.Pipeline.WorkDir,
		uploader: uploader,
		pipeline: audiostash.NewPipeline(config.Pipeline, uploader),
		auth:     audiostash.NewAuthMiddleware(config.Auth),
		jobs:     NewStateManager(),
	}
}

// Router builds the handler serving every endpoint
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()

	// Public endpoints
	router.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/sanitize", s.sanitizeHandler).Methods(http.MethodPost)

	// Writes need upload credentials, reads accept read_keys too
	router.HandleFunc("/upload", s.auth.Require(audiostash.ScopeUpload, s.uploadHandler)).Methods(http.MethodPost)
	router.HandleFunc("/pipeline", s.auth.Require(audiostash.ScopeUpload, s.pipelineHandler)).Methods(http.MethodPost)
	router.HandleFunc("/jobs/{id}", s.auth.Require(audiostash.ScopeRead, s.jobHandler)).Methods(http.MethodGet)
	router.HandleFunc("/jobs/{id}", s.auth.Require(audiostash.ScopeUpload, s.deleteJobHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/jobs/{id}/search", s.auth.Require(audiostash.ScopeRead, s.searchHandler)).Methods(http.MethodGet)

	return handlers.RecoveryHandler()(handlers.LoggingHandler(os.Stdout, router))
}

// Run starts the HTTP server
func (s *Server) Run() error {
	if err := os.MkdirAll(s.workDir, 0755); err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}

	log.WithFields(log.Fields{
		"addr":     s.addr,
		"work_dir": s.workDir,
		"auth":     s.auth.IsEnabled(),
		"uploads":  s.uploader != nil,
	}).Info("Starting server")
	return http.ListenAndServe(s.addr, s.Router())
}
