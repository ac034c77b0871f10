// Package main provides the API router setup.
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spherical/table-extractor/cmd/table-extractor-api/handlers"
	"github.com/spherical/table-extractor/cmd/table-extractor-api/middleware"
	"github.com/spherical/table-extractor/internal/artifact"
	"github.com/spherical/table-extractor/internal/domain"
	"github.com/spherical/table-extractor/internal/observability"
)

// AppConfig holds what the router needs beyond its dependencies.
type AppConfig struct {
	UploadsDir     string
	MaxUploadBytes int64
	CORSOrigins    []string
	ServiceName    string
}

// NewRouter creates the main API router with all routes configured.
func NewRouter(logger *observability.Logger, cfg AppConfig, pipeline domain.Pipeline, store artifact.Store) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestContext)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"` + cfg.ServiceName + `"}`))
	})

	uploadHandler := handlers.NewUploadHandler(logger, pipeline, store, cfg.UploadsDir, cfg.MaxUploadBytes)
	downloadHandler := handlers.NewDownloadHandler(logger, store)

	r.Post("/upload", uploadHandler.Upload)
	r.Get("/download", downloadHandler.Download)

	return r
}
