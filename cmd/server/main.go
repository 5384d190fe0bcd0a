package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pumplab/stepflow/internal/api"
	"github.com/pumplab/stepflow/internal/config"
	"github.com/pumplab/stepflow/internal/events"
	"github.com/pumplab/stepflow/internal/repository"
	"github.com/pumplab/stepflow/internal/repository/file"
	"github.com/pumplab/stepflow/internal/repository/postgres"
	"github.com/pumplab/stepflow/internal/serialport"
	"github.com/pumplab/stepflow/internal/storage"
	"github.com/pumplab/stepflow/pkg/models"
)

func main() {
	// Configure zerolog for structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Pick the profile backend: Postgres when a database URL is set, a
	// plain JSON file otherwise.
	var repo repository.ProfileRepository
	if cfg.Database.URL != "" {
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open database")
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("Failed to reach database")
		}
		if err := postgres.EnsureSchema(context.Background(), db); err != nil {
			log.Fatal().Err(err).Msg("Failed to prepare database schema")
		}

		repo = postgres.NewPostgresProfileRepository(db)
		log.Info().Msg("Using Postgres profile backend")
	} else {
		fileRepo, err := file.NewFileProfileRepository(cfg.Profiles.DataFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open profile file")
		}

		repo = fileRepo
		log.Info().Str("path", cfg.Profiles.DataFile).Msg("Using file profile backend")
	}

	// Snapshot backups are optional; without a bucket the endpoints reply 409.
	var snapshots storage.SnapshotStorage
	if cfg.AWS.S3Bucket != "" {
		snapshots, err = storage.NewSnapshotStorage(storage.S3Config{
			Bucket:    cfg.AWS.S3Bucket,
			Endpoint:  cfg.AWS.S3Endpoint,
			Region:    cfg.AWS.Region,
			AccessKey: cfg.AWS.AccessKeyID,
			SecretKey: cfg.AWS.SecretAccessKey,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to configure snapshot storage")
		}
		log.Info().Str("bucket", cfg.AWS.S3Bucket).Msg("Snapshot backups enabled")
	}

	broker := events.NewBroker()

	// Create Chi router
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(zerologLogger())
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Create Huma API
	humaConfig := huma.DefaultConfig("Stepflow API", "1.0.0")
	humaConfig.DocsPath = "/api/docs"
	humaAPI := humachi.New(router, humaConfig)

	// Register health endpoint
	huma.Register(humaAPI, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns the health status of the service",
	}, func(ctx context.Context, input *struct{}) (*models.HealthResponse, error) {
		resp := &models.HealthResponse{}
		resp.Body.Status = "healthy"
		resp.Body.Version = "1.0.0"
		resp.Body.Time = time.Now()
		return resp, nil
	})

	api.RegisterRoutes(router, humaAPI, repo, snapshots, serialport.SystemLister{}, broker)

	// Serve OpenAPI spec at /api/docs
	router.Get("/api/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		spec, err := humaAPI.OpenAPI().MarshalJSON()
		if err != nil {
			http.Error(w, "Failed to generate OpenAPI spec", http.StatusInternalServerError)
			return
		}
		w.Write(spec)
	})

	// Periodically persist pending state; the Postgres backend treats
	// Flush as a no-op.
	autosaveCtx, stopAutosave := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(cfg.Profiles.AutosaveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := repo.Flush(autosaveCtx); err != nil {
					log.Error().Err(err).Msg("Autosave failed")
				}
			case <-autosaveCtx.Done():
				return
			}
		}
	}()

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting Stepflow API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	stopAutosave()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Last chance to persist profiles edited since the previous autosave.
	if err := repo.Flush(ctx); err != nil {
		log.Error().Err(err).Msg("Final flush failed")
	}

	log.Info().Msg("Server exited")
}

// zerologLogger returns a Chi middleware that logs HTTP requests using zerolog
func zerologLogger() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				log.Info().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("remote_ip", r.RemoteAddr).
					Int("status", ww.Status()).
					Dur("latency", time.Since(start)).
					Str("user_agent", r.UserAgent()).
					Msg("HTTP request")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
