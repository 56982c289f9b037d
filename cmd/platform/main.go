package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/healthassist/platform/internal/adapters/clinical"
	"github.com/healthassist/platform/internal/alerting"
	"github.com/healthassist/platform/internal/adapters/clinical/fhir"
	"github.com/healthassist/platform/internal/adapters/clinical/legacy"
	"github.com/healthassist/platform/internal/fusion"
	"github.com/healthassist/platform/internal/fusion/intent"
	"github.com/healthassist/platform/internal/genomics"
	"github.com/healthassist/platform/internal/medbridge"
	"github.com/healthassist/platform/internal/profile"
	"github.com/healthassist/platform/internal/shared/auth"
	"github.com/healthassist/platform/internal/shared/config"
	"github.com/healthassist/platform/internal/shared/database"
	"github.com/healthassist/platform/internal/shared/events"
	"github.com/healthassist/platform/internal/shared/logger"
	"github.com/healthassist/platform/internal/shared/metrics"
	secmiddleware "github.com/healthassist/platform/internal/shared/middleware"
	"github.com/healthassist/platform/internal/voiceinput"
)

// App holds all application dependencies
type App struct {
	Config *config.Config
	Log    *zap.Logger
	DB     *database.DB
	Bus    *events.Bus
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging)
	defer log.Sync()

	app := &App{Config: cfg, Log: log}

	// Database (optional: CRUD modules are skipped without it)
	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		log.Warn("database not available, running in limited mode", zap.Error(err))
	} else {
		app.DB = db
		defer db.Close()

		if err := database.Migrate(ctx, db.Pool); err != nil {
			log.Warn("migration failed", zap.Error(err))
		}
	}

	// Event bus (optional). pub stays a nil interface when the bus is
	// not configured; assigning a nil *events.Bus would defeat the
	// publisher nil checks in the handlers.
	var pub events.Publisher
	if cfg.Events.Enabled {
		bus, err := events.NewBus(ctx, cfg.Events)
		if err != nil {
			log.Warn("event store not available, running without events", zap.Error(err))
		} else {
			app.Bus = bus
			pub = bus
			defer bus.Close()
			log.Info("event bus initialized")
		}
	}

	// Clinical-records adapter (optional, feeds bridge payloads)
	clinicalAdapter := newClinicalAdapter(cfg.Clinical, log)

	// Fusion pipeline. Transcription and audio-quality engines are
	// external collaborators; without them the voice modality degrades.
	recognizer := intent.NewRecognizer(nil)
	fusionEngine := fusion.NewEngine(recognizer, nil, nil, log)

	var bridge *medbridge.Client
	if cfg.MedBridge.Enabled {
		bridge = medbridge.NewClient(cfg.MedBridge, clinicalAdapter, log)
		log.Info("medical-analysis bridge enabled", zap.String("url", cfg.MedBridge.URL))
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(secmiddleware.InputSanitizer)
	r.Use(secmiddleware.RateLimiter(100, 200))
	r.Use(metrics.Middleware)

	corsCfg := secmiddleware.DefaultCORSConfig()
	if len(cfg.CORS.AllowedOrigins) > 0 {
		corsCfg.AllowedOrigins = cfg.CORS.AllowedOrigins
	}
	r.Use(secmiddleware.CORS(corsCfg))

	// Operational endpoints (unauthenticated)
	r.Get("/health", healthHandler)
	r.Get("/ready", readyHandler(app))
	r.Handle("/metrics", metrics.Handler())
	r.Get("/", infoHandler)

	var voiceRepo *voiceinput.Repository
	if app.DB != nil {
		voiceRepo = voiceinput.NewRepository(app.DB.Pool)

		genomicsRepo := genomics.NewRepository(app.DB.Pool)
		runner := genomics.NewRunner(genomicsRepo, nil, log)
		runner.Start(ctx)
		defer runner.Stop()
		log.Info("genomic analysis runner started")
	}

	// Urgent alerts go through a worker pool; the log provider stands in
	// for real push/SMS gateways.
	alerts := alerting.NewDispatcher(
		map[alerting.Channel]alerting.Provider{
			alerting.ChannelPush: alerting.NewLogProvider(log),
		},
		alerting.DefaultConfig(),
		log,
	)
	if err := alerts.Start(ctx); err != nil {
		log.Warn("alert dispatcher failed to start", zap.Error(err))
	} else {
		defer alerts.Stop()
	}

	voiceService := voiceinput.NewService(fusionEngine, bridge, voiceRepo, pub, log).WithAlerts(alerts)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Server.Env == "production" {
			r.Use(auth.Middleware(cfg.Auth))
		}

		if app.DB != nil {
			profileRepo := profile.NewRepository(app.DB.Pool)
			profileHandler := profile.NewHandler(profileRepo, pub)
			r.Mount("/profiles", profileHandler.Routes())

			genomicsRepo := genomics.NewRepository(app.DB.Pool)
			genomicsHandler := genomics.NewHandler(genomicsRepo, pub)
			r.Mount("/genomics", genomicsHandler.Routes())
		}

		voiceHandler := voiceinput.NewHandler(voiceService, voiceRepo)
		r.Mount("/", voiceHandler.Routes())
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("server shutdown error", zap.Error(err))
		}
		close(done)
	}()

	log.Info("personal health assistant platform starting",
		zap.String("env", cfg.Server.Env),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("database", app.DB != nil),
		zap.Bool("events", app.Bus != nil),
		zap.Bool("medical_bridge", bridge != nil),
	)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("server error", zap.Error(err))
	}

	<-done
	log.Info("server stopped")
}

// newClinicalAdapter selects the configured clinical-records backend.
func newClinicalAdapter(cfg config.ClinicalConfig, log *zap.Logger) clinical.Adapter {
	if !cfg.Enabled {
		return nil
	}

	switch cfg.Kind {
	case "legacy":
		adapter, err := legacy.New(cfg.LegacyDSN)
		if err != nil {
			log.Warn("legacy clinical adapter unavailable", zap.Error(err))
			return nil
		}
		log.Info("clinical adapter initialized", zap.String("kind", "legacy"))
		return adapter
	case "fhir":
		log.Info("clinical adapter initialized", zap.String("kind", "fhir"))
		return fhir.New(cfg.FHIRURL, cfg.Timeout)
	default:
		log.Warn("unknown clinical adapter kind", zap.String("kind", cfg.Kind))
		return nil
	}
}

func infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"name":    "Personal Health Assistant Platform",
		"version": "0.1.0",
		"docs":    "/api/v1",
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	})
}

func readyHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"server": "ready",
		}

		if app.DB != nil {
			if err := app.DB.Health(r.Context()); err != nil {
				checks["database"] = "not ready: " + err.Error()
			} else {
				checks["database"] = "ready"
			}
		} else {
			checks["database"] = "not configured"
		}

		if app.Bus != nil {
			if err := app.Bus.Health(); err != nil {
				checks["events"] = "not ready: " + err.Error()
			} else {
				checks["events"] = "ready"
			}
		} else {
			checks["events"] = "not configured"
		}

		allReady := true
		for _, status := range checks {
			if status != "ready" && status != "not configured" {
				allReady = false
				break
			}
		}

		status := http.StatusOK
		if !allReady {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"status": map[bool]string{true: "ready", false: "not ready"}[allReady],
			"checks": checks,
		})
	}
}
