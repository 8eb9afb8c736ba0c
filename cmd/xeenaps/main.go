// Command xeenaps runs the Xeenaps personal knowledge management API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xeenaps/pkm/internal/adapter/gas"
	xhttp "github.com/xeenaps/pkm/internal/adapter/http"
	"github.com/xeenaps/pkm/internal/adapter/litellm"
	xmcp "github.com/xeenaps/pkm/internal/adapter/mcp"
	xnats "github.com/xeenaps/pkm/internal/adapter/nats"
	xotel "github.com/xeenaps/pkm/internal/adapter/otel"
	"github.com/xeenaps/pkm/internal/adapter/postgres"
	"github.com/xeenaps/pkm/internal/adapter/ws"
	"github.com/xeenaps/pkm/internal/config"
	"github.com/xeenaps/pkm/internal/logger"
	"github.com/xeenaps/pkm/internal/middleware"
	"github.com/xeenaps/pkm/internal/port/assistant"
	"github.com/xeenaps/pkm/internal/secrets"
	"github.com/xeenaps/pkm/internal/service"
)

const version = "1.0.0"

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	args := os.Args[1:]
	var err error
	switch {
	case len(args) > 0 && args[0] == "admin":
		err = runAdmin(args[1:])
	case len(args) > 0 && args[0] == "serve":
		err = run(args[1:])
	default:
		err = run(args)
	}
	if err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags, err := config.ParseFlags(args)
	if err != nil {
		return err
	}
	cfg, cfgPath, err := config.LoadWithCLI(flags)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closeLog := logger.New(cfg.Logging)
	defer closeLog.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"path", cfgPath,
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"storage", cfg.Storage.Driver,
		"ai_provider", cfg.AI.Provider,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---

	shutdownOTEL, err := xotel.Setup(ctx, cfg.OTEL)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTEL(sctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()
	metrics, err := xotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}

	// --- Infrastructure ---

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	// NATS (optional: without it events stay local and the cache is L1 only)
	var queue *xnats.Queue
	if cfg.NATS.URL != "" {
		queue, err = xnats.Connect(ctx, cfg.NATS.URL, xnats.Options{Stream: cfg.NATS.Stream, MaxAge: cfg.NATS.MaxAge})
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() {
			if err := queue.Drain(); err != nil {
				slog.Warn("nats drain", "error", err)
			}
		}()
		slog.Info("nats connected", "stream", cfg.NATS.Stream)
	}

	c, closeCache, err := newCache(ctx, cfg, queue)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer closeCache()

	// --- Providers ---

	var gasClient *gas.Client
	var asst assistant.Assistant
	if cfg.Storage.GASURL != "" {
		gasClient = gas.NewClient(cfg.Storage.GASURL, cfg.Storage.HTTPTimeout)
		gasClient.SetBreaker(breaker(cfg, "gas"))
		gasClient.AllowNodeHosts(cfg.Storage.NodeHosts...)
		asst = gasClient
	}

	files, err := newFileStore(ctx, cfg, gasClient)
	if err != nil {
		return err
	}

	var llm *litellm.Client
	if cfg.LiteLLM.URL != "" {
		llm = litellm.NewClient(cfg.LiteLLM.URL, cfg.LiteLLM.MasterKey, cfg.AI.Model, cfg.AI.Timeout)
		llm.SetBreaker(breaker(cfg, "litellm"))
	}

	gen, err := newGenerator(ctx, cfg, gasClient, llm)
	if err != nil {
		return err
	}

	// --- Services ---

	hub := ws.NewHub(originPatterns(cfg.Server.CORSOrigin)...)
	defer hub.Close()

	events := service.NewEventService(hub)
	events.SetMetrics(metrics)
	if queue != nil {
		events.SetQueue(queue)
		cancelRelay, err := events.StartRelay(ctx)
		if err != nil {
			return fmt.Errorf("event relay: %w", err)
		}
		defer cancelRelay()
	}

	store := postgres.NewStore(pool)

	janitor := service.NewFileJanitor(files, cfg.Storage.CleanupConcurrency, cfg.Storage.CleanupTimeout)
	janitor.SetMetrics(metrics)

	cp := service.NewCopilot(gen, cfg.AI.Provider, cfg.AI.Model)
	cp.SetMetrics(metrics)

	activitySvc := service.NewActivityService(store, files, janitor, events)
	teachingSvc := service.NewTeachingService(store, files, janitor, events)
	noteSvc := service.NewNoteService(store, events)
	brainstormingSvc := service.NewBrainstormingService(store, cp, asst, events)
	tracerSvc := service.NewTracerService(store, files, c, janitor, events, cp, service.TracerOptions{
		ProfileName:   cfg.Profile.Name,
		Location:      cfg.Profile.Location(),
		LogContentTTL: cfg.Cache.LogContentTTL,
	})
	auditSvc := service.NewAuditService(store, files, cp, events, cfg.AI.AuditTimeout)
	auditSvc.SetMetrics(metrics)
	adSvc := service.NewAdService(cfg.Ads.CSVURL, cfg.Ads.Timeout, c, cfg.Cache.AdTTL)
	adSvc.SetBreaker(breaker(cfg, "ads"))

	// --- HTTP ---

	handlers := &xhttp.Handlers{
		Activities:    activitySvc,
		Teaching:      teachingSvc,
		Notes:         noteSvc,
		Brainstorming: brainstormingSvc,
		Tracer:        tracerSvc,
		Audit:         auditSvc,
		Ads:           adSvc,
		Copilot:       cp,
		Library:       store,
		LiteLLM:       llm,
		Limits: xhttp.Limits{
			BodyLimit:   cfg.Server.BodyLimit,
			UploadLimit: cfg.Server.UploadLimit,
		},
	}

	auth := middleware.NewAPIKeyAuth(cfg.Auth.APIKeyHash, cfg.Auth.Enabled)

	// SIGHUP re-reads the API key hash from the environment and .env.
	vault, err := secrets.NewVault(secrets.DotEnvLoader(config.DefaultEnvFile, config.EnvAPIKeyHash))
	if err != nil {
		return fmt.Errorf("secrets: %w", err)
	}
	vault.OnReload(func(v *secrets.Vault) { auth.SetHash(v.Get(config.EnvAPIKeyHash)) })
	stopReload := vault.ReloadOn(syscall.SIGHUP)
	defer stopReload()

	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst, "/health")
	stopCleanup := limiter.StartCleanup(cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)
	defer stopCleanup()

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	if cfg.OTEL.Enabled {
		r.Use(xotel.HTTPMiddleware(cfg.OTEL.ServiceName))
	}
	r.Use(xhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(xhttp.Logger)
	r.Use(xhttp.SecurityHeaders)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(limiter.Handler)
	r.Use(auth.Handler)

	r.Get("/health", healthHandler(pool, queue))

	// WebSocket endpoint (no request timeout)
	r.Get("/ws", hub.HandleWS)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(cfg.Server.RequestTimeout))
		xhttp.MountRoutes(r, handlers)
	})

	// --- MCP ---

	var mcpServer *xmcp.Server
	if cfg.MCP.Enabled {
		mcpServer = xmcp.NewServer(xmcp.ServerConfig{
			Addr:       cfg.MCP.Addr,
			Name:       "xeenaps",
			Version:    version,
			Middleware: auth.Handler,
		}, xmcp.ServerDeps{
			Brainstorming: brainstormingSvc,
			Tracer:        tracerSvc,
			Synthesizer:   brainstormingSvc,
			Ads:           adSvc,
		})
		if err := mcpServer.Start(); err != nil {
			return fmt.Errorf("mcp: %w", err)
		}
		slog.Info("mcp server started", "addr", cfg.MCP.Addr)
	}

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if mcpServer != nil {
		if err := mcpServer.Stop(shutdownCtx); err != nil {
			slog.Warn("mcp shutdown", "error", err)
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	// Let background audits and file deletions finish; audits still running
	// when the shutdown deadline passes are cancelled.
	if err := auditSvc.Shutdown(shutdownCtx); err != nil {
		slog.Warn("audits cancelled at shutdown", "error", err)
	}
	janitor.Wait()
	slog.Info("server stopped")
	return nil
}

// originPatterns turns the CORS origins into websocket origin patterns.
func originPatterns(origins string) []string {
	var patterns []string
	for o := range strings.SplitSeq(origins, ",") {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			o = u.Host
		}
		patterns = append(patterns, o)
	}
	return patterns
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	m, err := postgres.NewMigrator(pool)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up(ctx)
}

// healthHandler returns an http.HandlerFunc that reports service health.
func healthHandler(pool *pgxpool.Pool, queue *xnats.Queue) http.HandlerFunc {
	type healthStatus struct {
		Status   string `json:"status"`
		Version  string `json:"version"`
		Postgres string `json:"postgres"`
		NATS     string `json:"nats"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		hs := healthStatus{Status: "ok", Version: version, Postgres: "ok", NATS: "disabled"}
		code := http.StatusOK
		if err := pool.Ping(ctx); err != nil {
			hs.Status, hs.Postgres = "degraded", "unreachable"
			code = http.StatusServiceUnavailable
		}
		if queue != nil {
			hs.NATS = "ok"
			if !queue.IsConnected() {
				hs.Status, hs.NATS = "degraded", "disconnected"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(hs)
	}
}
