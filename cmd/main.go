package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/Vovarama1992/asrserve/internal/config"
	"github.com/Vovarama1992/asrserve/internal/delivery"
	ws "github.com/Vovarama1992/asrserve/internal/delivery/ws"
	"github.com/Vovarama1992/asrserve/internal/deploy"
	"github.com/Vovarama1992/asrserve/internal/domain"
	"github.com/Vovarama1992/asrserve/internal/infra"
	"github.com/Vovarama1992/asrserve/internal/infra/nemo"
	"github.com/Vovarama1992/asrserve/internal/metrics"
	"github.com/Vovarama1992/asrserve/internal/ports"
	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// prefix of every ASR class a .nemo checkpoint can name
const asrModelsPrefix = "nemo.collections.asr.models."

func main() {

	// LOGGER
	zcore, _ := zap.NewProduction()
	defer zcore.Sync()
	zl := logger.NewZapLogger(zcore.Sugar())

	// ENV
	cfg, err := config.Load()
	if err != nil {
		panic("config: " + err.Error())
	}

	if cfg.NumCPUs > 0 {
		runtime.GOMAXPROCS(cfg.NumCPUs)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// MODEL
	registry := nemo.NewRegistry()
	registry.Register(asrModelsPrefix, nemo.RemoteFactory(cfg.InferenceURL))

	ckpt, err := nemo.OpenCheckpoint(cfg.ModelPath)
	if err != nil {
		panic("checkpoint: " + err.Error())
	}
	device := nemo.SelectDevice(cfg.NumGPUs, nemo.GPUVisible)

	zl.Log(logger.LogEntry{
		Level:   "info",
		Message: "restoring model",
		Fields: map[string]any{
			"class":       nemo.ClassName(ckpt.Target),
			"device":      device.String(),
			"model_sample_rate": ckpt.SampleRate,
			"replicas":    cfg.NumReplicas,
			"variant":     cfg.Variant,
		},
	})

	// DEPLOYMENT
	dep, err := deploy.New(deploy.Options{
		NumReplicas: cfg.NumReplicas,
		Resources:   deploy.Resources{NumCPUs: cfg.NumCPUs, NumGPUs: cfg.NumGPUs},
	}, func(i int) (ports.Recognizer, error) {
		model, err := registry.Restore(ckpt, device)
		if err != nil {
			return nil, err
		}
		tr := domain.NewTranscriber(model, cfg.RequestTimeout)
		zl.Log(logger.LogEntry{
			Level:   "info",
			Message: "replica ready",
			Fields:  map[string]any{"replica": i, "model": tr.Name(), "device": device.String()},
		})
		return tr, nil
	})
	if err != nil {
		panic("deployment: " + err.Error())
	}

	// POSTGRES (optional)
	var repo ports.TranscriptRepository
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewPgxPool(ctx, cfg.DatabaseURL)
		if err != nil {
			panic("postgres: " + err.Error())
		}
		defer pool.Close()

		if err := infra.EnsureSchema(ctx, pool); err != nil {
			panic("schema: " + err.Error())
		}
		repo = infra.NewPostgresTranscriptRepo(pool)
	}

	// SERVICES
	transcribeService := domain.NewTranscribeService(cfg.Variant, dep, cfg.TempDir, repo)

	// WS HUB
	hub := ws.NewHub()
	go ws.Pump(hub, transcribeService.Events())

	// ROUTER
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Auth", "X-Room"},
		AllowCredentials: true,
	}))
	r.Use(metrics.Middleware)

	delivery.RegisterRoutes(r, delivery.NewTranscribeHandler(transcribeService, zl))
	r.Handle("/metrics", metrics.Handler())
	r.Get("/ws", ws.WSHandler(hub, transcribeService))

	if repo != nil && cfg.AuthSecret != "" {
		authService := domain.NewAuthService(cfg.AuthPassword, cfg.AuthSecret)
		delivery.RegisterHistoryRoutes(r,
			delivery.NewAuthHandler(authService, zl),
			authService,
			delivery.NewHistoryHandler(repo, zl),
		)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zl.Log(logger.LogEntry{
			Level:   "info",
			Message: "server started",
			Fields:  map[string]any{"port": cfg.Port},
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zl.Log(logger.LogEntry{
			Level:   "error",
			Message: "server crashed",
			Error:   err,
		})
		os.Exit(1)
	}

	zl.Log(logger.LogEntry{
		Level:   "info",
		Message: "server stopped",
	})
}
