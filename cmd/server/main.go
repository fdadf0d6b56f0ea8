package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"docsync/internal/api"
	"docsync/internal/auth"
	"docsync/internal/bridge"
	"docsync/internal/config"
	"docsync/internal/routers"
	"docsync/internal/session"
	"docsync/internal/store"
	memorystore "docsync/internal/store/memory"
	mongostore "docsync/internal/store/mongo"
	redisstore "docsync/internal/store/redis"
)

var (
	listenAndServe = http.ListenAndServe
	exit           = os.Exit
	exitFunc       = defaultExit
)

func defaultExit(err error) {
	log.Printf("docsync-svc failed: %v", err)
	exit(1)
}

func healthHandler(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) }

func newStore(ctx context.Context, cfg *config.Config) (store.DocumentStore, error) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		return redisstore.New(cfg.RedisAddr), nil
	case config.BackendMongo:
		return mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
	case config.BackendMemory:
		return memorystore.New(), nil
	}
	return nil, errors.New("unsupported store backend: " + cfg.StoreBackend)
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()

	st, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}

	br := bridge.New(st, sugar, cfg.SaveWorkers, cfg.SaveTimeout)
	hub := session.NewHub()
	resolver := auth.NewResolver(cfg.JWTSecret)
	handlers := api.NewHandlers(sugar, hub, br, resolver, cfg.SendBuffer)

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
	)
	r.Mount("/", routers.New(handlers))
	r.Get("/healthz", healthHandler)

	addr := ":" + cfg.Port
	sugar.Infow("docsync-svc listening", "addr", addr, "store", cfg.StoreBackend)
	return listenAndServe(addr, r)
}

func main() {
	if err := run(context.Background()); err != nil {
		exitFunc(err)
	}
}
