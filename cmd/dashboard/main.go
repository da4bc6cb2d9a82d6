package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/dileep-u-k/weather-companion/internal/agent"
	"github.com/dileep-u-k/weather-companion/internal/config"
	"github.com/dileep-u-k/weather-companion/internal/conversation"
	"github.com/dileep-u-k/weather-companion/internal/llm"
	"github.com/dileep-u-k/weather-companion/internal/version"
)

// main is the composition root: it loads configuration, builds the services,
// and runs the HTTP server until interrupted.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	buildInfo := version.GetBuildInfo()
	log.Printf("🚀 Starting Weather Dashboard | Version: %s | Commit: %s", buildInfo.Version, buildInfo.GitCommit)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ FATAL: Configuration Error: %v", err)
	}
	log.Println("✅ Configuration loaded.")

	ctx := context.Background()
	rdb, err := initializeRedis(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ FATAL: %v", err)
	}

	var backend llm.LLMClient
	backend, err = cfg.NewBackend(ctx)
	if err != nil {
		log.Fatalf("❌ FATAL: Could not create %s backend: %v", cfg.Provider, err)
	}
	log.Printf("✅ Reasoning backend: %s (%s)", cfg.Provider, cfg.Agent.Generation.Model)

	var store conversation.Store
	var profiler *llm.Profiler
	if rdb != nil {
		store = conversation.NewRedisStore(rdb, cfg.Session.TTL)
		profiler = llm.NewProfiler(rdb)
		backend = llm.NewProfiledClient(backend, profiler, cfg.Agent.Generation.Model)
		log.Printf("✅ Sessions and backend profiles stored in Redis at %s (TTL %s).", cfg.RedisAddr, cfg.Session.TTL)
	} else {
		log.Println("WARNING: REDIS_ADDR not set, sessions are kept in memory and backend profiling is off.")
		store = conversation.NewMemoryStore()
	}

	geocoder, gateway := cfg.NewWeather()
	assistant := agent.New(backend, store, geocoder, gateway, cfg.Agent)
	log.Printf("✅ Agent initialized with %d tools.", assistant.Tools().ToolCount())

	gin.SetMode(os.Getenv("GIN_MODE"))
	handler := NewDashboardHandler(assistant).WithProfiler(profiler, cfg.Agent.Generation.Model)
	engine := setupRouter(handler)

	srv := &http.Server{Addr: fmt.Sprintf(":%s", cfg.Port), Handler: engine}
	runServerWithGracefulShutdown(srv)
}

// initializeRedis connects when REDIS_ADDR is set; a nil client means the
// in-memory fallbacks are used.
func initializeRedis(ctx context.Context, cfg *config.AppConfig) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("could not connect to Redis: %w", err)
	}
	return rdb, nil
}

func runServerWithGracefulShutdown(srv *http.Server) {
	go func() {
		log.Printf("👂 Dashboard is listening on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Listen error: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("❌ Server shutdown failed:", err)
	}
	log.Println("👋 Server exited gracefully.")
}
