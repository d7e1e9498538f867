package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cryptolens/internal/analytics"
	"cryptolens/internal/config"
	"cryptolens/internal/datasource"
	"cryptolens/internal/mcpserver"
	"cryptolens/internal/tracker"
	"cryptolens/pkg/tracing"

	"github.com/joho/godotenv"
)

const serverVersion = "2.0.0"

var (
	loadEnvFunc       = godotenv.Load
	loadConfigFunc    = config.Load
	initTracerFunc    = tracing.InitTracer
	setupSignalNotify = signal.Notify
)

func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	var opts []datasource.Option
	if cfg.CoinGeckoBaseURL != "" {
		opts = append(opts, datasource.WithCoinGeckoURL(cfg.CoinGeckoBaseURL))
	}
	if cfg.DefiLlamaBaseURL != "" {
		opts = append(opts, datasource.WithDefiLlamaURL(cfg.DefiLlamaBaseURL))
	}
	if cfg.FearGreedBaseURL != "" {
		opts = append(opts, datasource.WithFearGreedURL(cfg.FearGreedBaseURL))
	}
	sources := datasource.New(tracer, opts...)
	sources.Start()
	defer sources.Stop()

	analyticsSvc := analytics.New(tracer, sources)
	srv := mcpserver.New(serverVersion, analyticsSvc, sources, tracker.New())

	switch cfg.MCPTransport {
	case "http":
		addr := fmt.Sprintf("%s:%d", cfg.MCPHTTPBind, cfg.MCPHTTPPort)
		httpSrv := &http.Server{Addr: addr, Handler: srv.HTTPHandler()}

		go func() {
			log.Printf("MCP server listening on %s", addr)
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("listen: %v", err)
			}
		}()

		quit := make(chan os.Signal, 1)
		setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down MCP server...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("MCP server shutdown error: %v", err)
		}

	default:
		log.Println("MCP server running on stdio")
		if err := srv.RunStdio(ctx); err != nil {
			log.Fatalf("MCP server exited: %v", err)
		}
	}
}
