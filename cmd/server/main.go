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
	"cryptolens/internal/bot"
	"cryptolens/internal/config"
	"cryptolens/internal/datasource"
	"cryptolens/internal/handler"
	"cryptolens/internal/tracker"
	"cryptolens/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "cryptolens/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initTracerFunc         = tracing.InitTracer
	newSourcesFunc         = datasource.New
	newAnalyticsFunc       = analytics.New
	newTrackerFunc         = tracker.New
	newHandlerFunc         = handler.New
	startTelegramBotFunc   = bot.StartTelegramBot
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           CryptoLens API
// @version         2.0
// @description     Cross-source crypto market intelligence over CoinGecko, DeFiLlama and alternative.me.

// @host      localhost:8080
// @BasePath  /
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
	sources := newSourcesFunc(tracer, opts...)
	sources.Start()
	defer sources.Stop()

	analyticsSvc := newAnalyticsFunc(tracer, sources)
	tr := newTrackerFunc()

	startTelegramBotFunc(cfg.TelegramBotToken, analyticsSvc)

	h := newHandlerFunc(tracer, analyticsSvc, sources, sources, tr, cfg.AdminAPIKey)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("cryptolens"))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
