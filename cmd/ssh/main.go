package main

import (
	"context"
	"fmt"
	"log"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"cryptolens/internal/analytics"
	"cryptolens/internal/config"
	"cryptolens/internal/datasource"
	"cryptolens/internal/tracker"
	"cryptolens/internal/tui"
	"cryptolens/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
	gossh "golang.org/x/crypto/ssh"
)

var (
	loadEnvFunc       = godotenv.Load
	loadConfigFunc    = config.Load
	initTracerFunc    = tracing.InitTracer
	newWishServerFunc = wish.NewServer
	setupSignalNotify = ossignal.Notify
	waitForSignalFunc = func(quit <-chan os.Signal) { <-quit }
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
	tr := tracker.New()

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.SSHPort)

	srv, err := newWishServerFunc(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		// Any key is accepted; the fingerprint is only used to attribute
		// sessions in the tracker.
		wish.WithPublicKeyAuth(func(ctx ssh.Context, key ssh.PublicKey) bool {
			fingerprint := gossh.FingerprintSHA256(key)
			tr.LogRequest(fingerprint, "ssh:session", nil, ctx.ClientVersion())
			log.Printf("SSH session: user=%s fingerprint=%s", ctx.User(), fingerprint)
			return true
		}),
		wish.WithMiddleware(
			bubbletea.Middleware(func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
				model := tui.NewModel(tui.Services{
					Market:   analyticsSvc,
					Cache:    sources,
					Username: s.User(),
				})
				pty, _, _ := s.Pty()
				model.SetSize(pty.Window.Width, pty.Window.Height)

				return model, []tea.ProgramOption{tea.WithAltScreen()}
			}),
			logging.Middleware(),
		),
	)
	if err != nil {
		log.Fatalf("failed to create SSH server: %v", err)
	}

	go func() {
		log.Printf("SSH server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil {
			log.Printf("SSH server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down SSH server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("SSH server shutdown error: %v", err)
	}

	log.Println("SSH server exited")
}
