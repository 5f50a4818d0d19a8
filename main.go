package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pkg/browser"
	"go.uber.org/zap"

	"github.com/BlackMission/graphprofile/internal/auth"
	"github.com/BlackMission/graphprofile/internal/config"
	"github.com/BlackMission/graphprofile/internal/cookie"
	"github.com/BlackMission/graphprofile/internal/graph"
	"github.com/BlackMission/graphprofile/internal/handler"
	"github.com/BlackMission/graphprofile/internal/logging"
	"github.com/BlackMission/graphprofile/internal/metrics"
	"github.com/BlackMission/graphprofile/internal/server"
	"github.com/BlackMission/graphprofile/internal/session"
	"github.com/BlackMission/graphprofile/internal/state"
	"github.com/BlackMission/graphprofile/internal/view"
)

const janitorInterval = 5 * time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("load .env: %v", err)
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logging.Sync(logger)

	for _, name := range cfg.Secrets.Generated {
		logger.Warn("generated a random key; sessions will not survive a restart", zap.String("variable", name))
	}

	m := metrics.New()

	factory := auth.NewFactory(auth.Config{
		ClientID:  cfg.Identity.ClientID,
		Authority: cfg.Identity.Authority,
		Scopes:    cfg.Identity.Scopes,
	}, logger, auth.ObserveEvents(m), auth.LogEvents(logger))

	codec, err := cookie.NewCodec([]byte(cfg.Secrets.SessionEncryptionKey), cfg.Session.TTL, cfg.Session.CookieSecure)
	if err != nil {
		logger.Fatal("create cookie codec", zap.Error(err))
	}

	sessions := session.NewStore(cfg.Session.TTL, logger)
	sessions.StartJanitor(janitorInterval)
	defer sessions.Close()

	graphClient := graph.New(graph.Config{
		BaseURL: cfg.Graph.BaseURL,
		Timeout: cfg.Graph.Timeout,
	})

	srv := server.New(server.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	}, server.Deps{
		Handlers: handler.Deps{
			Sessions: sessions,
			Cookies:  codec,
			State:    state.NewService([]byte(cfg.Secrets.StateSigningKey)),
			Auth:     factory,
			Loader:   view.NewLoader(graphClient, logger, m),
			Logger:   logger,
		},
		Metrics: m,
		Logger:  logger,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if cfg.App.OpenBrowser {
		url := "http://localhost:" + strconv.Itoa(cfg.Server.Port) + "/"
		if err := browser.OpenURL(url); err != nil {
			logger.Warn("open browser", zap.String("url", url), zap.Error(err))
		}
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	logger.Info("server stopped")
}
