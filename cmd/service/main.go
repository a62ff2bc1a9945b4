// Command service levanta la API HTTP de autenticación.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/talkauth/internal/app"
	"github.com/dropDatabas3/talkauth/internal/config"
	"github.com/dropDatabas3/talkauth/internal/http/server"
	"github.com/dropDatabas3/talkauth/internal/observability/logger"
)

func main() {
	// .env es opcional
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "ruta al YAML de configuración (opcional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "talkauth"})
	defer func() { _ = logger.Sync() }()
	lg := logger.L()

	if err := run(cfg); err != nil {
		lg.Fatal("service stopped", logger.Err(err))
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	lg := logger.L()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	c, err := app.New(ctx, cfg, reg)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			lg.Warn("cleanup error", logger.Err(err))
		}
	}()

	handler, err := server.NewHandler(c, reg)
	if err != nil {
		return err
	}
	srv := server.New(ctx, c, handler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("http server listening", logger.String("addr", cfg.Server.Addr), logger.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		lg.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
