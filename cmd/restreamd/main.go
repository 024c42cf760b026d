// Command restreamd runs the RTSP restreaming server: the restream
// listener (publishers and subscribers on named paths), the static-pattern
// helper listener, and the admin HTTP surface, wired together and shut
// down gracefully on SIGINT/SIGTERM.
package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bluenviron/restreamd/internal/adminapi"
	"github.com/bluenviron/restreamd/internal/adminapi/metrics"
	"github.com/bluenviron/restreamd/internal/engine"
	"github.com/bluenviron/restreamd/internal/restream"
	"github.com/bluenviron/restreamd/internal/restreamd/config"
	"github.com/bluenviron/restreamd/internal/restreamd/logger"
	"github.com/bluenviron/restreamd/internal/staticsource"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	var tlsConfig *tls.Config
	if cfg.UseTLS {
		cert, err := tls.LoadX509KeyPair(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			log.Error("failed to load TLS certificate", "error", err)
			os.Exit(1)
		}
		tlsConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
	}

	restreamServer := engine.New(engine.Config{
		RestreamAddr:      cfg.RestreamAddr,
		UseTLS:            cfg.UseTLS,
		TLSConfig:         tlsConfig,
		MaxPathsCount:     cfg.MaxPathsCount,
		MaxClientsPerPath: cfg.MaxClientsPerPath,
	}, nil, log)

	met := metrics.New()
	events := adminapi.NewEventFeed(log)
	restreamServer.SetNotificationSink(restream.MultiSink(met.Sink(), events.Sink()))

	staticServer := staticsource.New(cfg.StaticAddr, log)

	router := adminapi.New(restreamServer.Handler.Coordinator, met, events, staticServer, log)
	adminSrv := &http.Server{Addr: cfg.AdminAddr, Handler: router.Handler()}

	go func() {
		if err := restreamServer.Start(); err != nil {
			log.Error("restream server stopped", "error", err)
			os.Exit(1)
		}
	}()

	go func() {
		if err := staticServer.Start(); err != nil {
			log.Error("static source server stopped", "error", err)
			os.Exit(1)
		}
	}()

	go func() {
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("admin server stopped", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("restreamd starting",
		"restream_addr", cfg.RestreamAddr,
		"static_addr", cfg.StaticAddr,
		"admin_addr", cfg.AdminAddr,
		"max_paths_count", cfg.MaxPathsCount,
		"max_clients_per_path", cfg.MaxClientsPerPath,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := adminSrv.Shutdown(ctx); err != nil {
		log.Error("admin server shutdown error", "error", err)
	}
	_ = restreamServer.Close()
	_ = staticServer.Close()

	log.Info("restreamd stopped")
}
