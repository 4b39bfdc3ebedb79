package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"perpview/internal/chain"
	"perpview/internal/config"
	"perpview/internal/observability"
	"perpview/internal/query"
	"perpview/internal/server"
)

func main() {
	log := observability.NewLogger("main")

	cfgPath := os.Getenv("PERPVIEW_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfgPath).Msg("loading config failed")
	}

	metrics := observability.NewMetrics()
	health := observability.NewHealthChecker()

	client := chain.NewClient(
		cfg.Chain.RPCURL,
		cfg.Contracts(),
		cfg.Tokens.Native,
		observability.NewLogger("chain"),
	)

	svc := query.NewService(
		client,
		cfg.WhitelistedTokens(),
		cfg.Tokens.Native,
		cfg.Tokens.Usdg,
		observability.NewLogger("query"),
		metrics,
	)

	httpServer := server.NewHTTPServer(cfg.Server.Addr, server.Deps{
		Service:       svc,
		HealthChecker: health,
		Metrics:       metrics,
		Log:           observability.NewLogger("http"),
	})

	metricsServer := &http.Server{
		Addr:    cfg.Server.MetricsAddr,
		Handler: promhttp.Handler(),
	}
	go func() {
		log.Info().Str("addr", cfg.Server.MetricsAddr).Msg("metrics server listening")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()
	health.SetReady(true)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutting down")
	health.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := metricsServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("metrics shutdown failed")
	}
}
