package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	cfgpkg "github.com/ichStark/byen-tech/internal/config"
	logpkg "github.com/ichStark/byen-tech/internal/logger"
	"github.com/ichStark/byen-tech/internal/metrics"
	"github.com/ichStark/byen-tech/internal/service"
	"github.com/ichStark/byen-tech/internal/web"
)

func main() {
	_ = godotenv.Load()
	cfg := cfgpkg.FromEnv()

	_ = logpkg.Init(logpkg.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	})
	defer logpkg.Close()

	metrics.Init()

	svc := service.New(cfg.Convert)

	mux := http.NewServeMux()
	web.New(svc, cfg.Server).RegisterRoutes(mux)
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: mux}

	go func() {
		log.Info().Msgf("HTTP server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info().Msg("shutdown complete")
}
