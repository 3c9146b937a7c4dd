package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/AniketShinde02/gurukul-match/internal/adapters/http"
	wsignal "github.com/AniketShinde02/gurukul-match/internal/adapters/signal"
	"github.com/AniketShinde02/gurukul-match/internal/app"
	"github.com/AniketShinde02/gurukul-match/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Mode == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	orch := app.NewOrchestrator(app.Options{
		EndOnUnreachable: cfg.EndOnUnreachable,
	})
	ctl := wsignal.NewMatchWSController(orch, cfg)

	sup := &app.Supervisor{
		Orch:         orch,
		Interval:     cfg.SweepInterval,
		PongWait:     cfg.PongWait,
		QueueTTL:     cfg.QueueTTL,
		PromoteAfter: cfg.BuddyPromoteAfter,
	}
	go sup.Run(ctx)

	r := router.SetupRouter(ctx, cfg, orch, ctl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("matchmaking server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	orch.Shutdown("Server restarting...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
