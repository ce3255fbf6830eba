package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kestrel/api/rest"
	"kestrel/api/ws"
	"kestrel/engine"
	"kestrel/infra/journal"
	"kestrel/infra/log"
	"kestrel/infra/metrics"
	"kestrel/infra/outbox"
	"kestrel/internal/config"
	"kestrel/jobs/broadcaster"
	"kestrel/jobs/depthfeed"
	"kestrel/service"
)

func main() {
	// ---------------- Config & logging ----------------

	cfg := config.Load()
	logger := log.NewLogger(cfg)
	reg := metrics.Init(logger)

	// ---------------- Journal ----------------

	jrnl, err := journal.Open(journal.Config{
		Dir:             cfg.Journal.Dir,
		SegmentSize:     cfg.Journal.SegmentSizeBytes,
		SegmentDuration: time.Duration(cfg.Journal.SegmentRotateSeconds) * time.Second,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("journal init failed")
	}
	defer jrnl.Close()

	// ---------------- Outbox ----------------

	ob, err := outbox.Open(cfg.Outbox.Dir)
	if err != nil {
		logger.Fatal().Err(err).Msg("outbox init failed")
	}
	defer ob.Close()

	// ---------------- Engine & service ----------------

	mgr := engine.NewManager()
	svc := service.NewOrderService(mgr, jrnl, ob, logger)

	// ---------------- Background jobs ----------------

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Kafka.Enabled {
		bc, err := broadcaster.New(
			ob,
			cfg.Kafka.Brokers,
			cfg.Kafka.TradesTopic,
			time.Duration(cfg.Feed.BroadcastIntervalMillis)*time.Millisecond,
			logger,
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("broadcaster init failed")
		}
		defer bc.Close()
		go bc.Run(ctx)

		feed := depthfeed.New(
			svc,
			cfg.Kafka.Brokers,
			cfg.Kafka.DepthTopic,
			time.Duration(cfg.Feed.DepthIntervalMillis)*time.Millisecond,
			logger,
		)
		defer feed.Close()
		go feed.Run(ctx)
	}

	// ---------------- HTTP ----------------

	depthInterval := time.Duration(cfg.Feed.DepthIntervalMillis) * time.Millisecond

	mux := http.NewServeMux()
	mux.Handle("/", rest.New(svc, logger).Handler())
	mux.Handle("GET /v1/stream/depth", ws.NewDepthStream(svc, depthInterval, logger))
	mux.Handle("GET /metrics", metrics.Handler(reg))

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("kestrel engine listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server exited")
		}
	}()

	// ---------------- Shutdown ----------------

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
