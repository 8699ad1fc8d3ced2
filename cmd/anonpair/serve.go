package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"anonpair/backend/internal/api/handler"
	"anonpair/backend/internal/chathub"
	"anonpair/backend/internal/config"
	"anonpair/backend/internal/events"
	"anonpair/backend/internal/localization"
	"anonpair/backend/internal/stats"
	"anonpair/backend/internal/storage"
	"anonpair/backend/internal/telegram"
	"anonpair/backend/internal/transport"
	"anonpair/backend/internal/wsgate"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func runServe(cmd *cobra.Command, args []string) error {
	log.Println("Starting anonpair backend...")
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sinks, closeSinks, err := buildSinks(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSinks()
	dispatcher := events.NewDispatcher(config.EventBufferSize, sinks...)

	loc := localization.Default(cfg.Language)
	ws := wsgate.NewHub(nil)

	var (
		tgGateway chathub.Gateway
		tgBot     telegram.TelegramBot
	)
	if cfg.TelegramToken != "" {
		tgBot, err = telegram.NewBot(cfg.TelegramToken)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		tgGateway = telegram.NewGateway(tgBot, loc, cfg.Language)
	} else {
		log.Println("WARN: TELEGRAM_BOT_TOKEN is not set, serving WebSocket clients only")
	}

	hub := chathub.NewManagerService(transport.NewRouter(tgGateway, ws), loc, chathub.Options{
		Language:     cfg.Language,
		SendTimeout:  cfg.SendTimeout,
		Observers:    cfg.Observers,
		Sink:         dispatcher,
		IncomingSize: config.IncomingBufferSize,
	})
	ws.Events = hub

	reporter, err := stats.NewReporter(hub, cfg.StatsSchedule)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	spawn := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}
	spawn(func() { dispatcher.Run(ctx) })
	spawn(func() { hub.Run(ctx) })
	spawn(func() {
		if err := reporter.Run(ctx); err != nil {
			log.Printf("ERROR: stats reporter: %v", err)
		}
	})
	if tgBot != nil {
		bots := telegram.NewBotService(tgBot, hub, loc)
		spawn(func() { bots.Run(ctx) })
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	handler.NewHandler(hub, ws, cfg.JWTSecret, config.AnonTokenTTL, config.AnonTokenIssuer).Register(r)

	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        r,
		ReadTimeout:    config.HTTPReadTimeout,
		WriteTimeout:   config.HTTPWriteTimeout,
		MaxHeaderBytes: config.HTTPMaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("INFO: HTTP listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err = <-serveErr:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := server.Shutdown(shutdownCtx); serr != nil {
		log.Printf("WARN: HTTP shutdown: %v", serr)
	}
	wg.Wait()
	log.Printf("INFO: stopped, %d events dropped", dispatcher.Dropped())
	return err
}

// buildSinks wires the log sink plus every optional sink the configuration
// enables. The returned func releases their connections.
func buildSinks(ctx context.Context, cfg config.Config) ([]events.Sink, func(), error) {
	sinks := []events.Sink{events.LogSink{}}
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to connect Redis: %w", err)
		}
		closers = append(closers, func() { _ = rdb.Close() })
		sinks = append(sinks, events.NewRedisSink(rdb, cfg.RedisChannel))
		log.Printf("INFO: publishing events to redis channel %s", cfg.RedisChannel)
	}

	if cfg.RabbitURL != "" {
		rabbit, err := events.NewRabbitSink(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
		}
		closers = append(closers, func() { _ = rabbit.Close() })
		sinks = append(sinks, rabbit)
		log.Printf("INFO: publishing events to rabbitmq queue %s", cfg.RabbitQueue)
	}

	if cfg.DBDSN != "" {
		store, err := openArchive(cfg.DBDSN)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, func() {
			if sqlDB, err := store.DB.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})
		sinks = append(sinks, storage.NewArchive(store))
		log.Println("INFO: session archive enabled")
	}

	return sinks, closeAll, nil
}

func openArchive(dsn string) (*storage.Service, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	store := storage.NewStorageService(db)
	if err := store.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}
