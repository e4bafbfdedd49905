package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/keizu/config"
	"github.com/Ramsey-B/keizu/pkg/events"
	"github.com/Ramsey-B/keizu/pkg/genealogy"
	"github.com/Ramsey-B/keizu/pkg/graph"
	"github.com/Ramsey-B/keizu/pkg/kafka"
	"github.com/Ramsey-B/keizu/pkg/logging"
	"github.com/Ramsey-B/keizu/pkg/routes/health"
	"github.com/Ramsey-B/keizu/pkg/server"
	"github.com/Ramsey-B/keizu/pkg/startup"
	"github.com/Ramsey-B/keizu/pkg/store/memory"
	"github.com/Ramsey-B/keizu/pkg/tracing"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.PrettyLogs)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown := tracing.Init(cfg.AppName, nil)
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.WithError(err).Warn("Failed to shut down tracer provider")
			}
		}()
	}

	deps := startup.NewStartup(logger, cfg.StartupMaxAttempts)
	checks := map[string]health.Pinger{}

	var (
		people genealogy.PersonRepository
		clans  genealogy.ClanRepository
	)
	if cfg.GraphDBEnabled {
		client, err := graph.NewClient(graph.Config{
			Host:     cfg.GraphDBHost,
			Port:     cfg.GraphDBPort,
			Username: cfg.GraphDBUser,
			Password: cfg.GraphDBPassword,
			Database: cfg.GraphDBDatabase,
		}, logger)
		if err != nil {
			return err
		}
		deps.AddDependency(startup.Func{
			Name:      "graph",
			StartFunc: client.VerifyConnectivity,
			StopFunc:  client.Close,
		})
		if cfg.GraphDBIndexes {
			deps.AddDependency(startup.Func{
				Name:      "graph-indexes",
				Requires:  []string{"graph"},
				StartFunc: client.EnsureIndexes,
			})
		}
		checks["graph"] = client
		people = graph.NewSamuraiRepository(client, logger)
		clans = graph.NewClanRepository(client, logger)
	} else {
		logger.Warn("Graph database disabled, using in-memory store")
		store := memory.NewStore()
		checks["memory"] = store
		people = store.Samurai()
		clans = store.Clans()
	}

	var emitter genealogy.EventEmitter
	if cfg.KafkaEnabled {
		producer := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		deps.AddDependency(startup.Func{
			Name:     "kafka",
			StopFunc: func(context.Context) error { return producer.Close() },
		})
		emitter = events.NewEmitter(producer, logger)
	}

	resolver := genealogy.NewNameResolver(logger, clans)
	trees := genealogy.NewTreeBuilder(logger, people, cfg.TreeMaxNodes)
	checker := health.NewChecker(version, checks)

	e := server.New(logger, server.Options{
		AppName: cfg.AppName,
		Samurai: genealogy.NewSamuraiService(logger, people, clans, resolver, trees, emitter),
		Clans:   genealogy.NewClanService(logger, clans, resolver, emitter),
		Health:  checker,
	})

	if err := deps.Start(ctx); err != nil {
		return err
	}
	defer stopDependencies(deps, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           e,
		ReadTimeout:       time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.WithField("port", cfg.Port).Info("Starting server")
		if err := e.StartServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	checker.SetReady(true)

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	checker.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to shut down server")
	}
	logger.Info("Server stopped")

	return nil
}

func stopDependencies(deps *startup.Startup, logger ectologger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := deps.Stop(ctx); err != nil {
		logger.WithError(err).Error("Failed to stop dependencies")
	}
}
