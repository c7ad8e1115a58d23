// Command sheetsight-server runs the insight engine HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sheetsightai/sheetsight/internal/api"
	"github.com/sheetsightai/sheetsight/internal/config"
	"github.com/sheetsightai/sheetsight/internal/db"
	"github.com/sheetsightai/sheetsight/internal/db/migrations"
	"github.com/sheetsightai/sheetsight/internal/dbpool"
	"github.com/sheetsightai/sheetsight/internal/llm"
	"github.com/sheetsightai/sheetsight/internal/report"
	"github.com/sheetsightai/sheetsight/internal/service"
	"github.com/sheetsightai/sheetsight/internal/store"
)

const shutdownTimeout = 15 * time.Second

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := run(log); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func run(log *logrus.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value())
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		return err
	}

	base := store.Base{Pool: pool, Log: log}
	datasets := store.NewDatasetStore(base)
	analyses := store.NewAnalysisStore(base)
	turns := store.NewTurnStore(base)
	stats := store.NewStatsStore(base)

	model := llm.NewClient(cfg.LLMURL, cfg.LLMModel, cfg.LLMTimeout, cfg.LLMAllowRemote)

	analysisSvc := service.NewAnalysisService(datasets, analyses, model, log, cfg.AnalysisTimeout, cfg.AnomalyStdDevs)
	chatSvc := service.NewChatService(datasets, analyses, turns, model, log)

	go service.NewRetentionWorker(turns, log, cfg.PurgeInterval).Run(ctx)

	router := api.NewRouter(ctx, &api.RouterDeps{
		Log:           log,
		Pool:          pool,
		Datasets:      datasets,
		Analyses:      analysisSvc,
		Chat:          chatSvc,
		Reports:       report.NewRenderer(),
		Stats:         stats,
		Model:         model,
		AccountLookup: &base,
		CORSOrigins:   cfg.CORSOrigins,
		Version:       config.Version,
		ModelName:     cfg.LLMModel,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)

	go func() {
		log.WithFields(logrus.Fields{"addr": cfg.Addr(), "version": config.Version}).Info("server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
