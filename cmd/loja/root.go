package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rogrs/loja/internal/config"
	"github.com/rogrs/loja/internal/datastore"
	"github.com/rogrs/loja/internal/indexsync"
	"github.com/rogrs/loja/internal/logger"
	"github.com/rogrs/loja/internal/repository"
	"github.com/rogrs/loja/internal/search"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "loja",
		Short:         "Loja tamanhos service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML config file")

	root.AddCommand(
		newServeCmd(&configPath),
		newMigrateCmd(&configPath),
		newReindexCmd(&configPath),
	)
	return root
}

// app is the wiring shared by every command.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	ds      *datastore.Datastore
	primary repository.TamanhosRepository
	outbox  repository.OutboxRepository
	index   search.TamanhosSearchRepository
	syncer  *indexsync.Syncer
}

func openApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	ds, err := datastore.Open(ctx, cfg)
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("failed to open datastore: %w", err)
	}

	primary := repository.NewTamanhosRepository(ds.Primary)
	outbox := repository.NewOutboxRepository(ds.Primary)
	index := search.NewTamanhosIndex(ds.Index)

	return &app{
		cfg:     cfg,
		logger:  log,
		ds:      ds,
		primary: primary,
		outbox:  outbox,
		index:   index,
		syncer:  indexsync.New(primary, index, outbox, cfg.Sync, log),
	}, nil
}

func (a *app) Close() error {
	_ = a.logger.Sync()
	if err := a.primary.Close(); err != nil {
		a.logger.Warn("failed to close statements", zap.Error(err))
	}
	return a.ds.Close()
}
