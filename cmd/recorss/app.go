package main

import (
	"context"
	"database/sql"
	"fmt"

	"recorss/internal/config"
	"recorss/internal/db"
	"recorss/internal/logger"
	"recorss/internal/network"
	"recorss/internal/repository"
	"recorss/internal/service"
	"recorss/internal/service/classifier"
	"recorss/internal/snowflake"
)

type app struct {
	cfg     config.Config
	db      *sql.DB
	items   repository.ItemRepository
	refresh service.RefreshService
}

// newApp loads configuration and wires storage, classifiers and the refresh
// pipeline. Configuration errors are fatal.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Init(logger.ParseLevel(cfg.LogLevel), logger.ParseFormat(cfg.LogFormat))

	if err := snowflake.Init(cfg.NodeID); err != nil {
		return nil, fmt.Errorf("init snowflake: %w", err)
	}

	dbConn, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	p := cfg.Pipeline
	clients := network.NewClientFactory(p.ProxyURL)
	classifiers, err := classifier.Load(ctx, p.Classifiers, p.StrictClassifiers, classifier.Deps{Clients: clients})
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	ensemble := service.NewEnsemble(classifiers, p.ClassifierTimeout)
	for _, c := range ensemble.Classifiers() {
		logger.Info("classifier loaded", "module", "app", "action", "init", "resource", "classifier", "result", "ok", "name", c.Name(), "weight", c.Weight())
	}

	itemRepo := repository.NewItemRepository(dbConn)
	refresh := service.NewRefreshService(
		p,
		service.NewFetcher(clients, p.FetchTimeout),
		itemRepo,
		ensemble,
		service.NewWriter(repository.NewTransactor(dbConn)),
		service.NewPublisher(itemRepo, cfg.OutputDir, p.Host, p.PublishWindow),
	)

	logger.Info("app initialized", "module", "app", "action", "init", "resource", "app", "result", "ok", "feeds", len(p.Feeds), "classifiers", len(classifiers), "proxy", clients.ProxyURL() != "", "db", cfg.DBPath, "output", cfg.OutputDir)
	return &app{cfg: cfg, db: dbConn, items: itemRepo, refresh: refresh}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
