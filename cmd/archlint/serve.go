package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codewithboateng/archlint/internal/api"
	"github.com/codewithboateng/archlint/internal/rulesdsl"
	"github.com/codewithboateng/archlint/internal/storage"
)

func serveCmd(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	addr := fs.String("addr", "", "Listen address")
	dbPath := fs.String("db", "", "SQLite database path")
	_ = fs.Parse(args)

	cfg, logger, ok := loadConfig(*configPath)
	if !ok {
		return exitError
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Database.DSN = *dbPath
	}

	rc, _, err := rulesdsl.Load(cfg.Rules.Pack, settingsFrom(cfg))
	if err != nil {
		logger.Error("rule configuration", "err", err)
		return exitError
	}

	db, err := storage.OpenSQLite(cfg.Database.DSN)
	if err != nil {
		logger.Error("db open error", "err", err)
		return exitError
	}
	defer db.Close()
	if err := db.CreateSchema(); err != nil {
		logger.Error("db schema error", "err", err)
		return exitError
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if cfg.Server.AdminTokenHash == "" {
		logger.Warn("no admin token hash configured; waiver writes are disabled")
	}
	s := &api.Server{
		DB:             db,
		Rules:          rc,
		Logger:         logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AdminTokenHash: cfg.Server.AdminTokenHash,
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	logger.Info("listening", "addr", cfg.Server.Addr, "rules", len(rc.List()), "fingerprint", rc.Fingerprint())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "err", err)
		return exitError
	}
	return exitOK
}
