package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/zhenghao/ledger-reporter/internal/config"
	"github.com/zhenghao/ledger-reporter/internal/excel"
	"github.com/zhenghao/ledger-reporter/internal/history"
	"github.com/zhenghao/ledger-reporter/internal/ledger"
	"github.com/zhenghao/ledger-reporter/internal/notify"
	"github.com/zhenghao/ledger-reporter/internal/report"
	"github.com/zhenghao/ledger-reporter/internal/server"
	"github.com/zhenghao/ledger-reporter/internal/source"
	"github.com/zhenghao/ledger-reporter/pkg/database"
	"github.com/zhenghao/ledger-reporter/pkg/utils"
)

func main() {
	// Load .env if present; real deployments set env vars directly
	_ = gotenv.Load()

	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Ledger Reporter",
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Create output directory
	if err := utils.EnsureDir(cfg.Report.OutputDir); err != nil {
		logger.Fatal("Failed to create output directory", zap.Error(err))
	}

	// Initialize run history
	runs := history.NewRepository(db.DB, logger)

	// Initialize Lark notifier
	larkCfg := notify.Config{
		Enabled:   cfg.Lark.Enabled,
		AppID:     cfg.Lark.AppID,
		AppSecret: cfg.Lark.AppSecret,
		ChatID:    cfg.Lark.ChatID,
	}
	var larkClient *notify.Client
	if larkCfg.Enabled {
		larkClient = notify.NewClient(larkCfg, logger)
	}
	notifier := notify.NewNotifier(larkClient, larkCfg, logger)

	// Build the template registry
	resolver := source.NewResolver(cfg.Report.SizeLimitMB*1024*1024, logger)
	registry := report.NewRegistry()
	registry.Register(ledger.NewDailyTemplate(ledgerConfig(cfg), resolver, logger))

	reports := report.NewService(registry, runs, notifier, logger)

	// Start HTTP server
	srv := server.NewServer(server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, reports, runs, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Ledger Reporter stopped")
}

func ledgerConfig(cfg *config.Config) ledger.Config {
	lc := ledger.Config{
		MaxRows:         cfg.Report.MaxRows,
		YieldInterval:   cfg.Report.YieldInterval,
		PrimaryStrategy: source.LoadStrategy(cfg.Report.LoadStrategy),
	}
	if cfg.Report.LoanSheet != "" {
		lc.LoanSheet = excel.SheetByName(cfg.Report.LoanSheet)
	}
	if cfg.Report.RepaySheet != "" {
		lc.RepaySheet = excel.SheetByName(cfg.Report.RepaySheet)
	}
	return lc
}
