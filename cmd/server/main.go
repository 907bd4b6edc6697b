package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"signal-tracker/src/config"
	datasource "signal-tracker/src/data_source"
	"signal-tracker/src/interfaces"
	"signal-tracker/src/logger"
	"signal-tracker/src/metrics"
	"signal-tracker/src/network"
	"signal-tracker/src/scheduler"
	"signal-tracker/src/server"
	"signal-tracker/src/storage"
	"signal-tracker/src/store"
	"signal-tracker/src/utils"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	tickers := flag.String("tickers", "", "comma-separated tickers to track (overrides config)")
	port := flag.Int("port", 0, "command server port (overrides config)")
	minutes := flag.Int("minutes", 0, "sampling interval in minutes: 5, 15, 30 or 60 (overrides config)")
	reload := flag.String("reload", "", "sqlite file to reload history from instead of the provider")
	flag.Parse()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Apply CLI overrides, then validate the effective configuration.
	if *tickers != "" {
		cfg.Tickers = strings.Split(*tickers, ",")
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *minutes != 0 {
		cfg.IntervalMinutes = *minutes
	}
	if *reload != "" {
		cfg.ReloadSource = *reload
		cfg.Storage.Enabled = true
		cfg.Storage.DBType = "sqlite"
		cfg.Storage.DBPath = *reload
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Error in configuration: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg.LogLevel, cfg.Name)

	// Provider credentials come from the environment, never the YAML.
	creds, err := config.LoadCredentials()
	if err != nil {
		appLogger.Critical("%v", err)
	}

	// 1. Upstream components
	var networkManager interfaces.INetworkManager = network.NewManager(cfg.MConfig, appLogger)
	provider := datasource.NewProvider(creds, cfg.IntervalMinutes, networkManager, appLogger.Named("provider"))

	// 2. Optional persistence
	var db interfaces.IDatabase
	if cfg.Storage.Enabled {
		switch cfg.Storage.DBType {
		case "postgres":
			db, err = storage.NewPostgresDB(cfg.MConfig, appLogger)
		default:
			db, err = storage.NewSQLiteDB(cfg.MConfig, appLogger)
		}
		if err != nil {
			appLogger.Critical("Failed to init db: %v", err)
		}
		if err := db.Initialize(); err != nil {
			appLogger.Critical("Failed to migrate db: %v", err)
		}
		defer db.Close()
	}

	// 3. Store and initial history. A failure here is fatal: the server
	// must not come up tracking fewer tickers than it was asked for.
	ts := store.NewTickerStore(cfg.WindowSize(), provider, appLogger.Named("store"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appLogger.Info("Fetching initial data for %d tickers...", len(cfg.Tickers))
	for _, symbol := range cfg.Tickers {
		if cfg.ReloadSource != "" {
			history, err := db.LoadHistory(store.Normalize(symbol))
			if err == nil && len(history) == 0 {
				err = fmt.Errorf("no stored history for %s in %s", symbol, cfg.ReloadSource)
			}
			if err == nil {
				err = ts.InstallHistory(symbol, history)
			}
			if err != nil {
				appLogger.Critical("Reload failed for %s: %v", symbol, err)
			}
			continue
		}
		if err := ts.AddTicker(ctx, symbol); err != nil {
			appLogger.Critical("Initial fetch failed for %s: %v", symbol, err)
		}
	}

	// Persist the freshly fetched history so a later -reload can skip
	// the provider round-trip.
	if db != nil && cfg.ReloadSource == "" {
		for _, symbol := range ts.Symbols() {
			if series, ok := ts.Series(symbol); ok {
				if err := db.SavePricePoints(symbol, series.Snapshot()); err != nil {
					appLogger.Warning("Failed to persist history for %s: %v", symbol, err)
				}
			}
		}
	}
	appLogger.Info("Initialization complete.")

	// 4. Observability surface
	recorder := metrics.New()

	var statusServer *server.StatusServer
	var publisher interfaces.IPointPublisher
	if cfg.HTTP.Enabled {
		statusServer = server.NewStatusServer(cfg.MConfig, ts, appLogger.Named("http"))
		publisher = statusServer
		go func() {
			if err := statusServer.Start(); err != nil {
				appLogger.Error("Status server failed: %v", err)
			}
		}()
	}

	// 5. Command server. A bind failure is fatal before we start polling.
	dispatcher := &server.Dispatcher{Store: ts, Logger: appLogger.Named("dispatcher"), DB: db, Metrics: recorder}
	commandServer := server.NewCommandServer(cfg.MConfig, dispatcher, appLogger.Named("server"))
	if err := commandServer.Listen(); err != nil {
		appLogger.Critical("Failed to bind %s:%d: %v", cfg.Host, cfg.Port, err)
	}
	go func() {
		if err := commandServer.Serve(ctx); err != nil {
			appLogger.Error("Command server failed: %v", err)
		}
	}()
	appLogger.Info("Command server listening on %s", commandServer.Addr())

	// 6. Periodic refresh loop
	var markets interfaces.IMarketGate
	if cfg.Calendar.Enabled {
		markets = utils.NewMarketScheduler(ts.Symbols(), appLogger.Named("calendar"))
	}

	sched := &scheduler.UpdateScheduler{
		Store:     ts,
		Provider:  provider,
		DB:        db,
		Publisher: publisher,
		Markets:   markets,
		Metrics:   recorder,
		Interval:  time.Duration(cfg.IntervalMinutes) * time.Minute,
		Logger:    appLogger.Named("scheduler"),
	}
	go sched.Run(ctx)

	// 7. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")
	cancel()
	if statusServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := statusServer.Stop(shutdownCtx); err != nil {
			appLogger.Warning("Status server shutdown: %v", err)
		}
	}
}
