package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/storefront-eng/salesync/internal/cart"
	"github.com/storefront-eng/salesync/internal/catalog"
	"github.com/storefront-eng/salesync/internal/config"
	"github.com/storefront-eng/salesync/internal/connection"
	"github.com/storefront-eng/salesync/internal/consumer"
	"github.com/storefront-eng/salesync/internal/database"
	"github.com/storefront-eng/salesync/internal/dispatch"
	"github.com/storefront-eng/salesync/internal/journal"
	"github.com/storefront-eng/salesync/internal/sale"
	"github.com/storefront-eng/salesync/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/engine.local.yaml", "path to config file")
	flag.Parse()

	// Optional .env preload so ${VAR} expansion in the config has values.
	if err := godotenv.Load(); err == nil {
		fmt.Fprintln(os.Stderr, "loaded environment from .env")
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting sale sync engine",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"catalog_url", cfg.Catalog.BaseURL,
		"realtime_host", cfg.Realtime.Host,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Catalog REST client
	catalogClient := catalog.NewClient(
		cfg.Catalog.BaseURL,
		cfg.Catalog.Token,
		catalog.WithLogger(logger),
		catalog.WithTimeout(cfg.Catalog.Timeout),
		catalog.WithRetries(cfg.Catalog.MaxRetries, time.Second),
	)

	// Sale lifecycle store
	saleStore := sale.NewStore(sale.Config{
		RefreshInterval: cfg.Sales.RefreshInterval,
		RefreshGrace:    cfg.Sales.RefreshGrace,
		TickInterval:    cfg.Sales.TickInterval,
	}, catalogClient, nil, logger)

	// Cart store, mirrored into redis when configured
	var cartRepo *cart.Repository
	if cfg.Cart.RedisAddr != "" {
		redisClient, err := cart.NewRedisClient(cfg.Cart.RedisAddr, cfg.Cart.RedisPassword, cfg.Cart.RedisDB)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		cartRepo = cart.NewRepository(redisClient, cfg.Cart.TTL)
		defer cartRepo.Close()
		logger.Info("cart persistence enabled", "addr", cfg.Cart.RedisAddr)
	}

	cartStore := cart.NewStore(cfg.Instance.ID, cartRepo, logger)
	if err := cartStore.Restore(ctx); err != nil {
		logger.Warn("cart restore failed, starting empty", "error", err)
	}

	priceSync := cart.NewSynchronizer(cartStore, logger)
	saleStore.Subscribe(priceSync.OnSaleSetChanged)

	// Consumers
	notifications := consumer.NewNotifications(0, logger)
	orders := consumer.NewOrders(logger)

	// Optional event journal
	var eventJournal *journal.Journal
	if cfg.Journal.Database.Host != "" {
		logger.Info("connecting to database",
			"host", cfg.Journal.Database.Host,
			"port", cfg.Journal.Database.Port,
			"database", cfg.Journal.Database.Name,
		)
		pool, err := database.Connect(ctx, cfg.Journal.Database)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		eventJournal = journal.New(journal.Config{
			BatchSize:     cfg.Journal.BatchSize,
			FlushInterval: cfg.Journal.FlushInterval,
		}, pool, logger)
		if err := eventJournal.Start(ctx); err != nil {
			logger.Error("failed to start event journal", "error", err)
			os.Exit(1)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer stopCancel()
			eventJournal.Stop(stopCtx)
		}()
	}

	// Per-topic connection managers
	mgrCfg := connection.ManagerConfig{
		Host:              cfg.Realtime.Host,
		Secure:            cfg.Realtime.Secure,
		Token:             cfg.Realtime.Token,
		ReconnectInterval: cfg.Realtime.ReconnectInterval,
		MaxAttempts:       cfg.Realtime.MaxAttempts,
		WriteTimeout:      cfg.Realtime.WriteTimeout,
		HandshakeTimeout:  cfg.Realtime.HandshakeTimeout,
		BufferSize:        cfg.Realtime.BufferSize,
	}

	managers := []*connection.Manager{
		connection.NewManager(connection.TopicNotifications, mgrCfg, logger),
		connection.NewManager(connection.TopicOrders, mgrCfg, logger),
		connection.NewManager(connection.TopicFlashSales, mgrCfg, logger),
	}

	for _, mgr := range managers {
		go logStates(mgr, logger)
	}

	// Dispatcher wiring: push events feed the stores and consumers
	handlers := dispatch.Handlers{
		Notification:   notifications.Add,
		OrderUpdate:    orders.Apply,
		SaleStarted:    saleStore.ApplySaleStarted,
		SaleEndingSoon: notifications.AddEndingSoon,
		SaleExpired:    saleStore.ApplySaleExpired,
		SaleTimer:      saleStore.ApplyTimerUpdate,
		Unparsed: func(frame connection.RawFrame) {
			logger.Warn("unparsed frame retained",
				"topic", frame.Topic,
				"len", len(frame.Data),
			)
		},
	}
	if eventJournal != nil {
		handlers.Observer = eventJournal.Record
	}

	dispatcher := dispatch.NewDispatcher(handlers, logger)

	// Health endpoint
	healthPort := cfg.Health.Port
	healthPath := cfg.Health.Path
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", healthPort),
		Handler: createHealthHandler(healthPath, managers, saleStore, cartStore, dispatcher),
	}

	go func() {
		logger.Info("starting health server", "port", healthPort)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	// Start sale store (cold-start snapshot + timers + periodic refresh)
	if err := saleStore.Start(ctx); err != nil {
		logger.Error("failed to start sale store", "error", err)
		os.Exit(1)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		saleStore.Stop(stopCtx)
	}()

	inputs := make([]<-chan connection.RawFrame, 0, len(managers))
	for _, mgr := range managers {
		inputs = append(inputs, mgr.Frames())
	}
	if err := dispatcher.Start(ctx, inputs...); err != nil {
		logger.Error("failed to start dispatcher", "error", err)
		os.Exit(1)
	}

	// Open the realtime channels. Without a token these are no-ops and
	// the engine runs on REST polling alone.
	for _, mgr := range managers {
		if err := mgr.Open(ctx); err != nil {
			logger.Error("failed to open channel", "error", err)
		}
	}

	logger.Info("sale sync engine running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d%s", healthPort, healthPath),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	for _, mgr := range managers {
		mgr.Close(connection.ManualClose)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	dispatcher.Stop(stopCtx)
	healthServer.Shutdown(stopCtx)

	logger.Info("sale sync engine stopped")
}

// logStates surfaces connection phase transitions in the log.
func logStates(mgr *connection.Manager, logger *slog.Logger) {
	for state := range mgr.States() {
		attrs := []any{
			"topic", state.Topic,
			"phase", state.Phase,
		}
		if state.Attempt > 0 {
			attrs = append(attrs, "attempt", state.Attempt)
		}
		if state.LastError != "" {
			attrs = append(attrs, "last_error", state.LastError)
		}
		logger.Info("connection state changed", attrs...)
	}
}

// createHealthHandler creates the HTTP handler for health checks.
func createHealthHandler(
	path string,
	managers []*connection.Manager,
	saleStore *sale.Store,
	cartStore *cart.Store,
	dispatcher *dispatch.Dispatcher,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		health := struct {
			Status     string                 `json:"status"`
			Components map[string]interface{} `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]interface{}),
		}

		channels := make(map[string]interface{}, len(managers))
		for _, mgr := range managers {
			state := mgr.State()
			channels[string(state.Topic)] = map[string]interface{}{
				"phase":   string(state.Phase),
				"attempt": state.Attempt,
			}
			if state.Phase == connection.PhaseErrored {
				health.Status = "degraded"
			}
		}
		health.Components["channels"] = channels

		health.Components["sales"] = map[string]interface{}{
			"active":   len(saleStore.ActiveSales()),
			"upcoming": len(saleStore.UpcomingSales()),
		}

		health.Components["cart"] = map[string]interface{}{
			"lines": len(cartStore.Lines()),
			"total": cartStore.Total(),
		}

		stats := dispatcher.Stats()
		health.Components["dispatcher"] = map[string]interface{}{
			"received": stats.Received,
			"routed":   stats.Routed,
			"unknown":  stats.Unknown,
			"unparsed": stats.Unparsed,
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("/debug/sales", func(w http.ResponseWriter, r *http.Request) {
		sales := saleStore.Snapshot()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"count": len(sales),
			"sales": sales,
		})
	})

	return mux
}
