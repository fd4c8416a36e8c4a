package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tempest/internal/config"
	"tempest/internal/domain"
	"tempest/internal/engine"
	"tempest/internal/gates"
	"tempest/internal/httpapi"
	"tempest/internal/oms"
	"tempest/internal/risk"
	"tempest/internal/store"
	"tempest/internal/strategy"
	"tempest/internal/strategy/builtins"
	"tempest/internal/util"
	"tempest/internal/venue"
	"tempest/internal/weather"
)

func main() {
	defaultCfg := "config/tempest.yaml"
	if p := os.Getenv("TEMPEST_CONFIG"); p != "" {
		defaultCfg = p
	}
	cfgPath := flag.String("config", defaultCfg, "path to YAML config")
	once := flag.Bool("once", false, "run a single cycle across all entities and exit")
	confirmLive := flag.Bool("confirm-live", false, "arm live trading (required to place real orders)")
	strategyName := flag.String("strategy", "threshold", "strategy to run")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	mode := domain.TradingMode(cfg.Trading.Mode)
	logger.Info("tempest-trader starting", "mode", mode, "entities", len(cfg.Entities))

	// Durable stores.
	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		log.Fatalf("creating data dir: %v", err)
	}
	db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening order db: %v", err)
	}
	defer db.Close()
	archive := store.NewRunArchive(cfg.Storage.DataDir)

	orders := oms.NewStore(db, logger)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	restored, err := orders.LoadOpenOrders(ctx)
	if err != nil {
		log.Fatalf("restoring open orders: %v", err)
	}
	if restored > 0 {
		logger.Info("restored open orders", "count", restored)
	}

	// Venue client. Demo mode targets the sandbox; without a base URL the
	// local simulator stands in.
	var vn venue.Client
	baseURL := cfg.Venue.BaseURL
	if mode == domain.ModeDemo && cfg.Venue.DemoURL != "" {
		baseURL = cfg.Venue.DemoURL
	}
	if baseURL != "" {
		vn = venue.NewRESTClient(baseURL, cfg.Venue.APIKey, cfg.Venue.APISecret,
			cfg.Venue.RateLimitPerMin, cfg.Venue.MaxRetries)
	} else {
		logger.Warn("no venue base URL configured, using simulator")
		vn = venue.NewSimulator()
	}

	// Weather provider behind the TTL cache.
	provider := weather.NewRESTProvider(cfg.Weather.BaseURL, cfg.Venue.MaxRetries)
	cache := weather.NewCache(provider,
		time.Duration(cfg.Weather.SoftTTLMins)*time.Minute,
		time.Duration(cfg.Weather.HardTTLMins)*time.Minute)

	// Strategy and gates.
	registry := strategy.NewRegistry()
	registry.Register(builtins.NewThreshold())
	strat, ok := registry.Get(*strategyName)
	if !ok {
		log.Fatalf("unknown strategy %q (available: %v)", *strategyName, registry.List())
	}

	// Risk layer.
	calc := risk.NewCalculator(cfg.Risk.Bankroll,
		cfg.Risk.MaxCityExposurePct, cfg.Risk.MaxClusterExposurePct,
		cfg.Risk.MaxTradeRiskPct, cfg.Risk.MaxPositionSize, logger)
	breaker := risk.NewCircuitBreaker(cfg.Breaker.MaxDailyLoss,
		cfg.Breaker.MaxRejectsWindow, cfg.Breaker.RejectWindowMinutes, logger)

	entities := make([]domain.Entity, 0, len(cfg.Entities))
	for _, e := range cfg.Entities {
		entities = append(entities, domain.Entity{Code: e.Code, City: e.City, Cluster: e.Cluster, Series: e.Series})
	}

	cycle, err := engine.NewCycle(engine.CycleParams{
		Mode:      mode,
		Orders:    orders,
		Risk:      calc,
		Breaker:   breaker,
		Strategy:  strat,
		Gates:     gates.NewSpreadLiquidityChecker(),
		Venue:     vn,
		Weather:   cache,
		Entities:  entities,
		APIKey:    cfg.Venue.APIKey,
		APISecret: cfg.Venue.APISecret,
		Log:       logger,
	})
	if err != nil {
		log.Fatalf("building trading cycle: %v", err)
	}
	if mode == domain.ModeLive {
		if !*confirmLive {
			log.Fatalf("live mode requires -confirm-live")
		}
		cycle.ConfirmLiveMode()
	}

	orch := engine.NewOrchestrator(engine.OrchestratorParams{
		Entities:        entities,
		Cycle:           cycle,
		Orders:          orders,
		Breaker:         breaker,
		Prefetch:        cache,
		Recorder:        archive,
		MaxAggregate:    calc.MaxAggregate(cfg.Risk.MaxAggregatePct),
		PrefetchWorkers: cfg.Weather.PrefetchSize,
		Log:             logger,
	})

	// Status API.
	statusSrv := httpapi.NewStatusServer(mode, orders, breaker, logger)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: statusSrv.Handler(),
	}
	go func() {
		logger.Info("status API listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	runAll := func() {
		res := orch.RunAllEntities(ctx, cfg.Trading.OrderQuantity, true)
		statusSrv.SetLastRun(res)
		reconcile(ctx, orders, vn, archive, res.StartedAt, logger)
	}

	runAll()
	if !*once {
		interval := time.Duration(cfg.Trading.IntervalMins) * time.Minute
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		logger.Info("entering trading loop", "interval", interval)
	loop:
		for {
			select {
			case <-ctx.Done():
				break loop
			case <-ticker.C:
				runAll()
			}
		}
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// reconcile pulls fills recorded since the run started, applies them to the
// order store, and archives the matched ones.
func reconcile(ctx context.Context, orders *oms.Store, vn venue.Client, archive *store.RunArchive, since time.Time, logger *slog.Logger) {
	fills, err := vn.GetFills(ctx, since)
	if err != nil {
		logger.Warn("fetching fills failed", "error", err)
		return
	}
	if len(fills) == 0 {
		return
	}
	res := orders.ReconcileFills(ctx, fills, since)
	logger.Info("fills reconciled",
		"matched", res.Matched,
		"orphaned", res.Orphaned,
		"updated", len(res.UpdatedOrders))

	byExternal := make(map[string]string)
	for _, o := range orders.GetAllOrders() {
		if o.ExternalOrderID != "" {
			byExternal[o.ExternalOrderID] = o.IntentKey
		}
	}
	byIntent := make(map[string][]domain.Fill)
	for _, f := range fills {
		if key, ok := byExternal[f.ExternalOrderID]; ok {
			byIntent[key] = append(byIntent[key], f)
		}
	}
	for key, matched := range byIntent {
		if err := archive.ArchiveFills(key, matched); err != nil {
			logger.Warn("archiving fills failed", "intent_key", key, "error", err)
		}
	}
}
