package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ALEYI17/ofh_timing/internal/collector/metrics"
	"github.com/ALEYI17/ofh_timing/internal/config"
	"github.com/ALEYI17/ofh_timing/internal/executor"
	"github.com/ALEYI17/ofh_timing/internal/gpsclock"
	"github.com/ALEYI17/ofh_timing/internal/grid"
	"github.com/ALEYI17/ofh_timing/internal/ota"
	"github.com/ALEYI17/ofh_timing/internal/slot"
	"github.com/ALEYI17/ofh_timing/pkg/logutil"
	"github.com/ALEYI17/ofh_timing/pkg/types"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		if lerr := logutil.InitLogger("info", false); lerr != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		logutil.GetLogger().Fatal("Error loading configuration", zap.Error(err))
	}
	if err := logutil.InitLogger(cfg.LogLevel, cfg.LogDevelopment); err != nil {
		fmt.Fprintf(os.Stderr, "Error initialising logger: %v\n", err)
		os.Exit(1)
	}
	logger := logutil.GetLogger()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cp, err := slot.ParseCyclicPrefix(cfg.CyclicPrefix)
	if err != nil {
		logger.Fatal("Error parsing cyclic prefix", zap.Error(err))
	}
	scs := slot.SubcarrierSpacing(cfg.SubcarrierSpacingKHz)

	pool, err := grid.NewFixedPool(grid.PoolConfig{
		Capacity:       cfg.Pool.Capacity,
		NofPorts:       cfg.Pool.NofPorts,
		NofSymbols:     int(cp.SymbolsPerSlot()),
		NofSubcarriers: cfg.Pool.NofSubcarriers,
		LockMemory:     cfg.Pool.LockMemory,
		ZeroOnRelease:  true,
	})
	if err != nil {
		logger.Fatal("Error creating the grid pool", zap.Error(err))
	}

	exec, err := executor.NewDedicated("ota", cfg.ExecutorQueueSize, cfg.CPUAffinity)
	if err != nil {
		logger.Fatal("Error creating the timing executor", zap.Error(err))
	}

	collector := metrics.NewTimingCollector()
	worker, err := ota.NewWorker(ota.Config{
		CyclicPrefix:      cp,
		SubcarrierSpacing: scs,
		GpsAlpha:          cfg.GpsAlpha,
		GpsBeta:           cfg.GpsBeta,
		WarnOnLate:        cfg.WarnOnLate,
	}, exec, gpsclock.Realtime{}, collector)
	if err != nil {
		logger.Fatal("Error creating the timing worker", zap.Error(err))
	}

	lifecycle := newGridLifecycle(pool)
	notifiers := []types.OtaSymbolBoundaryNotifier{
		&ota.SlotBoundaryAdapter{OnNewSlot: lifecycle.onNewSlot},
		&ota.UplinkSlotAdapter{OnHalfSlot: lifecycle.onHalfSlot, OnFullSlot: lifecycle.onFullSlot},
	}
	if err := worker.Subscribe(notifiers); err != nil {
		logger.Fatal("Error subscribing notifiers", zap.Error(err))
	}

	worker.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for report := range collector.Run(gctx, cfg.MetricsInterval) {
			stats := pool.Flush()
			logger.Info("Timing report",
				zap.Uint64("skipped_symbols", report.SkippedSymbols),
				zap.Uint32("max_skipped_burst", report.MaxSkippedBurst),
				zap.Int("grids_in_use", stats.InUse),
				zap.Uint64("grid_allocations", stats.Allocations),
				zap.Uint64("grid_failures", stats.Failures))
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Received shutdown signal")

		worker.Stop()
		_ = worker.Subscribe(nil)
		lifecycle.releaseAll()

		return multierr.Combine(exec.Close(), pool.Close())
	})

	if err := g.Wait(); err != nil {
		logger.Error("Shutdown finished with errors", zap.Error(err))
		return
	}
	logger.Info("Timing daemon finished running")
}
