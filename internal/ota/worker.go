package ota

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ALEYI17/ofh_timing/internal/gpsclock"
	"github.com/ALEYI17/ofh_timing/internal/slot"
	"github.com/ALEYI17/ofh_timing/internal/stop"
	"github.com/ALEYI17/ofh_timing/pkg/logutil"
	"github.com/ALEYI17/ofh_timing/pkg/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Poll granularity as a fraction of one symbol.
const sleepDivisor = 15

var ErrRunning = errors.New("timing worker is running")

type Config struct {
	CyclicPrefix      slot.CyclicPrefix
	SubcarrierSpacing slot.SubcarrierSpacing
	GpsAlpha          float64
	GpsBeta           int
	// WarnOnLate logs bursts of a full slot or more at warning level.
	WarnOnLate bool
}

// SkipRecorder receives the number of symbols skipped by one poll.
type SkipRecorder interface {
	Update(skipped uint32)
}

// Worker derives OTA symbol boundaries from the host clock and notifies
// subscribers once per elapsed symbol. All polling runs on the executor's
// single thread; Start, Stop and Subscribe are called from a control
// goroutine.
type Worker struct {
	logger   *zap.Logger
	exec     types.TaskExecutor
	clock    gpsclock.Clock
	recorder SkipRecorder

	numerology       uint8
	symbolsPerSlot   uint32
	symbolsPerSecond uint32
	slotsPerSecond   uint64
	symbolDuration   float64
	sleepTime        time.Duration
	warnOnLate       bool

	// Owned by the worker thread while running.
	notifiers      []types.OtaSymbolBoundaryNotifier
	previousSymbol uint32
	primed         bool
	sleep          func(time.Duration)

	state   atomic.Uint32
	stopSrc *stop.EventSource
	token   *stop.Token
	runID   uuid.UUID
	loopFn  func()
}

// NewWorker computes the timing constants for cfg. A host clock earlier
// than 1981 terminates the process.
func NewWorker(cfg Config, exec types.TaskExecutor, src gpsclock.Source, recorder SkipRecorder) (*Worker, error) {
	mu, err := cfg.SubcarrierSpacing.Numerology()
	if err != nil {
		return nil, err
	}
	if exec == nil {
		return nil, fmt.Errorf("timing worker requires an executor")
	}

	logger := logutil.GetLogger().Named("ota")
	clock := gpsclock.New(src, cfg.GpsAlpha, cfg.GpsBeta)
	if err := gpsclock.CheckYear(clock.Host()); err != nil {
		logger.Fatal("invalid system clock", zap.Error(err))
	}

	symbolsPerSlot := cfg.CyclicPrefix.SymbolsPerSlot()
	slotsPerSecond := uint64(slot.SlotsPerFrame(mu)) * slot.FramesPerSecond
	symbolsPerSecond := uint32(slotsPerSecond) * symbolsPerSlot
	symbolDuration := 1e9 / float64(symbolsPerSecond)

	w := &Worker{
		logger:           logger,
		exec:             exec,
		clock:            clock,
		recorder:         recorder,
		numerology:       mu,
		symbolsPerSlot:   symbolsPerSlot,
		symbolsPerSecond: symbolsPerSecond,
		slotsPerSecond:   slotsPerSecond,
		symbolDuration:   symbolDuration,
		sleepTime:        time.Duration(symbolDuration / sleepDivisor),
		warnOnLate:       cfg.WarnOnLate,
		sleep:            time.Sleep,
		stopSrc:          stop.NewEventSource(),
	}
	w.loopFn = w.loop

	logger.Info("timing worker configured",
		zap.Stringer("scs", cfg.SubcarrierSpacing),
		zap.Stringer("cp", cfg.CyclicPrefix),
		zap.Uint32("symbols_per_second", symbolsPerSecond),
		zap.Float64("symbol_duration_ns", symbolDuration),
		zap.Duration("sleep", w.sleepTime),
		zap.Duration("gps_offset", clock.Offset()))
	return w, nil
}

// Subscribe replaces the notifier list. The worker keeps only references;
// notifier lifetime belongs to the caller. It must not be called between
// Start and the return of Stop.
func (w *Worker) Subscribe(notifiers []types.OtaSymbolBoundaryNotifier) error {
	switch w.state.Load() {
	case types.WorkerRunning, types.WorkerStopRequested:
		return ErrRunning
	}
	w.notifiers = append(w.notifiers[:0:0], notifiers...)
	return nil
}

// Start schedules the poll loop and returns once it has begun running on
// the executor. A stopped worker may be started again. Calling Start on a
// worker that is running, or whose Stop has not returned yet, only logs a
// warning and leaves the current run untouched.
func (w *Worker) Start() {
	if !w.state.CompareAndSwap(types.WorkerIdle, types.WorkerRunning) &&
		!w.state.CompareAndSwap(types.WorkerStopped, types.WorkerRunning) {
		w.logger.Warn("timing worker already running")
		return
	}

	w.stopSrc.Reset()
	w.token = w.stopSrc.Token()
	w.primed = false
	w.runID = uuid.New()

	started := make(chan struct{})
	if !w.exec.Defer(func() {
		close(started)
		w.loop()
	}) {
		w.logger.Fatal("unable to schedule the timing worker", zap.Stringer("run", w.runID))
	}
	<-started

	w.logger.Info("timing worker started",
		zap.Stringer("run", w.runID),
		zap.Int("notifiers", len(w.notifiers)))
}

// Stop requests the poll loop to end and waits until the worker thread has
// finished its last iteration. Once Stop returns no notifier is called and
// the notifier list may be replaced or dropped.
func (w *Worker) Stop() {
	if !w.state.CompareAndSwap(types.WorkerRunning, types.WorkerStopRequested) {
		return
	}
	w.stopSrc.Stop()
	w.logger.Info("timing worker stopped", zap.Stringer("run", w.runID))
}

func (w *Worker) loop() {
	if w.token.StopRequested() {
		w.state.Store(types.WorkerStopped)
		w.token.Release()
		return
	}

	w.poll()

	if !w.exec.Defer(w.loopFn) {
		w.logger.Fatal("unable to reschedule the timing worker", zap.Stringer("run", w.runID))
	}
}

func (w *Worker) State() uint32 { return w.state.Load() }

func (w *Worker) RunID() uuid.UUID { return w.runID }

func (w *Worker) SymbolsPerSlot() uint32 { return w.symbolsPerSlot }

func (w *Worker) SymbolsPerSecond() uint32 { return w.symbolsPerSecond }

// SymbolDuration is the symbol length in nanoseconds.
func (w *Worker) SymbolDuration() float64 { return w.symbolDuration }

func (w *Worker) SleepTime() time.Duration { return w.sleepTime }
