package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"maestro/internal/bus"
	"maestro/internal/codec"
	"maestro/internal/obs"
	"maestro/internal/pipeline"
	"maestro/internal/schema"
	"maestro/internal/state"
	"maestro/pkg/exception"

	"github.com/google/uuid"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

// sourceOrchestrator tags journal events emitted by the run loop.
const sourceOrchestrator uint16 = 1

// Config holds the orchestration settings resolved from configuration.
type Config struct {
	SystemID    string
	Interval    time.Duration
	LiveTrading bool

	// BackoffCap bounds the retry delay after an unexpected loop
	// failure. Zero means the 300s default.
	BackoffCap time.Duration
}

// Orchestrator drives the five-stage cycle pipeline: capture, predict,
// strategize, optimize, execute. It owns the collaborators, persists
// status to the state store after every cycle and keeps running
// through collaborator failures.
type Orchestrator struct {
	cfg     Config
	store   state.Store
	factory Factory
	collab  pipeline.Collaborators

	mu     sync.Mutex
	phase  Phase
	cancel context.CancelFunc

	cycles uint64
	seq    uint64
	runID  string

	metrics *obs.Metrics
	trace   *obs.TraceGenerator
	queue   *bus.Queue
	clock   Clock
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithMetrics attaches a metrics container.
func WithMetrics(m *obs.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithJournalQueue publishes cycle events to the given queue. Journal
// failures are counted, never escalated.
func WithJournalQueue(q *bus.Queue) Option {
	return func(o *Orchestrator) { o.queue = q }
}

// WithClock replaces the real clock, for tests.
func WithClock(c Clock) Option {
	return func(o *Orchestrator) { o.clock = c }
}

// WithTraceGenerator replaces the default trace ID generator.
func WithTraceGenerator(g *obs.TraceGenerator) Option {
	return func(o *Orchestrator) { o.trace = g }
}

// New validates the wiring and returns an orchestrator in Created
// phase.
func New(cfg Config, store state.Store, factory Factory, opts ...Option) (*Orchestrator, error) {
	if cfg.SystemID == "" {
		return nil, errors.Wrap(exception.ErrInvalidArgument, "system id is empty")
	}
	if cfg.Interval <= 0 {
		return nil, errors.Wrap(exception.ErrInvalidArgument, "cycle interval must be > 0")
	}
	if store == nil {
		return nil, errors.Wrap(exception.ErrInvalidArgument, "state store is nil")
	}
	if factory == nil {
		return nil, errors.Wrap(exception.ErrInvalidArgument, "factory is nil")
	}
	if cfg.BackoffCap <= 0 {
		cfg.BackoffCap = defaultBackoffCap
	}

	o := &Orchestrator{
		cfg:   cfg,
		store: store,

		factory: factory,
		phase:   PhaseCreated,
		clock:   realClock{},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.trace == nil {
		o.trace = obs.NewTraceGenerator(0)
	}
	return o, nil
}

// Phase returns the current lifecycle phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// CycleCount returns the number of completed cycles, including any
// resumed from the store.
func (o *Orchestrator) CycleCount() uint64 {
	return atomic.LoadUint64(&o.cycles)
}

// RunID returns the identifier of the current process run.
func (o *Orchestrator) RunID() string {
	return o.runID
}

// Initialize constructs the collaborators and moves to Running. Any
// constructor failure is fatal: the orchestrator terminates and the
// error propagates.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	if err := o.transition(PhaseInitializing); err != nil {
		return err
	}

	collab, err := o.factory(ctx)
	if err != nil {
		o.forceTerminate()
		return errors.Wrap(err, "initialize collaborators")
	}
	if err := collab.Validate(); err != nil {
		o.forceTerminate()
		return err
	}
	o.collab = collab

	doc, err := o.store.Load(ctx)
	switch {
	case err == nil:
		atomic.StoreUint64(&o.cycles, doc.CycleCount)
		logs.Infof("resumed state, system: %s, cycles: %d, last status: %s",
			o.cfg.SystemID, doc.CycleCount, doc.Status)
	case err == exception.ErrStateNotFound:
	default:
		logs.Warnf("load state failed, starting fresh, err: %+v", err)
	}

	o.runID = uuid.NewString()
	now := o.clock.Now().UnixNano()
	o.persist(ctx, schema.StateWriteStartup, o.CycleCount(), state.StartupPatch(o.runID, now))

	if err := o.transition(PhaseRunning); err != nil {
		return err
	}
	logs.Infof("orchestrator running, system: %s, run: %s, interval: %s, live: %t",
		o.cfg.SystemID, o.runID, o.cfg.Interval, o.cfg.LiveTrading)
	return nil
}

// RunCycle executes one five-stage pipeline pass. The first stage
// failure abandons the cycle: later stages never run, a failure record
// is persisted best-effort and the error returns to the loop. Success
// increments the counter by exactly one and persists a running record.
func (o *Orchestrator) RunCycle(ctx context.Context) error {
	if phase := o.Phase(); phase != PhaseRunning {
		return errors.Wrap(exception.ErrInvalidPhase, phase.String())
	}

	cycle := o.CycleCount() + 1
	traceID := o.trace.Next()
	started := o.clock.Now()

	cs := schema.CycleStart{Cycle: cycle}
	if o.cfg.LiveTrading {
		cs.Live = 1
	}
	o.publish(schema.EventCycleStart, started.UnixNano(), traceID, codec.EncodeCycleStart(nil, cs))

	var (
		snapshot    pipeline.MarketSnapshot
		predictions pipeline.PredictionSet
		strategies  []pipeline.Strategy
		optimized   []pipeline.Strategy
		report      pipeline.ExecutionReport
		stagesRun   uint16
	)

	runStage := func(stage schema.Stage, fn func(context.Context) (int, error)) error {
		stageStart := o.clock.Now()
		items, err := fn(ctx)
		elapsed := o.clock.Now().Sub(stageStart)
		if err != nil {
			return o.failCycle(ctx, cycle, stage, traceID, err)
		}
		stagesRun++
		o.metrics.ObserveStage(stage, elapsed)
		sr := schema.StageResult{
			Cycle:         cycle,
			Stage:         stage,
			Items:         uint32(items),
			ElapsedMicros: elapsed.Microseconds(),
		}
		o.publish(schema.EventStageResult, o.clock.Now().UnixNano(), traceID, codec.EncodeStageResult(nil, sr))
		return nil
	}

	if err := runStage(schema.StageCapture, func(ctx context.Context) (int, error) {
		var err error
		snapshot, err = o.collab.Data.CaptureData(ctx)
		return len(snapshot.Data), err
	}); err != nil {
		return err
	}

	if err := runStage(schema.StagePredict, func(ctx context.Context) (int, error) {
		var err error
		predictions, err = o.collab.Model.GeneratePredictions(ctx, snapshot)
		return len(predictions.Predictions), err
	}); err != nil {
		return err
	}

	if err := runStage(schema.StageStrategize, func(ctx context.Context) (int, error) {
		var err error
		strategies, err = o.collab.Strategy.GenerateStrategies(ctx, predictions, snapshot)
		return len(strategies), err
	}); err != nil {
		return err
	}

	if err := runStage(schema.StageOptimize, func(ctx context.Context) (int, error) {
		var err error
		optimized, err = o.collab.Optimizer.Optimize(ctx, strategies)
		return len(optimized), err
	}); err != nil {
		return err
	}

	if o.cfg.LiveTrading {
		if err := runStage(schema.StageExecute, func(ctx context.Context) (int, error) {
			var err error
			report, err = o.collab.Executor.ExecuteTrades(ctx, optimized)
			return report.Submitted, err
		}); err != nil {
			return err
		}

		if err := runStage(schema.StageFeedback, func(ctx context.Context) (int, error) {
			return len(report.Fills), o.collab.Optimizer.UpdateFeedback(ctx, report)
		}); err != nil {
			return err
		}
	}

	now := o.clock.Now()
	atomic.StoreUint64(&o.cycles, cycle)
	o.persist(ctx, schema.StateWriteCycle, cycle, state.CyclePatch(cycle, now.UnixNano()))

	elapsed := now.Sub(started)
	o.metrics.IncCycleSuccess()
	o.metrics.ObserveCycle(elapsed)

	cr := schema.CycleResult{
		Cycle:         cycle,
		StagesRun:     stagesRun,
		Executed:      uint16(report.Submitted),
		Filled:        uint16(report.Filled),
		Rejected:      uint32(report.Rejected),
		Notional:      report.Notional,
		ElapsedMicros: elapsed.Microseconds(),
	}
	o.publish(schema.EventCycleResult, now.UnixNano(), traceID, codec.EncodeCycleResult(nil, cr))

	logs.Infof("cycle %d completed, stages: %d, strategies: %d, filled: %d, elapsed: %s",
		cycle, stagesRun, len(optimized), report.Filled, elapsed)
	return nil
}

// Run is the main loop: initialize once, then cycle and sleep until
// the context or Shutdown stops it. Cycle failures continue after the
// normal interval; unexpected failures (collaborator panics) back off
// min(300s, 2x interval) and retry forever.
func (o *Orchestrator) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	o.setCancel(cancel)

	if err := o.Initialize(runCtx); err != nil {
		return err
	}

	for {
		if o.Phase() != PhaseRunning {
			return nil
		}

		cycleErr, panicErr := o.cycleSafely(runCtx)
		if panicErr != nil {
			delay := backoffDelay(o.cfg.Interval, o.cfg.BackoffCap)
			logs.Errorf("unexpected loop failure, backing off %s, err: %+v", delay, panicErr)
			o.metrics.IncBackoff()
			if err := o.transition(PhaseBackoff); err != nil {
				return nil
			}
			if err := o.clock.Sleep(runCtx, delay); err != nil {
				return nil
			}
			if err := o.transition(PhaseRunning); err != nil {
				return nil
			}
			continue
		}
		if cycleErr != nil && runCtx.Err() != nil {
			return nil
		}

		if err := o.clock.Sleep(runCtx, o.cfg.Interval); err != nil {
			return nil
		}
	}
}

// Shutdown stops the loop and persists a shutdown record best-effort.
// It is idempotent and always completes locally, even when the store
// is unreachable.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	if o.phase == PhaseShuttingDown || o.phase == PhaseTerminated {
		o.mu.Unlock()
		return nil
	}
	o.phase = PhaseShuttingDown
	cancel := o.cancel
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	now := o.clock.Now().UnixNano()
	o.persist(ctx, schema.StateWriteShutdown, o.CycleCount(), state.ShutdownPatch(now))
	o.publish(schema.EventShutdown, now, o.trace.Next(), nil)

	o.mu.Lock()
	o.phase = PhaseTerminated
	o.mu.Unlock()

	logs.Infof("orchestrator terminated, system: %s, cycles: %d", o.cfg.SystemID, o.CycleCount())
	return nil
}

// failCycle abandons the current cycle: logs, persists the failure
// record best-effort and returns the wrapped stage error.
func (o *Orchestrator) failCycle(ctx context.Context, cycle uint64, stage schema.Stage, traceID uint64, err error) error {
	wrapped := errors.Wrap(err, stage.String())
	now := o.clock.Now().UnixNano()

	logs.Errorf("cycle %d abandoned at %s, err: %+v", cycle, stage, err)
	o.metrics.IncCycleFailure()
	o.persist(ctx, schema.StateWriteFailure, cycle, state.FailurePatch(wrapped.Error(), now))

	cf := schema.CycleFailure{Cycle: cycle, Stage: stage}
	cf.SetReason(wrapped.Error())
	o.publish(schema.EventCycleFailure, now, traceID, codec.EncodeCycleFailure(nil, cf))
	return wrapped
}

// cycleSafely runs one cycle and converts collaborator panics into a
// loop-level error instead of crashing the process.
func (o *Orchestrator) cycleSafely(ctx context.Context) (cycleErr, panicErr error) {
	defer func() {
		if r := recover(); r != nil {
			panicErr = errors.Errorf("cycle panic: %v", r)
		}
	}()
	cycleErr = o.RunCycle(ctx)
	return cycleErr, nil
}

// persist applies a state patch, logging and counting failures without
// ever escalating them.
func (o *Orchestrator) persist(ctx context.Context, kind schema.StateWriteKind, cycle uint64, patch state.Patch) {
	start := o.clock.Now()
	res := o.store.Apply(ctx, patch)
	elapsed := o.clock.Now().Sub(start)

	o.metrics.IncStateWrite()
	o.metrics.ObserveStoreApply(elapsed)

	outcome := schema.StateWriteApplied
	if res.Err != nil {
		outcome = schema.StateWriteFailed
		o.metrics.IncStateWriteFailure()
		logs.Warnf("state write failed, kind: %d, cycle: %d, err: %+v", kind, cycle, res.Err)
	}

	sw := schema.StateWrite{
		Cycle:         cycle,
		Kind:          kind,
		Outcome:       outcome,
		ElapsedMicros: elapsed.Microseconds(),
	}
	o.publish(schema.EventStateWrite, o.clock.Now().UnixNano(), 0, codec.EncodeStateWrite(nil, sw))
}

// publish sends a cycle event to the journal queue when one is wired.
func (o *Orchestrator) publish(eventType schema.EventType, ts int64, traceID uint64, payload []byte) {
	if o.queue == nil {
		return
	}
	seq := atomic.AddUint64(&o.seq, 1)
	header := schema.NewHeader(eventType, sourceOrchestrator, seq, ts, ts)
	if traceID == 0 {
		traceID = seq
	}
	header.TraceID = traceID

	switch err := o.queue.TryPublish(bus.Event{Header: header, Payload: payload}); err {
	case nil:
		o.metrics.ObserveEvent(header)
	case bus.ErrQueueFull:
		o.metrics.IncJournalDrop()
	case bus.ErrQueueClosed:
		o.metrics.IncJournalClosed()
	default:
		logs.Warnf("journal publish failed, err: %+v", err)
	}
}

func (o *Orchestrator) transition(to Phase) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !canTransition(o.phase, to) {
		return errors.Wrapf(exception.ErrInvalidPhase, "%s -> %s", o.phase, to)
	}
	o.phase = to
	return nil
}

// forceTerminate moves straight to Terminated after a fatal
// initialization failure.
func (o *Orchestrator) forceTerminate() {
	o.mu.Lock()
	o.phase = PhaseTerminated
	o.mu.Unlock()
}

func (o *Orchestrator) setCancel(cancel context.CancelFunc) {
	o.mu.Lock()
	o.cancel = cancel
	o.mu.Unlock()
}
