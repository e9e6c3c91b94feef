package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/tidemill/boardd/pkg/board"
	"github.com/tidemill/boardd/pkg/view"
)

const instrumentationName = "github.com/tidemill/boardd/pkg/pipeline"

// ErrNoRenderer is returned by New when no renderer is supplied.
var ErrNoRenderer = errors.New("pipeline: renderer is required")

// Options configures a Pipeline. Renderer is required; everything else has a
// sensible default.
type Options struct {
	// Renderer receives committed frames.
	Renderer Renderer

	// Projector converts raw items to records. Defaults to DefaultProjector.
	Projector Projector

	// Logger receives resolution and gating decisions. Defaults to a no-op
	// logger.
	Logger *zap.Logger
}

// admission is one update queued for processing, stamped with its sequence
// number at arrival time.
type admission struct {
	seq     uint64
	event   board.UpdateEvent
	context view.Context
}

// Pipeline owns the board state and the single render path that mutates it.
// Updates enter through Notify (asynchronous, latest-wins) or Process
// (synchronous, for one-shot tooling); both stamp a sequence number from the
// same counter, so the discard rule holds across mixed use.
type Pipeline struct {
	projector Projector
	renderer  Renderer
	logger    *zap.Logger
	tracer    trace.Tracer

	renders    metric.Int64Counter
	suppressed metric.Int64Counter
	deferred   metric.Int64Counter
	discarded  metric.Int64Counter
	failures   metric.Int64Counter

	seq     atomic.Uint64
	mailbox chan admission

	mu   sync.Mutex
	gate Gate
	st   board.State
	last view.Resolution
}

// New builds a Pipeline from opts.
func New(opts Options) (*Pipeline, error) {
	if opts.Renderer == nil {
		return nil, ErrNoRenderer
	}
	if opts.Projector == nil {
		opts.Projector = DefaultProjector()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	p := &Pipeline{
		projector: opts.Projector,
		renderer:  opts.Renderer,
		logger:    opts.Logger,
		tracer:    otel.Tracer(instrumentationName),
		mailbox:   make(chan admission, 1),
	}

	meter := otel.Meter(instrumentationName)
	var err error
	if p.renders, err = meter.Int64Counter("boardd.pipeline.renders_total",
		metric.WithDescription("Boards committed to the renderer"),
		metric.WithUnit("{render}")); err != nil {
		return nil, fmt.Errorf("create renders counter: %w", err)
	}
	if p.suppressed, err = meter.Int64Counter("boardd.pipeline.suppressed_total",
		metric.WithDescription("Empty updates swallowed while a board was showing"),
		metric.WithUnit("{event}")); err != nil {
		return nil, fmt.Errorf("create suppressed counter: %w", err)
	}
	if p.deferred, err = meter.Int64Counter("boardd.pipeline.deferred_total",
		metric.WithDescription("Empty updates dropped before any board existed"),
		metric.WithUnit("{event}")); err != nil {
		return nil, fmt.Errorf("create deferred counter: %w", err)
	}
	if p.discarded, err = meter.Int64Counter("boardd.pipeline.discarded_total",
		metric.WithDescription("Updates superseded by a newer arrival before commit"),
		metric.WithUnit("{event}")); err != nil {
		return nil, fmt.Errorf("create discarded counter: %w", err)
	}
	if p.failures, err = meter.Int64Counter("boardd.pipeline.failures_total",
		metric.WithDescription("Projection or render failures; the previous board is kept"),
		metric.WithUnit("{failure}")); err != nil {
		return nil, fmt.Errorf("create failures counter: %w", err)
	}

	return p, nil
}

// Notify admits one update. It never blocks: if an earlier update is still
// waiting in the mailbox it is dropped in favor of this one. The returned
// sequence number identifies the update in logs and in State.Seq once
// committed.
func (p *Pipeline) Notify(event board.UpdateEvent, vctx view.Context) uint64 {
	adm := admission{seq: p.seq.Add(1), event: event, context: vctx}
	for {
		select {
		case p.mailbox <- adm:
			return adm.seq
		default:
		}
		select {
		case stale := <-p.mailbox:
			p.logger.Debug("update superseded in mailbox",
				zap.Uint64("seq", stale.seq),
				zap.Uint64("superseded_by", adm.seq))
		default:
		}
	}
}

// Run processes admitted updates until ctx is canceled. It must be called at
// most once; all rendering happens on this goroutine.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started")
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopped")
			return nil
		case adm := <-p.mailbox:
			p.process(ctx, adm)
		}
	}
}

// Process handles one update synchronously and returns the resulting state.
// Intended for one-shot tooling and tests; it shares the sequence counter
// with Notify.
func (p *Pipeline) Process(ctx context.Context, event board.UpdateEvent, vctx view.Context) board.State {
	p.process(ctx, admission{seq: p.seq.Add(1), event: event, context: vctx})
	return p.State()
}

func (p *Pipeline) process(ctx context.Context, adm admission) {
	items := board.Extract(adm.event)

	p.mu.Lock()
	decision := p.gate.Observe(len(items) > 0, p.st.Rendered())
	boardSeq := p.st.Seq
	p.mu.Unlock()

	switch decision {
	case DecisionDefer:
		p.deferred.Add(ctx, 1)
		p.logger.Debug("no data yet, nothing to render",
			zap.Uint64("seq", adm.seq),
			zap.String("shape", adm.event.Shape.String()))
		return
	case DecisionRetain:
		p.suppressed.Add(ctx, 1)
		p.logger.Info("empty update suppressed, retaining board",
			zap.Uint64("seq", adm.seq),
			zap.Uint64("board_seq", boardSeq))
		return
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.render")
	defer span.End()

	res := view.Resolve(adm.context)

	records, err := p.projector.Project(ctx, items)
	if err != nil {
		span.RecordError(err)
		p.failures.Add(ctx, 1)
		p.logger.Error("projection failed, keeping previous board",
			zap.Error(err),
			zap.Uint64("seq", adm.seq))
		return
	}

	// Projection may have awaited I/O; a newer update admitted in the
	// meantime makes this one stale.
	if latest := p.seq.Load(); latest != adm.seq {
		p.discarded.Add(ctx, 1)
		p.logger.Debug("superseded during projection, discarding",
			zap.Uint64("seq", adm.seq),
			zap.Uint64("latest", latest))
		return
	}

	frame := Frame{
		Buckets: board.Assign(records, res.Key),
		Key:     res.Key,
		Source:  res.Source,
		Context: adm.context,
		Seq:     adm.seq,
		Time:    time.Now(),
	}

	span.SetAttributes(
		attribute.String("board.group_by", res.Key.String()),
		attribute.String("board.source", string(res.Source)),
		attribute.Int("board.buckets", len(frame.Buckets)),
		attribute.Int("board.records", frame.Records()),
	)

	if err := p.render(ctx, frame); err != nil {
		span.RecordError(err)
		p.failures.Add(ctx, 1)
		p.logger.Error("render failed, previous board left on screen",
			zap.Error(err),
			zap.Uint64("seq", adm.seq))
		return
	}

	p.commit(frame, res)
	p.renders.Add(ctx, 1)
	p.logger.Info("board rendered",
		zap.Uint64("seq", adm.seq),
		zap.String("group_by", res.Key.String()),
		zap.String("source", string(res.Source)),
		zap.Int("buckets", len(frame.Buckets)),
		zap.Int("records", frame.Records()))
}

// render invokes the renderer with a panic boundary so a misbehaving
// renderer degrades to "keep the previous board" instead of taking the
// process down.
func (p *Pipeline) render(ctx context.Context, frame Frame) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("renderer panicked: %v", r)
		}
	}()
	return p.renderer.Render(ctx, frame)
}

func (p *Pipeline) commit(frame Frame, res view.Resolution) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if frame.Seq < p.st.Seq {
		return
	}
	p.st = board.State{
		Buckets:    frame.Buckets,
		Key:        frame.Key,
		Seq:        frame.Seq,
		RenderedAt: frame.Time,
	}
	p.last = res
}

// State returns a copy of the committed board state.
func (p *Pipeline) State() board.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.st
}

// GateState reports the gate's position after the most recently processed
// update.
func (p *Pipeline) GateState() GateState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gate.State()
}

// LastResolution reports the grouping decision behind the committed board,
// for diagnostics only.
func (p *Pipeline) LastResolution() view.Resolution {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}
