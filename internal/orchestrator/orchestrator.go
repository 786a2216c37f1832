// Package orchestrator drives the effective step order at runtime: a
// reactive, backpressure-aware engine that chains heterogeneous step
// cardinalities, classifies failures into transient/permanent
// branches, retries with bounded backoff, parks exhausted failures,
// and publishes terminal checkpoints for the inter-pipeline bridge to
// pick up. Each stage is a goroutine reading its upstream channel and
// feeding a bounded downstream channel.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/pipelineframework/corepipe/internal/bridge"
	"github.com/pipelineframework/corepipe/internal/cachekey"
	"github.com/pipelineframework/corepipe/internal/errs"
	"github.com/pipelineframework/corepipe/internal/idempotency"
	"github.com/pipelineframework/corepipe/internal/ids"
	"github.com/pipelineframework/corepipe/internal/ir"
	"github.com/pipelineframework/corepipe/pkg/duration"
	"golang.org/x/sync/errgroup"
)

// Item is one unit flowing through the orchestrator: a domain payload
// plus the external identifier used for idempotency keys, parking-lot
// records, and checkpoint keys.
type Item struct {
	ExternalID string
	Payload    any
}

// Invoke is the runtime behavior of one compiled step. attempt is 0 on
// the first try and increments on every transient retry of the same
// batch; it resets to 0 for each new batch, which is what lets a
// step's own chaos-marker counter clear on success without any
// orchestrator-held state keyed by doc id.
type Invoke func(ctx context.Context, batch []Item, attempt int) ([]Item, error)

// Step is the runtime-invokable counterpart of a compiled StepModel:
// one entry of the effective order.
type Step struct {
	Name         string
	Cardinality  ir.Cardinality
	Fn           Invoke
	Backpressure Backpressure

	// ThreadSafe mirrors the compiler's ThreadSafety tag: UNSAFE
	// steps are serialized per-instance rather than allowed to run
	// concurrently across in-flight items.
	ThreadSafe bool

	// CachePolicy, when non-empty, wraps every single-item invocation
	// of Fn in cachekey.Apply against CacheStore, keyed by CacheKeyFn.
	// Unset on batched (MANY_ONE) steps, which have no single item to
	// key against.
	CachePolicy cachekey.Policy
	CacheStore  cachekey.Store
	CacheKeyFn  func(Item) (string, bool)

	// Concurrency bounds how many items this step invokes in flight
	// at once (a bounded worker pool per stage, never unbounded
	// fan-out). Zero and one both mean "no concurrency" (items
	// processed strictly one at a time, preserving arrival order).
	Concurrency int

	mu sync.Mutex
}

func (s *Step) concurrencyLimit() int {
	if s.Concurrency < 1 {
		return 1
	}
	return s.Concurrency
}

// RetryPolicy bounds the transient-failure retry loop for one step
// invocation chain.
type RetryPolicy struct {
	MinWait    time.Duration
	MaxBackoff time.Duration
	MaxRetries int
}

// DefaultRetryPolicy is the retry bound applied when a pipeline
// declares none.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MinWait: 50 * time.Millisecond, MaxBackoff: 5 * time.Second, MaxRetries: 3}
}

// ParseRetryPolicy builds a RetryPolicy from the human-readable wait
// strings a pipeline configuration carries ("50ms", "5s", "1m").
// Blank strings fall back to the default bounds; maxRetries < 1 falls
// back to the default count.
func ParseRetryPolicy(minWait, maxBackoff string, maxRetries int) (RetryPolicy, error) {
	policy := DefaultRetryPolicy()
	if minWait != "" {
		d, err := duration.ParseNonNegative(minWait)
		if err != nil {
			return RetryPolicy{}, fmt.Errorf("retry minWait: %w", err)
		}
		policy.MinWait = d
	}
	if maxBackoff != "" {
		d, err := duration.ParseNonNegative(maxBackoff)
		if err != nil {
			return RetryPolicy{}, fmt.Errorf("retry maxBackoff: %w", err)
		}
		policy.MaxBackoff = d
	}
	if policy.MaxBackoff < policy.MinWait {
		return RetryPolicy{}, fmt.Errorf("retry maxBackoff %s is below minWait %s", duration.Format(policy.MaxBackoff), duration.Format(policy.MinWait))
	}
	if maxRetries >= 1 {
		policy.MaxRetries = maxRetries
	}
	return policy, nil
}

// ManyOneBatchBound caps how many upstream items a MANY_ONE step
// collects before it must invoke.
const ManyOneBatchBound = 10000

// Classifier maps an arbitrary error to the Kind that drives retry
// policy. Anything it cannot classify (KindUnknown) is treated as
// permanent.
type Classifier func(error) errs.Kind

// DefaultClassifier delegates to errs.Classify and folds KindUnknown
// into KindPermanent, since an unrecognized failure must never retry
// forever.
func DefaultClassifier(err error) errs.Kind {
	k := errs.Classify(err)
	if k == errs.KindUnknown {
		return errs.KindPermanent
	}
	return k
}

// Pipeline drives one compiled effective order end to end.
type Pipeline struct {
	Name         string
	Steps        []*Step
	Retry        RetryPolicy
	Classify     Classifier

	// Timeout bounds one whole invocation. Zero means unbounded. An
	// exceeded budget surfaces as a Timeout error and takes the
	// permanent branch of the failure policy without retrying.
	Timeout time.Duration
	Guard        *idempotency.Guard
	Parking      *idempotency.ParkingLot
	ChaosEnabled bool
	Logger       *slog.Logger

	// CheckpointKey extracts the idempotency/checkpoint key from a
	// terminal item; defaults to ExternalID.
	CheckpointKey func(Item) string

	subsMu sync.Mutex
	subs   []chan bridge.Checkpoint
}

// New creates a Pipeline named name driving steps in order, with the
// given retry policy. Guard and Parking may be nil. Run and Ingest do
// not consult Guard; a nil Parking silently discards parked failures
// (callers normally supply both).
func New(name string, steps []*Step, retry RetryPolicy, guard *idempotency.Guard, parking *idempotency.ParkingLot, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		Name:    name,
		Steps:   steps,
		Retry:   retry,
		Classify: DefaultClassifier,
		Guard:   guard,
		Parking: parking,
		Logger:  logger,
	}
}

func (p *Pipeline) classifier() Classifier {
	if p.Classify != nil {
		return p.Classify
	}
	return DefaultClassifier
}

func (p *Pipeline) checkpointKey(it Item) string {
	if p.CheckpointKey != nil {
		return p.CheckpointKey(it)
	}
	return it.ExternalID
}

// Run executes a single-input streaming invocation: input flows
// through every stage and the resulting outputs (zero or more,
// depending on terminal cardinality) are delivered on the returned
// channel. The error channel receives one value per failed item, and
// both channels close when processing ends.
func (p *Pipeline) Run(ctx context.Context, input Item) (<-chan Item, <-chan error) {
	in := make(chan Item, 1)
	in <- input
	close(in)
	return p.Ingest(ctx, in)
}

// Ingest drives an arbitrary input stream through every stage
// (bidirectional streaming). Per-item permanent failures are parked
// and reported on the error channel without terminating the stream;
// only context cancellation or a programming error in the step chain
// stops it early.
func (p *Pipeline) Ingest(ctx context.Context, input <-chan Item) (<-chan Item, <-chan error) {
	errCh := make(chan error, 16)

	cancel := context.CancelFunc(func() {})
	if p.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
	}

	var stages sync.WaitGroup
	stage := input
	for _, step := range p.Steps {
		stages.Add(1)
		stage = p.runStage(ctx, step, stage, errCh, &stages)
	}

	out := make(chan Item, cap(stage))
	go func() {
		defer close(out)
		defer close(errCh)
		defer cancel()
		// errCh closes only after every stage has returned, so no stage
		// reports a failure into a closed channel.
		defer stages.Wait()
		for item := range stage {
			if ctx.Err() != nil {
				continue
			}
			p.publishCheckpoint(item)
			select {
			case out <- item:
			case <-ctx.Done():
			}
		}
	}()
	return out, errCh
}

// Subscribe returns a channel observing every checkpoint this
// pipeline's terminal stage produces. Each call registers a fresh
// subscriber; checkpoints are broadcast non-blocking (a slow
// subscriber drops checkpoints rather than stalling the pipeline).
func (p *Pipeline) Subscribe() <-chan bridge.Checkpoint {
	ch := make(chan bridge.Checkpoint, DefaultBufferCapacity)
	p.subsMu.Lock()
	p.subs = append(p.subs, ch)
	p.subsMu.Unlock()
	return ch
}

func (p *Pipeline) publishCheckpoint(item Item) {
	cp := bridge.Checkpoint{ID: ids.New(), Key: p.checkpointKey(item), Payload: item.Payload}
	p.subsMu.Lock()
	defer p.subsMu.Unlock()
	for _, ch := range p.subs {
		select {
		case ch <- cp:
		default:
		}
	}
}

// runStage wires one Step between upstream and a freshly created
// downstream channel, honoring its declared cardinality and
// backpressure boundary.
func (p *Pipeline) runStage(ctx context.Context, step *Step, upstream <-chan Item, errCh chan<- error, stages *sync.WaitGroup) <-chan Item {
	bp := Normalize(step.Backpressure.Mode, step.Backpressure.Capacity)
	downstream := make(chan Item, bp.Capacity)

	go func() {
		defer stages.Done()
		defer close(downstream)
		switch step.Cardinality {
		case ir.ManyOne:
			p.runManyOne(ctx, step, upstream, downstream, errCh, bp)
		case ir.OneOne, ir.OneMany, ir.ManyMany:
			p.runPerItem(ctx, step, upstream, downstream, errCh, bp)
		default:
			errCh <- errs.NewInvalidConfiguration(step.Name, "unrecognized cardinality: "+string(step.Cardinality))
		}
	}()

	return downstream
}

// runPerItem handles ONE_ONE, ONE_MANY, and MANY_MANY. All three
// invoke the step once per upstream item: ONE_ONE expects exactly one
// output, ONE_MANY may expand to many, and MANY_MANY is treated as an
// itemwise streaming transform so the upstream stream is still
// consumed without a collection boundary.
func (p *Pipeline) runPerItem(ctx context.Context, step *Step, upstream <-chan Item, downstream chan<- Item, errCh chan<- error, bp Backpressure) {
	if limit := step.concurrencyLimit(); limit > 1 {
		p.runPerItemConcurrent(ctx, step, upstream, downstream, errCh, bp, limit)
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-upstream:
			if !ok {
				return
			}
			out, err := p.invokeWithRetry(ctx, step, []Item{item})
			if err != nil {
				p.handleFailure(ctx, step, []Item{item}, err, errCh)
				continue
			}
			if step.Cardinality == ir.OneOne && len(out) != 1 {
				p.handleFailure(ctx, step, []Item{item}, fmt.Errorf("step %s: ONE_ONE produced %d outputs, expected 1", step.Name, len(out)), errCh)
				continue
			}
			for _, o := range out {
				bp.sendItem(downstream, o, ctx.Done())
			}
		}
	}
}

// runPerItemConcurrent is the bounded worker-pool variant of
// runPerItem for steps declaring Concurrency > 1. Output order across
// items is not preserved.
func (p *Pipeline) runPerItemConcurrent(ctx context.Context, step *Step, upstream <-chan Item, downstream chan<- Item, errCh chan<- error, bp Backpressure, limit int) {
	g := new(errgroup.Group)
	g.SetLimit(limit)
	// Workers report failures through errCh, never through g.
	defer func() { _ = g.Wait() }()

	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-upstream:
			if !ok {
				return
			}
			g.Go(func() error {
				out, err := p.invokeWithRetry(ctx, step, []Item{item})
				if err != nil {
					p.handleFailure(ctx, step, []Item{item}, err, errCh)
					return nil
				}
				if step.Cardinality == ir.OneOne && len(out) != 1 {
					p.handleFailure(ctx, step, []Item{item}, fmt.Errorf("step %s: ONE_ONE produced %d outputs, expected 1", step.Name, len(out)), errCh)
					return nil
				}
				for _, o := range out {
					bp.sendItem(downstream, o, ctx.Done())
				}
				return nil
			})
		}
	}
}

// runManyOne collects upstream items up to ManyOneBatchBound (or until
// upstream closes) and invokes the step once per collected batch.
func (p *Pipeline) runManyOne(ctx context.Context, step *Step, upstream <-chan Item, downstream chan<- Item, errCh chan<- error, bp Backpressure) {
	for first := true; ; first = false {
		batch := make([]Item, 0, ManyOneBatchBound)
	collect:
		for len(batch) < ManyOneBatchBound {
			select {
			case <-ctx.Done():
				return
			case item, ok := <-upstream:
				if !ok {
					break collect
				}
				batch = append(batch, item)
			}
		}

		if len(batch) == 0 {
			if first {
				// Upstream closed without producing anything: report the
				// empty batch as InvalidInput.
				_, err := p.invokeWithRetry(ctx, step, batch)
				p.handleFailure(ctx, step, batch, err, errCh)
			}
			return
		}

		out, err := p.invokeWithRetry(ctx, step, batch)
		if err != nil {
			p.handleFailure(ctx, step, batch, err, errCh)
		} else {
			for _, o := range out {
				bp.sendItem(downstream, o, ctx.Done())
			}
		}

		if len(batch) < ManyOneBatchBound {
			// upstream closed mid-collection; nothing left to gather.
			return
		}
	}
}

// sendItem is the Item-typed counterpart of Backpressure.Send.
func (b Backpressure) sendItem(ch chan<- Item, item Item, done <-chan struct{}) {
	switch b.Mode {
	case ModeDrop:
		select {
		case ch <- item:
		default:
		}
	default:
		select {
		case ch <- item:
		case <-done:
		}
	}
}

// invokeWithRetry runs step.Fn against batch, retrying transient
// failures with exponential backoff bounded by p.Retry. A ThreadSafety
// == false step is serialized through its own mutex so at most one
// invocation of that step instance runs at a time.
func (p *Pipeline) invokeWithRetry(ctx context.Context, step *Step, batch []Item) ([]Item, error) {
	if step.Cardinality == ir.ManyOne && len(batch) == 0 {
		return nil, errs.NewInvalidInput("batch", errs.ErrBatchEmpty.Error())
	}

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return nil, boundaryError(ctx, step.Name)
		}

		out, err := p.invokeOnce(ctx, step, batch, attempt)
		if err == nil {
			return out, nil
		}

		kind := p.classifier()(err)
		if kind != errs.KindTransient {
			return nil, err
		}

		if attempt >= p.Retry.MaxRetries {
			return nil, errs.NewPermanent(fmt.Errorf("step %s: exhausted %d retries: %w", step.Name, p.Retry.MaxRetries, err))
		}

		wait := backoffDuration(p.Retry, attempt)
		select {
		case <-ctx.Done():
			return nil, boundaryError(ctx, step.Name)
		case <-time.After(wait):
		}
	}
}

// boundaryError maps the invocation context's terminal state onto the
// error taxonomy: an exceeded timeout budget is a Timeout (permanent,
// parked), an external cancellation is Cancelled (propagated without
// parking).
func boundaryError(ctx context.Context, operation string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errs.NewTimeout(operation)
	}
	return errs.ErrPipelineCancelled
}

func (p *Pipeline) invokeOnce(ctx context.Context, step *Step, batch []Item, attempt int) ([]Item, error) {
	if !step.ThreadSafe {
		step.mu.Lock()
		defer step.mu.Unlock()
	}

	if err := p.checkChaos(batch, attempt); err != nil {
		return nil, err
	}

	if step.CachePolicy != "" && step.CacheStore != nil && step.CacheKeyFn != nil && len(batch) == 1 {
		if key, ok := step.CacheKeyFn(batch[0]); ok {
			value, err := cachekey.Apply(step.CachePolicy, step.CacheStore, key, func() (any, error) {
				return step.Fn(ctx, batch, attempt)
			})
			if err != nil {
				return nil, err
			}
			out, ok := value.([]Item)
			if !ok {
				return nil, errs.NewInvalidConfiguration(step.Name, "cached value is not a []Item batch")
			}
			return out, nil
		}
	}

	return step.Fn(ctx, batch, attempt)
}

// checkChaos inspects every string-payload item in batch for the
// test-only failure markers, gated by p.ChaosEnabled so untrusted
// production input can never trigger them. It runs ahead of step.Fn
// so a matching marker short-circuits the real invocation entirely.
func (p *Pipeline) checkChaos(batch []Item, attempt int) error {
	for _, item := range batch {
		payload, ok := item.Payload.(string)
		if !ok {
			continue
		}
		if err := ChaosCheck(p.ChaosEnabled, payload, attempt); err != nil {
			return err
		}
	}
	return nil
}

// backoffDuration computes exponential backoff bounded to
// [MinWait, MaxBackoff].
func backoffDuration(r RetryPolicy, attempt int) time.Duration {
	d := time.Duration(float64(r.MinWait) * math.Pow(2, float64(attempt)))
	if d > r.MaxBackoff {
		d = r.MaxBackoff
	}
	if d < r.MinWait {
		d = r.MinWait
	}
	return d
}

// handleFailure classifies a terminal step error, parks it (unless the
// invocation was cancelled), and reports it on errCh without
// terminating the stage.
func (p *Pipeline) handleFailure(ctx context.Context, step *Step, batch []Item, err error, errCh chan<- error) {
	kind := errs.Classify(err)
	if kind == errs.KindUnknown {
		kind = p.classifier()(err)
	}

	wrapped := errs.NewStepError(step.Name, err)

	if kind == errs.KindCancelled || errors.Is(ctx.Err(), context.Canceled) {
		select {
		case errCh <- wrapped:
		default:
		}
		return
	}

	externalID := ""
	if len(batch) > 0 {
		externalID = batch[0].ExternalID
	}
	if p.Parking != nil {
		p.Parking.Park(externalID, kind, err.Error(), time.Now())
	}
	p.Logger.Warn("step failed permanently, parked",
		slog.String("pipeline", p.Name),
		slog.String("step", step.Name),
		slog.String("external_id", externalID),
		slog.String("error_kind", string(kind)),
	)

	select {
	case errCh <- wrapped:
	default:
	}
}
