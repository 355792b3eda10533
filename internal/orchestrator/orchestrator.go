// Package orchestrator runs multi-step transaction flows: it plans the
// approval and execute steps for an operation, submits them strictly in
// sequence, and publishes every state change as an event. A step
// failure halts the flow; later steps are never submitted.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"flowonarc/internal/amount"
	"flowonarc/internal/model"
)

// DefaultSettleDelay is the pause before each step's signing request,
// giving the operator a beat to see the step enter processing before
// the wallet takes over. Purely a pacing accommodation.
const DefaultSettleDelay = 1500 * time.Millisecond

// Orchestrator plans and runs flows against a Submitter.
type Orchestrator struct {
	sub    Submitter
	bus    *Bus
	logger *zap.Logger

	settleDelay time.Duration
	onSettled   func()
}

// Option adjusts orchestrator behavior.
type Option func(*Orchestrator)

// WithSettleDelay overrides the per-step pacing pause.
func WithSettleDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.settleDelay = d }
}

// WithOnSettled registers a callback invoked after a flow succeeds,
// typically to refresh cached balances and rates.
func WithOnSettled(fn func()) Option {
	return func(o *Orchestrator) { o.onSettled = fn }
}

// New builds an Orchestrator. The bus may be nil when nobody listens.
func New(sub Submitter, bus *Bus, logger *zap.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		sub:         sub,
		bus:         bus,
		logger:      logger,
		settleDelay: DefaultSettleDelay,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Flow is one running operation. Events streams its lifecycle; Wait
// blocks until it finishes.
type Flow struct {
	ID        string
	Operation model.OperationType
	Events    <-chan model.StepEvent

	mu    sync.Mutex
	steps []model.Step

	events chan model.StepEvent
	done   chan struct{}
	err    error
}

// Steps returns a snapshot of the step list. Safe to call while the
// flow is running.
func (f *Flow) Steps() []model.Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	steps := make([]model.Step, len(f.steps))
	copy(steps, f.steps)
	return steps
}

func (f *Flow) setStatus(i int, status model.StepStatus) {
	f.mu.Lock()
	f.steps[i].Status = status
	f.mu.Unlock()
}

func (f *Flow) setTxHash(i int, hash string) {
	f.mu.Lock()
	f.steps[i].TxHash = hash
	f.mu.Unlock()
}

// Wait blocks until the flow reaches a terminal state and returns its
// outcome.
func (f *Flow) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the flow's terminal error, valid after Wait.
func (f *Flow) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}

// Run validates params, plans the step sequence, and starts executing
// it in the background. Allowances are checked once here, so approval
// steps that are already covered never appear in the plan.
func (o *Orchestrator) Run(ctx context.Context, op model.OperationType, p Params) (*Flow, error) {
	if err := validateParams(op, p); err != nil {
		return nil, err
	}

	bound, err := o.buildSteps(ctx, op, p)
	if err != nil {
		return nil, err
	}

	f := &Flow{
		ID:        fmt.Sprintf("%s-%d", op, time.Now().UnixNano()),
		Operation: op,
		steps:     make([]model.Step, len(bound)),
		events:    make(chan model.StepEvent, len(bound)*3+4),
		done:      make(chan struct{}),
	}
	f.Events = f.events
	for i, b := range bound {
		f.steps[i] = model.Step{Role: b.role, Label: b.label, Status: model.StepPending}
	}

	go o.runFlow(ctx, f, bound, p)
	return f, nil
}

func (o *Orchestrator) runFlow(ctx context.Context, f *Flow, bound []boundStep, p Params) {
	defer close(f.events)
	defer close(f.done)

	o.emit(f, model.StepEvent{Kind: model.EventFlowStarted})

	for i, b := range bound {
		f.setStatus(i, model.StepProcessing)
		o.emit(f, model.StepEvent{Kind: model.EventStepStarted, Step: b.role})

		if o.settleDelay > 0 {
			timer := time.NewTimer(o.settleDelay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				o.fail(f, i, b.role, ctx.Err())
				return
			}
		}

		pending, err := b.submit(ctx)
		if err != nil {
			o.fail(f, i, b.role, err)
			return
		}

		f.setTxHash(i, pending.TxHash())
		o.emit(f, model.StepEvent{Kind: model.EventHashKnown, Step: b.role, TxHash: pending.TxHash()})

		if err := pending.Await(ctx); err != nil {
			o.fail(f, i, b.role, err)
			return
		}

		f.setStatus(i, model.StepCompleted)
		o.emit(f, model.StepEvent{Kind: model.EventStepCompleted, Step: b.role, TxHash: pending.TxHash()})
	}

	from, to := flowAmounts(f.Operation, p)
	o.emit(f, model.StepEvent{Kind: model.EventFlowSucceeded, FromAmount: from, ToAmount: to})
	o.logger.Info("flow succeeded",
		zap.String("flow", f.ID),
		zap.String("operation", string(f.Operation)),
		zap.Int("steps", len(bound)),
	)
	if o.onSettled != nil {
		o.onSettled()
	}
}

func (o *Orchestrator) fail(f *Flow, i int, role model.StepRole, err error) {
	f.setStatus(i, model.StepError)
	f.err = err
	o.emit(f, model.StepEvent{Kind: model.EventFlowFailed, Step: role, Error: err.Error()})
	o.logger.Warn("flow failed",
		zap.String("flow", f.ID),
		zap.String("operation", string(f.Operation)),
		zap.String("step", string(role)),
		zap.Error(err),
	)
}

func (o *Orchestrator) emit(f *Flow, ev model.StepEvent) {
	ev.Operation = f.Operation
	ev.FlowID = f.ID
	ev.At = time.Now()
	select {
	case f.events <- ev:
	default:
	}
	if o.bus != nil {
		o.bus.Publish(ev)
	}
}

// flowAmounts renders the human-readable sides of a completed flow for
// the success event.
func flowAmounts(op model.OperationType, p Params) (from, to string) {
	switch op {
	case model.OpSwap:
		return amount.ToDecimalString(p.AmountIn, p.TokenIn.Decimals) + " " + p.TokenIn.Symbol,
			amount.ToDecimalString(p.QuotedOut, p.TokenOut.Decimals) + " " + p.TokenOut.Symbol
	case model.OpAddLiquidity:
		return amount.ToDecimalString(p.AmountIn, p.TokenIn.Decimals) + " " + p.TokenIn.Symbol,
			amount.ToDecimalString(p.AmountB, p.TokenOut.Decimals) + " " + p.TokenOut.Symbol
	case model.OpRemoveLiquidity:
		return p.Shares.String() + " shares", ""
	case model.OpFaucetClaim:
		return "", ""
	default:
		return amount.ToDecimalString(p.AmountIn, p.TokenIn.Decimals) + " " + p.TokenIn.Symbol, ""
	}
}
