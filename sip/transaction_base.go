package sip

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-siptx/siptx/internal/timeutil"
	"github.com/go-siptx/siptx/internal/types"
)

// transactBase drives a transition function: it serializes inbound events,
// executes the ordered actions a transition returns and owns the timers.
// Transition functions stay pure, all I/O and callback delivery happen here.
type transactBase struct {
	typ     TransactionType
	ctx     context.Context
	log     *slog.Logger
	metrics *Metrics
	tp      Transport
	tu      TransactionUser
	// impl is the outer transaction handed to user callbacks.
	impl Transaction
	// step is the transition function of the concrete transaction type.
	step func(st TransactionState, ev fsmEvent) fsmResult

	mu     sync.Mutex
	state  TransactionState
	reason StopReason
	// erred guards at-most-once error delivery.
	erred  bool
	timers map[TimerID]*timeutil.Timer
	done   chan struct{}
	// notes are user callbacks queued during a transition and delivered
	// after the lock is released, in transition order.
	notes      []func()
	delivering bool

	onState types.CallbackManager[TransactionStateHandler]
}

func newTransactBase(
	ctx context.Context,
	typ TransactionType,
	tp Transport,
	tu TransactionUser,
	log *slog.Logger,
	metrics *Metrics,
) *transactBase {
	if tu == nil {
		tu = NoopTransactionUser{}
	}
	return &transactBase{
		typ:     typ,
		ctx:     ctx,
		log:     log,
		metrics: metrics,
		tp:      tp,
		tu:      tu,
		timers:  make(map[TimerID]*timeutil.Timer),
		done:    make(chan struct{}),
	}
}

// Type returns the transaction type.
func (tx *transactBase) Type() TransactionType { return tx.typ }

// State returns the current transaction state.
func (tx *transactBase) State() TransactionState {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.state
}

// StopReason returns the termination reason.
func (tx *transactBase) StopReason() StopReason {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.reason
}

// Done returns a channel that is closed when the transaction terminates.
func (tx *transactBase) Done() <-chan struct{} { return tx.done }

// Terminate aborts the transaction and releases its timers.
func (tx *transactBase) Terminate(ctx context.Context) {
	tx.dispatch(ctx, fsmEvent{kind: evtTerminate})
}

// OnStateChanged registers a callback to be called on each state transition.
func (tx *transactBase) OnStateChanged(fn TransactionStateHandler) (cancel func()) {
	return tx.onState.Add(fn)
}

// begin runs the start transition. The initial state is set before the entry
// actions execute so a failed initial send is handled by that state.
func (tx *transactBase) begin(ctx context.Context, r fsmResult) {
	tx.metrics.txCreated(tx.typ)

	tx.mu.Lock()
	tx.setStateLocked(r.next)
	tx.applyLocked(ctx, fsmResult{actions: r.actions, stop: r.stop, reason: r.reason})
	tx.mu.Unlock()

	tx.drain()
}

// dispatch feeds one event through the transition function.
func (tx *transactBase) dispatch(ctx context.Context, ev fsmEvent) {
	tx.mu.Lock()
	if tx.state == TransactionStateTerminated {
		tx.mu.Unlock()
		return
	}
	tx.applyLocked(ctx, tx.step(tx.state, ev))
	tx.mu.Unlock()

	tx.drain()
}

// applyLocked executes the actions of a transition result in order and then
// performs the resulting state change. A failed send aborts the remaining
// actions and feeds a transport error event back through the transition
// function, whose result replaces the aborted one.
func (tx *transactBase) applyLocked(ctx context.Context, r fsmResult) {
	for _, act := range r.actions {
		switch act.kind {
		case actSendRequest:
			if err := tx.tp.SendRequest(ctx, act.req); err != nil {
				tx.sendFailedLocked(ctx, fmt.Errorf("send %q request: %w", act.req.Method, err))
				return
			}
			if act.retrans {
				tx.metrics.retransmit(tx.typ)
			}
		case actSendResponse:
			if err := tx.tp.SendResponse(ctx, act.res); err != nil {
				tx.sendFailedLocked(ctx, fmt.Errorf("send %q response: %w", act.res.Status, err))
				return
			}
			if act.retrans {
				tx.metrics.retransmit(tx.typ)
			}
		case actNotifyRequest:
			req := act.req
			tx.noteLocked(func() {
				tx.tu.OnRequest(tx.ctx, tx.impl.(ServerTransaction), req)
			})
		case actNotifyResponse:
			res := act.res
			tx.noteLocked(func() {
				tx.tu.OnResponse(tx.ctx, tx.impl.(ClientTransaction), res)
			})
		case actNotifyError:
			if tx.erred {
				break
			}
			tx.erred = true
			err := act.err
			tx.log.LogAttrs(ctx, slog.LevelDebug, "transaction error",
				slog.Any("transaction", tx.impl), slog.Any("error", err))
			tx.noteLocked(func() {
				tx.tu.OnError(tx.ctx, tx.impl, err)
			})
		case actArmTimer:
			tx.armTimerLocked(act.timer)
		case actCancelTimer:
			if t := tx.timers[act.timer.ID]; t != nil {
				t.Stop()
			}
		}
	}

	if r.stop {
		tx.terminateLocked(r.reason)
		return
	}
	if r.next != "" && r.next != tx.state {
		tx.setStateLocked(r.next)
	}
}

// sendFailedLocked routes a transport error back through the transition
// function. Error transitions never send, so the recursion is bounded.
func (tx *transactBase) sendFailedLocked(ctx context.Context, err error) {
	tx.log.LogAttrs(ctx, slog.LevelDebug, "transport error",
		slog.Any("transaction", tx.impl), slog.Any("error", err))

	tx.applyLocked(ctx, tx.step(tx.state, fsmEvent{kind: evtTransportErr, err: err}))
}

func (tx *transactBase) armTimerLocked(te TimerEvent) {
	t := tx.timers[te.ID]
	if t == nil {
		t = &timeutil.Timer{}
		tx.timers[te.ID] = t
	}
	id := te.ID
	t.Arm(te.Interval, func(gen uint64, interval time.Duration) {
		tx.onTimer(id, gen, interval)
	})
}

// onTimer runs on the timer goroutine. The generation is re-checked under
// the transaction lock, a fire that raced a cancel or re-arm is dropped.
func (tx *transactBase) onTimer(id TimerID, gen uint64, interval time.Duration) {
	tx.mu.Lock()
	t := tx.timers[id]
	if t == nil || t.Gen() != gen || tx.state == TransactionStateTerminated {
		tx.mu.Unlock()
		return
	}

	tx.log.LogAttrs(tx.ctx, slog.LevelDebug, "timer fired",
		slog.Any("transaction", tx.impl),
		slog.String("timer", string(id)),
		slog.Duration("interval", interval),
	)

	ev := fsmEvent{kind: evtTimer, timer: TimerEvent{ID: id, Interval: interval}}
	tx.applyLocked(tx.ctx, tx.step(tx.state, ev))
	tx.mu.Unlock()

	tx.drain()
}

func (tx *transactBase) setStateLocked(st TransactionState) {
	from := tx.state
	tx.state = st

	tx.log.LogAttrs(tx.ctx, slog.LevelDebug, "transaction state changed",
		slog.Any("transaction", tx.impl),
		slog.String("from", string(from)),
		slog.String("to", string(st)),
	)

	if tx.onState.Len() > 0 {
		tx.noteLocked(func() {
			tx.onState.Range(func(fn TransactionStateHandler) {
				fn(tx.ctx, from, st)
			})
		})
	}
}

func (tx *transactBase) terminateLocked(reason StopReason) {
	for _, t := range tx.timers {
		t.Stop()
	}
	tx.reason = reason
	tx.setStateLocked(TransactionStateTerminated)
	tx.metrics.txTerminated(tx.typ, reason)
	close(tx.done)
}

func (tx *transactBase) noteLocked(fn func()) {
	tx.notes = append(tx.notes, fn)
}

// drain delivers queued callbacks outside the lock. Callbacks may dispatch
// further events on the same transaction, their notes are appended to the
// queue and delivered by the outermost drain in order.
func (tx *transactBase) drain() {
	for {
		tx.mu.Lock()
		if tx.delivering || len(tx.notes) == 0 {
			tx.mu.Unlock()
			return
		}
		tx.delivering = true
		batch := tx.notes
		tx.notes = nil
		tx.mu.Unlock()

		for _, fn := range batch {
			fn()
		}

		tx.mu.Lock()
		tx.delivering = false
		tx.mu.Unlock()
	}
}
