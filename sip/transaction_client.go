package sip

import (
	"context"
	"log/slog"

	"braces.dev/errtrace"

	"github.com/go-siptx/siptx/internal/log"
)

// ClientTransaction represents a SIP client transaction.
type ClientTransaction interface {
	Transaction
	// Key returns the transaction key.
	Key() ClientTransactionKey
	// MatchResponse checks whether the response matches the client transaction.
	MatchResponse(res *Response) error
	// RecvResponse is called on each inbound response received by the transport layer.
	RecvResponse(ctx context.Context, res *Response) error
	// LastResponse returns the last response received by the transaction.
	LastResponse() *Response
}

// ClientTransactionOptions contains options for a client transaction.
type ClientTransactionOptions struct {
	// Key is the client transaction key that will be used with the transaction.
	// If zero, the transaction will be created with the key automatically filled from the request.
	Key ClientTransactionKey
	// Timings is the SIP timing config that will be used with the transaction.
	// If zero, the default SIP timing config will be used.
	Timings TimingConfig
	// TU receives the transaction events.
	// If nil, events are discarded.
	TU TransactionUser
	// Metrics collects transaction metrics.
	// If nil, metrics are not collected.
	Metrics *Metrics
	// Log is the logger that will be used with the transaction.
	// If nil, the default logger will be used.
	Log *slog.Logger
}

func (o *ClientTransactionOptions) key() ClientTransactionKey {
	if o == nil {
		return zeroClnTxKey
	}
	return o.Key
}

func (o *ClientTransactionOptions) timings() TimingConfig {
	if o == nil {
		return defTimingCfg
	}
	return o.Timings
}

func (o *ClientTransactionOptions) tu() TransactionUser {
	if o == nil || o.TU == nil {
		return NoopTransactionUser{}
	}
	return o.TU
}

func (o *ClientTransactionOptions) metrics() *Metrics {
	if o == nil {
		return nil
	}
	return o.Metrics
}

func (o *ClientTransactionOptions) log() *slog.Logger {
	if o == nil || o.Log == nil {
		return log.Default()
	}
	return o.Log
}

type clientTransact struct {
	*transactBase
	key  ClientTransactionKey
	data clientTxData
}

func newClientTransact(
	typ TransactionType,
	impl ClientTransaction,
	req *Request,
	tp Transport,
	opts *ClientTransactionOptions,
) (*clientTransact, error) {
	if err := req.Validate(); err != nil {
		return nil, errtrace.Wrap(NewInvalidArgumentError(err))
	}
	if tp == nil {
		return nil, errtrace.Wrap(NewInvalidArgumentError("invalid transport"))
	}

	key := opts.key()
	if !key.IsValid() {
		if err := key.FillFromRequest(req); err != nil {
			return nil, errtrace.Wrap(NewInvalidArgumentError(err))
		}
	}

	tx := &clientTransact{
		key:  key,
		data: clientTxData{req: req},
	}
	ctx := context.WithValue(context.Background(), clnTransactCtxKey, impl)
	tx.transactBase = newTransactBase(ctx, typ, tp, opts.tu(), opts.log(), opts.metrics())
	tx.impl = impl
	return tx, nil
}

// LogValue implements [slog.LogValuer].
func (tx *clientTransact) LogValue() slog.Value {
	if tx == nil {
		return slog.Value{}
	}
	return slog.GroupValue(
		slog.Any("key", tx.key),
		slog.Any("type", tx.typ),
		slog.Any("state", tx.State()),
	)
}

// Key returns the transaction key.
func (tx *clientTransact) Key() ClientTransactionKey {
	if tx == nil {
		return zeroClnTxKey
	}
	return tx.key
}

// Request returns the request that created the transaction.
func (tx *clientTransact) Request() *Request {
	if tx == nil {
		return nil
	}
	return tx.data.req
}

// LastResponse returns the last response received by the transaction.
func (tx *clientTransact) LastResponse() *Response {
	if tx == nil {
		return nil
	}
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.data.lastRes
}

// MatchResponse checks whether the response matches the client transaction.
// It implements the matching rules defined in RFC 3261 Section 17.1.3.
func (tx *clientTransact) MatchResponse(res *Response) error {
	var resKey ClientTransactionKey
	if err := resKey.FillFromResponse(res); err != nil {
		return errtrace.Wrap(err)
	}

	if !tx.key.Equal(resKey) {
		return errtrace.Wrap(ErrTransactionNotMatched)
	}
	return nil
}

// RecvResponse is called on each inbound response received by the transport layer.
func (tx *clientTransact) RecvResponse(ctx context.Context, res *Response) error {
	if err := tx.MatchResponse(res); err != nil {
		return errtrace.Wrap(err)
	}

	select {
	case <-tx.done:
		return errtrace.Wrap(ErrTransactionTerminated)
	default:
	}

	tx.log.LogAttrs(ctx, slog.LevelDebug, "recv response",
		slog.Any("transaction", tx.impl), slog.Any("response", res))

	tx.dispatch(ctx, fsmEvent{kind: evtResponse, res: res})
	return nil
}

// InviteClientTransaction is an INVITE client transaction, RFC 3261 Section 17.1.1.
type InviteClientTransaction struct {
	*clientTransact
}

// NewInviteClientTransaction creates an INVITE client transaction and sends
// the request. A failed initial send does not fail the constructor, it is
// reported through [TransactionUser.OnError].
func NewInviteClientTransaction(ctx context.Context, req *Request, tp Transport, opts *ClientTransactionOptions) (*InviteClientTransaction, error) {
	if req != nil && !req.Method.Equal(RequestMethodInvite) {
		return nil, errtrace.Wrap(NewInvalidArgumentError(ErrMethodNotAllowed))
	}

	tx := &InviteClientTransaction{}
	base, err := newClientTransact(TransactionTypeClientInvite, tx, req, tp, opts)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	tx.clientTransact = base

	fsm := inviteClientFSM{timings: opts.timings(), reliable: tp.Reliable()}
	tx.step = func(st TransactionState, ev fsmEvent) fsmResult {
		return fsm.step(st, ev, &tx.data)
	}
	tx.begin(ctx, fsm.start(&tx.data))
	return tx, nil
}

// NonInviteClientTransaction is a non-INVITE client transaction, RFC 3261 Section 17.1.2.
type NonInviteClientTransaction struct {
	*clientTransact
}

// NewNonInviteClientTransaction creates a non-INVITE client transaction and
// sends the request. A failed initial send does not fail the constructor, it
// is reported through [TransactionUser.OnError].
func NewNonInviteClientTransaction(ctx context.Context, req *Request, tp Transport, opts *ClientTransactionOptions) (*NonInviteClientTransaction, error) {
	if req != nil && (req.Method.Equal(RequestMethodInvite) || req.Method.Equal(RequestMethodAck)) {
		return nil, errtrace.Wrap(NewInvalidArgumentError(ErrMethodNotAllowed))
	}

	tx := &NonInviteClientTransaction{}
	base, err := newClientTransact(TransactionTypeClientNonInvite, tx, req, tp, opts)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	tx.clientTransact = base

	fsm := nonInviteClientFSM{timings: opts.timings(), reliable: tp.Reliable()}
	tx.step = func(st TransactionState, ev fsmEvent) fsmResult {
		return fsm.step(st, ev, &tx.data)
	}
	tx.begin(ctx, fsm.start(&tx.data))
	return tx, nil
}

// NewClientTransaction creates a client transaction of the type matching the
// request method.
func NewClientTransaction(ctx context.Context, req *Request, tp Transport, opts *ClientTransactionOptions) (ClientTransaction, error) {
	if req != nil && req.Method.Equal(RequestMethodInvite) {
		return errtrace.Wrap2(NewInviteClientTransaction(ctx, req, tp, opts))
	}
	return errtrace.Wrap2(NewNonInviteClientTransaction(ctx, req, tp, opts))
}
