package sip

import (
	"context"
	"log/slog"

	"braces.dev/errtrace"

	"github.com/go-siptx/siptx/internal/log"
)

// ServerTransaction represents a SIP server transaction.
type ServerTransaction interface {
	Transaction
	// Key returns the transaction key.
	Key() ServerTransactionKey
	// MatchRequest checks whether the request matches the server transaction.
	MatchRequest(req *Request) error
	// RecvRequest is called on each inbound request received by the transport layer,
	// including retransmits and the ACK for a non-2xx final response.
	RecvRequest(ctx context.Context, req *Request) error
	// Respond sends a response produced by the transaction user.
	Respond(ctx context.Context, res *Response) error
	// LastResponse returns the last response sent by the transaction.
	LastResponse() *Response
}

// ServerTransactionOptions contains options for a server transaction.
type ServerTransactionOptions struct {
	// Key is the server transaction key that will be used with the transaction.
	// If zero, the transaction will be created with the key automatically filled from the request.
	Key ServerTransactionKey
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

func (o *ServerTransactionOptions) key() ServerTransactionKey {
	if o == nil {
		return zeroSrvTxKey
	}
	return o.Key
}

func (o *ServerTransactionOptions) timings() TimingConfig {
	if o == nil {
		return defTimingCfg
	}
	return o.Timings
}

func (o *ServerTransactionOptions) tu() TransactionUser {
	if o == nil || o.TU == nil {
		return NoopTransactionUser{}
	}
	return o.TU
}

func (o *ServerTransactionOptions) metrics() *Metrics {
	if o == nil {
		return nil
	}
	return o.Metrics
}

func (o *ServerTransactionOptions) log() *slog.Logger {
	if o == nil || o.Log == nil {
		return log.Default()
	}
	return o.Log
}

type serverTransact struct {
	*transactBase
	key  ServerTransactionKey
	data serverTxData
}

func newServerTransact(
	typ TransactionType,
	impl ServerTransaction,
	req *Request,
	tp Transport,
	opts *ServerTransactionOptions,
) (*serverTransact, error) {
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

	tx := &serverTransact{
		key:  key,
		data: serverTxData{req: req},
	}
	ctx := context.WithValue(context.Background(), srvTransactCtxKey, impl)
	tx.transactBase = newTransactBase(ctx, typ, tp, opts.tu(), opts.log(), opts.metrics())
	tx.impl = impl
	return tx, nil
}

// LogValue implements [slog.LogValuer].
func (tx *serverTransact) LogValue() slog.Value {
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
func (tx *serverTransact) Key() ServerTransactionKey {
	if tx == nil {
		return zeroSrvTxKey
	}
	return tx.key
}

// Request returns the request that created the transaction.
func (tx *serverTransact) Request() *Request {
	if tx == nil {
		return nil
	}
	return tx.data.req
}

// LastResponse returns the last response sent by the transaction.
func (tx *serverTransact) LastResponse() *Response {
	if tx == nil {
		return nil
	}
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.data.lastRes
}

// MatchRequest checks whether the request matches the server transaction.
// It implements the matching rules defined in RFC 3261 Section 17.2.3.
func (tx *serverTransact) MatchRequest(req *Request) error {
	var reqKey ServerTransactionKey
	if err := reqKey.FillFromRequest(req); err != nil {
		return errtrace.Wrap(err)
	}

	if !tx.key.Equal(reqKey) {
		return errtrace.Wrap(ErrTransactionNotMatched)
	}
	return nil
}

// RecvRequest is called on each inbound request received by the transport layer.
func (tx *serverTransact) RecvRequest(ctx context.Context, req *Request) error {
	if err := tx.MatchRequest(req); err != nil {
		return errtrace.Wrap(err)
	}

	select {
	case <-tx.done:
		return errtrace.Wrap(ErrTransactionTerminated)
	default:
	}

	tx.log.LogAttrs(ctx, slog.LevelDebug, "recv request",
		slog.Any("transaction", tx.impl), slog.Any("request", req))

	kind := evtRequest
	if req.Method.Equal(RequestMethodAck) {
		kind = evtAck
	}
	tx.dispatch(ctx, fsmEvent{kind: kind, req: req})
	return nil
}

// Respond sends a response produced by the transaction user.
func (tx *serverTransact) Respond(ctx context.Context, res *Response) error {
	if err := res.Validate(); err != nil {
		return errtrace.Wrap(NewInvalidArgumentError(err))
	}

	select {
	case <-tx.done:
		return errtrace.Wrap(ErrTransactionTerminated)
	default:
	}

	tx.log.LogAttrs(ctx, slog.LevelDebug, "respond",
		slog.Any("transaction", tx.impl), slog.Any("response", res))

	tx.dispatch(ctx, fsmEvent{kind: evtRespond, res: res})
	return nil
}

// InviteServerTransaction is an INVITE server transaction, RFC 3261 Section 17.2.1.
type InviteServerTransaction struct {
	*serverTransact
}

// NewInviteServerTransaction creates an INVITE server transaction and passes
// the request to the transaction user. If no provisional response is sent
// shortly after, a 100 Trying is generated automatically.
func NewInviteServerTransaction(ctx context.Context, req *Request, tp Transport, opts *ServerTransactionOptions) (*InviteServerTransaction, error) {
	if req != nil && !req.Method.Equal(RequestMethodInvite) {
		return nil, errtrace.Wrap(NewInvalidArgumentError(ErrMethodNotAllowed))
	}

	tx := &InviteServerTransaction{}
	base, err := newServerTransact(TransactionTypeServerInvite, tx, req, tp, opts)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	tx.serverTransact = base

	fsm := inviteServerFSM{timings: opts.timings(), reliable: tp.Reliable()}
	tx.step = func(st TransactionState, ev fsmEvent) fsmResult {
		return fsm.step(st, ev, &tx.data)
	}
	tx.begin(ctx, fsm.start(&tx.data))
	return tx, nil
}

// NonInviteServerTransaction is a non-INVITE server transaction, RFC 3261 Section 17.2.2.
type NonInviteServerTransaction struct {
	*serverTransact
}

// NewNonInviteServerTransaction creates a non-INVITE server transaction and
// passes the request to the transaction user.
func NewNonInviteServerTransaction(ctx context.Context, req *Request, tp Transport, opts *ServerTransactionOptions) (*NonInviteServerTransaction, error) {
	if req != nil && (req.Method.Equal(RequestMethodInvite) || req.Method.Equal(RequestMethodAck)) {
		return nil, errtrace.Wrap(NewInvalidArgumentError(ErrMethodNotAllowed))
	}

	tx := &NonInviteServerTransaction{}
	base, err := newServerTransact(TransactionTypeServerNonInvite, tx, req, tp, opts)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	tx.serverTransact = base

	fsm := nonInviteServerFSM{timings: opts.timings(), reliable: tp.Reliable()}
	tx.step = func(st TransactionState, ev fsmEvent) fsmResult {
		return fsm.step(st, ev, &tx.data)
	}
	tx.begin(ctx, fsm.start(&tx.data))
	return tx, nil
}

// NewServerTransaction creates a server transaction of the type matching the
// request method.
func NewServerTransaction(ctx context.Context, req *Request, tp Transport, opts *ServerTransactionOptions) (ServerTransaction, error) {
	if req != nil && req.Method.Equal(RequestMethodInvite) {
		return errtrace.Wrap2(NewInviteServerTransaction(ctx, req, tp, opts))
	}
	return errtrace.Wrap2(NewNonInviteServerTransaction(ctx, req, tp, opts))
}
