package sip

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"braces.dev/errtrace"

	"github.com/go-siptx/siptx/internal/log"
)

// TransactionLayerOptions are the options for a [TransactionLayer].
type TransactionLayerOptions struct {
	// Timings is the SIP timing config applied to every transaction.
	// If zero, the default SIP timing config is used.
	Timings TimingConfig
	// Metrics collects transaction metrics.
	// If nil, metrics are not collected.
	Metrics *Metrics
	// Log is the logger.
	// If nil, the default logger is used.
	Log *slog.Logger
}

func (o *TransactionLayerOptions) timings() TimingConfig {
	if o == nil {
		return defTimingCfg
	}
	return o.Timings
}

func (o *TransactionLayerOptions) metrics() *Metrics {
	if o == nil {
		return nil
	}
	return o.Metrics
}

func (o *TransactionLayerOptions) log() *slog.Logger {
	if o == nil || o.Log == nil {
		return log.Default()
	}
	return o.Log
}

// TransactionLayer matches inbound messages to transactions.
//
// Inbound requests that match an existing server transaction are passed to
// that transaction, otherwise a new server transaction is created and the
// request is passed to the transaction user. An ACK that matches no
// transaction acknowledges a 2xx response and is passed to the transaction
// user without a transaction. Inbound responses that match no client
// transaction are silently discarded.
type TransactionLayer struct {
	tp      Transport
	tu      TransactionUser
	timings TimingConfig
	metrics *Metrics
	log     *slog.Logger

	clnTxs *memoryStore[ClientTransactionKey, ClientTransaction]
	srvTxs *memoryStore[ServerTransactionKey, ServerTransaction]

	closing   atomic.Bool
	closeOnce sync.Once
}

// NewTransactionLayer creates a new [TransactionLayer].
// Transport and transaction user are required and expected to be non-nil.
// Options are optional, if nil, default values are used.
func NewTransactionLayer(tp Transport, tu TransactionUser, opts *TransactionLayerOptions) (*TransactionLayer, error) {
	if tp == nil {
		return nil, errtrace.Wrap(NewInvalidArgumentError("invalid transport"))
	}
	if tu == nil {
		return nil, errtrace.Wrap(NewInvalidArgumentError("invalid transaction user"))
	}

	return &TransactionLayer{
		tp:      tp,
		tu:      tu,
		timings: opts.timings(),
		metrics: opts.metrics(),
		log:     opts.log(),
		clnTxs:  newMemoryStore[ClientTransactionKey, ClientTransaction](),
		srvTxs:  newMemoryStore[ServerTransactionKey, ServerTransaction](),
	}, nil
}

// SendRequest creates a client transaction for the request and sends it.
// ACK requests are sent statelessly without a transaction, the ACK for a
// non-2xx final is generated by the matching client transaction itself.
func (txl *TransactionLayer) SendRequest(ctx context.Context, req *Request) (ClientTransaction, error) {
	if txl.closing.Load() {
		return nil, errtrace.Wrap(ErrTransactionLayerClosed)
	}
	if req != nil && req.Method.Equal(RequestMethodAck) {
		if err := req.Validate(); err != nil {
			return nil, errtrace.Wrap(NewInvalidArgumentError(err))
		}
		return nil, errtrace.Wrap(txl.tp.SendRequest(ctx, req))
	}

	tx, err := NewClientTransaction(ctx, req, txl.tp, &ClientTransactionOptions{
		Timings: txl.timings,
		TU:      txl.tu,
		Metrics: txl.metrics,
		Log:     txl.log,
	})
	if err != nil {
		return nil, errtrace.Wrap(err)
	}

	key := tx.Key()
	if !txl.clnTxs.PutIfAbsent(key, tx) {
		tx.Terminate(ctx)
		return nil, errtrace.Wrap(ErrTransactionExists)
	}
	tx.OnStateChanged(func(ctx context.Context, _, to TransactionState) {
		if to == TransactionStateTerminated {
			txl.clnTxs.Delete(key)
		}
	})
	// the transaction may have terminated before the cleanup hook was registered
	select {
	case <-tx.Done():
		txl.clnTxs.Delete(key)
	default:
	}
	return tx, nil
}

// RecvResponse is called on each inbound response received by the transport layer.
// Responses that match no client transaction are silently discarded.
func (txl *TransactionLayer) RecvResponse(ctx context.Context, res *Response) error {
	var key ClientTransactionKey
	if err := key.FillFromResponse(res); err != nil {
		txl.log.LogAttrs(ctx, slog.LevelWarn,
			"silently discard inbound response due to transaction key error",
			slog.Any("response", res),
			slog.Any("error", err),
		)
		return errtrace.Wrap(err)
	}

	tx, ok := txl.clnTxs.Get(key)
	if !ok {
		txl.log.LogAttrs(ctx, slog.LevelDebug,
			"silently discard inbound response due to missing corresponding transaction",
			slog.Any("response", res),
		)
		return errtrace.Wrap(ErrTransactionNotFound)
	}
	return errtrace.Wrap(tx.RecvResponse(ctx, res))
}

// RecvRequest is called on each inbound request received by the transport layer.
// A request that matches an existing server transaction is passed to it,
// otherwise a new server transaction is created. An unmatched ACK is passed
// to the transaction user without a transaction.
func (txl *TransactionLayer) RecvRequest(ctx context.Context, req *Request) error {
	var key ServerTransactionKey
	if err := key.FillFromRequest(req); err != nil {
		txl.log.LogAttrs(ctx, slog.LevelWarn,
			"discarding inbound request due to transaction key error",
			slog.Any("request", req),
			slog.Any("error", err),
		)
		return errtrace.Wrap(err)
	}

	if tx, ok := txl.srvTxs.Get(key); ok {
		return errtrace.Wrap(tx.RecvRequest(ctx, req))
	}

	if req.Method.Equal(RequestMethodAck) {
		// ACK for a 2xx response, owned by the layer above.
		txl.tu.OnRequest(ctx, nil, req)
		return nil
	}

	if txl.closing.Load() {
		return errtrace.Wrap(ErrTransactionLayerClosed)
	}

	tx, err := NewServerTransaction(ctx, req, txl.tp, &ServerTransactionOptions{
		Key:     key,
		Timings: txl.timings,
		TU:      txl.tu,
		Metrics: txl.metrics,
		Log:     txl.log,
	})
	if err != nil {
		return errtrace.Wrap(err)
	}

	if !txl.srvTxs.PutIfAbsent(key, tx) {
		// lost the race to a concurrent retransmit
		tx.Terminate(ctx)
		if other, ok := txl.srvTxs.Get(key); ok {
			return errtrace.Wrap(other.RecvRequest(ctx, req))
		}
		return nil
	}
	tx.OnStateChanged(func(ctx context.Context, _, to TransactionState) {
		if to == TransactionStateTerminated {
			txl.srvTxs.Delete(key)
		}
	})
	// the transaction may have terminated before the cleanup hook was registered
	select {
	case <-tx.Done():
		txl.srvTxs.Delete(key)
	default:
	}
	return nil
}

// ClientTransactions returns a snapshot of the active client transactions.
func (txl *TransactionLayer) ClientTransactions() []ClientTransaction {
	return txl.clnTxs.All()
}

// ServerTransactions returns a snapshot of the active server transactions.
func (txl *TransactionLayer) ServerTransactions() []ServerTransaction {
	return txl.srvTxs.All()
}

// Close terminates all active transactions.
// It is safe to call multiple times.
func (txl *TransactionLayer) Close(ctx context.Context) error {
	txl.closing.Store(true)
	txl.closeOnce.Do(func() {
		for _, tx := range txl.clnTxs.All() {
			tx.Terminate(ctx)
		}
		for _, tx := range txl.srvTxs.All() {
			tx.Terminate(ctx)
		}
	})
	return nil
}
