package sip

import (
	"context"
	"log/slog"

	"github.com/go-siptx/siptx/internal/types"
)

// TransactionType represents a SIP transaction type.
type TransactionType string

const (
	TransactionTypeClientInvite    TransactionType = "client_invite"
	TransactionTypeClientNonInvite TransactionType = "client_non_invite"
	TransactionTypeServerInvite    TransactionType = "server_invite"
	TransactionTypeServerNonInvite TransactionType = "server_non_invite"
)

func (t TransactionType) String() string { return string(t) }

// IsClient reports whether the type is a client transaction type.
func (t TransactionType) IsClient() bool {
	return t == TransactionTypeClientInvite || t == TransactionTypeClientNonInvite
}

// IsServer reports whether the type is a server transaction type.
func (t TransactionType) IsServer() bool {
	return t == TransactionTypeServerInvite || t == TransactionTypeServerNonInvite
}

// IsInvite reports whether the type is an INVITE transaction type.
func (t TransactionType) IsInvite() bool {
	return t == TransactionTypeClientInvite || t == TransactionTypeServerInvite
}

// TransactionState represents a SIP transaction state.
type TransactionState string

const (
	// TransactionStateCalling is the initial INVITE client transaction state.
	TransactionStateCalling TransactionState = "calling"
	// TransactionStateTrying is the initial non-INVITE transaction state.
	TransactionStateTrying TransactionState = "trying"
	// TransactionStateProceeding is the state after a provisional response.
	TransactionStateProceeding TransactionState = "proceeding"
	// TransactionStateCompleted is the state after a final response.
	TransactionStateCompleted TransactionState = "completed"
	// TransactionStateConfirmed is the INVITE server transaction state after ACK receipt.
	TransactionStateConfirmed TransactionState = "confirmed"
	// TransactionStateTerminated is the final state of any transaction.
	TransactionStateTerminated TransactionState = "terminated"
)

func (s TransactionState) String() string { return string(s) }

// StopReason explains why a transaction terminated.
type StopReason string

const (
	// StopReasonNormal means the transaction completed its lifecycle.
	StopReasonNormal StopReason = "normal"
	// StopReasonShutdown means the transaction was aborted by timeout,
	// transport failure or an explicit terminate call.
	StopReasonShutdown StopReason = "shutdown"
)

func (r StopReason) String() string { return string(r) }

// TransactionStateHandler is called on each transaction state transition.
type TransactionStateHandler = func(ctx context.Context, from, to TransactionState)

// Transaction represents a SIP transaction.
type Transaction interface {
	slog.LogValuer

	// Type returns the transaction type.
	Type() TransactionType
	// State returns the current transaction state.
	State() TransactionState
	// Request returns the request that created the transaction.
	Request() *Request
	// StopReason returns the termination reason.
	// It is meaningful only after the transaction reached the terminated state.
	StopReason() StopReason
	// Done returns a channel that is closed when the transaction terminates.
	Done() <-chan struct{}
	// Terminate aborts the transaction and releases its timers.
	// It is safe to call multiple times.
	Terminate(ctx context.Context)
	// OnStateChanged registers a callback to be called on each state transition.
	// The callback can be canceled by calling the returned cancel function.
	OnStateChanged(fn TransactionStateHandler) (cancel func())
}

const (
	clnTransactCtxKey types.ContextKey = "client_transaction"
	srvTransactCtxKey types.ContextKey = "server_transaction"
)

// ClientTransactionFromContext extracts a client transaction from the context.
func ClientTransactionFromContext(ctx context.Context) (ClientTransaction, bool) {
	tx, ok := ctx.Value(clnTransactCtxKey).(ClientTransaction)
	return tx, ok
}

// ServerTransactionFromContext extracts a server transaction from the context.
func ServerTransactionFromContext(ctx context.Context) (ServerTransaction, bool) {
	tx, ok := ctx.Value(srvTransactCtxKey).(ServerTransaction)
	return tx, ok
}
