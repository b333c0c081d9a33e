package sip

import "context"

// TransactionUser consumes events emitted by the transaction layer.
// Callbacks are invoked sequentially per transaction. A callback may call
// back into the transaction it was invoked on, such calls are queued and
// processed after the callback returns.
type TransactionUser interface {
	// OnRequest is called for a request that initiated a new server
	// transaction. It is also called with a nil transaction for ACK
	// requests that match no transaction, such ACKs acknowledge a 2xx
	// response and belong to the layer above.
	OnRequest(ctx context.Context, tx ServerTransaction, req *Request)
	// OnResponse is called for each response passed up by a client
	// transaction, including every provisional and the final one.
	OnResponse(ctx context.Context, tx ClientTransaction, res *Response)
	// OnError is called at most once per transaction when it terminates
	// abnormally, on timeout or transport failure.
	OnError(ctx context.Context, tx Transaction, err error)
}

// NoopTransactionUser is a [TransactionUser] that ignores all events.
type NoopTransactionUser struct{}

func (NoopTransactionUser) OnRequest(context.Context, ServerTransaction, *Request) {}

func (NoopTransactionUser) OnResponse(context.Context, ClientTransaction, *Response) {}

func (NoopTransactionUser) OnError(context.Context, Transaction, error) {}
