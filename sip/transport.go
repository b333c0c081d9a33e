package sip

import "context"

// Transport is a messages sending contract required by the transaction layer.
// Implementations perform the actual wire I/O and address resolution.
type Transport interface {
	// SendRequest sends a SIP request to the remote target.
	SendRequest(ctx context.Context, req *Request) error
	// SendResponse sends a SIP response to the address in the topmost Via.
	SendResponse(ctx context.Context, res *Response) error
	// Reliable reports whether the underlying transport provides reliable
	// delivery. The returned value must be stable over a transaction
	// lifetime, it selects the retransmit and linger timers once at
	// transaction creation.
	Reliable() bool
}
