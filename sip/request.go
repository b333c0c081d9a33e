package sip

import (
	"log/slog"

	"braces.dev/errtrace"
)

// Request represents a SIP request.
// The transaction layer treats a request as immutable once a transaction was
// created from it.
type Request struct {
	Method  RequestMethod `json:"method"`
	URI     string        `json:"uri"`
	Headers Headers       `json:"headers"`
	Body    []byte        `json:"body,omitempty"`
}

// Validate checks that the request carries everything the transaction layer
// needs: a valid method, a request URI, a topmost Via with a branch, Call-ID
// and a CSeq matching the method.
func (req *Request) Validate() error {
	if req == nil {
		return errtrace.Wrap(NewInvalidMessageError())
	}
	if !req.Method.IsValid() {
		return errtrace.Wrap(NewInvalidMessageError("invalid method"))
	}
	if req.URI == "" {
		return errtrace.Wrap(NewInvalidMessageError("missing request URI"))
	}
	via, ok := req.Headers.FirstVia()
	if !ok || via.Branch == "" {
		return errtrace.Wrap(NewInvalidMessageError("missing Via branch"))
	}
	if req.Headers.CallID == "" {
		return errtrace.Wrap(NewInvalidMessageError("missing Call-ID"))
	}
	if req.Headers.CSeq.SeqNum == 0 || !req.Headers.CSeq.Method.Equal(req.Method) {
		return errtrace.Wrap(NewInvalidMessageError("invalid CSeq"))
	}
	return nil
}

// IsValid reports whether the request passes [Request.Validate].
func (req *Request) IsValid() bool { return req.Validate() == nil }

// Clone returns a deep copy of the request.
func (req *Request) Clone() *Request {
	if req == nil {
		return nil
	}
	out := *req
	out.Headers = req.Headers.Clone()
	if req.Body != nil {
		out.Body = append([]byte(nil), req.Body...)
	}
	return &out
}

// NewResponse builds a response to the request with the given status.
// Via, From, To, Call-ID and CSeq are copied from the request per RFC 3261
// section 8.2.6.2. If reason is empty, the default reason phrase of the
// status is used. ACK requests are never answered.
func (req *Request) NewResponse(status ResponseStatus, reason string) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, errtrace.Wrap(err)
	}
	if !status.IsValid() {
		return nil, errtrace.Wrap(NewInvalidArgumentError("invalid status"))
	}
	if req.Method.Equal(RequestMethodAck) {
		return nil, errtrace.Wrap(NewInvalidArgumentError(ErrMethodNotAllowed))
	}

	if reason == "" {
		reason = status.ReasonPhrase()
	}
	return &Response{
		Status: status,
		Reason: reason,
		Headers: Headers{
			Via:    req.Headers.Clone().Via,
			From:   req.Headers.From,
			To:     req.Headers.To,
			CallID: req.Headers.CallID,
			CSeq:   req.Headers.CSeq,
		},
	}, nil
}

// LogValue implements [slog.LogValuer].
func (req *Request) LogValue() slog.Value {
	if req == nil {
		return slog.Value{}
	}
	attrs := []slog.Attr{
		slog.String("method", string(req.Method)),
		slog.String("uri", req.URI),
		slog.String("call_id", req.Headers.CallID),
	}
	if via, ok := req.Headers.FirstVia(); ok {
		attrs = append(attrs, slog.String("branch", via.Branch))
	}
	return slog.GroupValue(attrs...)
}
