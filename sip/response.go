package sip

import (
	"log/slog"

	"braces.dev/errtrace"
)

// Response represents a SIP response.
type Response struct {
	Status  ResponseStatus `json:"status"`
	Reason  string         `json:"reason,omitempty"`
	Headers Headers        `json:"headers"`
	Body    []byte         `json:"body,omitempty"`
}

// Validate checks that the response carries everything the transaction layer
// needs: a valid status, a topmost Via with a branch, Call-ID and CSeq.
func (res *Response) Validate() error {
	if res == nil {
		return errtrace.Wrap(NewInvalidMessageError())
	}
	if !res.Status.IsValid() {
		return errtrace.Wrap(NewInvalidMessageError("invalid status"))
	}
	via, ok := res.Headers.FirstVia()
	if !ok || via.Branch == "" {
		return errtrace.Wrap(NewInvalidMessageError("missing Via branch"))
	}
	if res.Headers.CallID == "" {
		return errtrace.Wrap(NewInvalidMessageError("missing Call-ID"))
	}
	if res.Headers.CSeq.SeqNum == 0 || !res.Headers.CSeq.Method.IsValid() {
		return errtrace.Wrap(NewInvalidMessageError("invalid CSeq"))
	}
	return nil
}

// IsValid reports whether the response passes [Response.Validate].
func (res *Response) IsValid() bool { return res.Validate() == nil }

// Clone returns a deep copy of the response.
func (res *Response) Clone() *Response {
	if res == nil {
		return nil
	}
	out := *res
	out.Headers = res.Headers.Clone()
	if res.Body != nil {
		out.Body = append([]byte(nil), res.Body...)
	}
	return &out
}

// LogValue implements [slog.LogValuer].
func (res *Response) LogValue() slog.Value {
	if res == nil {
		return slog.Value{}
	}
	attrs := []slog.Attr{
		slog.Uint64("status", uint64(res.Status)),
		slog.String("call_id", res.Headers.CallID),
	}
	if via, ok := res.Headers.FirstVia(); ok {
		attrs = append(attrs, slog.String("branch", via.Branch))
	}
	return slog.GroupValue(attrs...)
}
