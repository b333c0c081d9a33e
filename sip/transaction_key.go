package sip

import (
	"log/slog"
	"strings"

	"braces.dev/errtrace"

	"github.com/go-siptx/siptx/internal/util"
)

// ClientTransactionKey is the key of a client transaction.
// It is used for matching responses to the request that created the transaction.
//
//nolint:recvcheck
type ClientTransactionKey struct {
	// Branch parameter of the topmost Via header field.
	Branch string `json:"branch"`
	// Method of the request that created the transaction.
	Method string `json:"method"`
}

var zeroClnTxKey ClientTransactionKey

// FillFromRequest populates the key fields from the given request.
func (k *ClientTransactionKey) FillFromRequest(req *Request) error {
	if err := req.Validate(); err != nil {
		return errtrace.Wrap(NewInvalidArgumentError(err))
	}

	via, _ := req.Headers.FirstVia()
	k.Branch = via.Branch
	k.Method = util.UCase(string(req.Headers.CSeq.Method))
	return nil
}

// FillFromResponse populates the key fields from the given response.
// The method comes from the CSeq header, responses to any request carry
// the method of the request that created the transaction.
func (k *ClientTransactionKey) FillFromResponse(res *Response) error {
	if err := res.Validate(); err != nil {
		return errtrace.Wrap(NewInvalidArgumentError(err))
	}

	via, _ := res.Headers.FirstVia()
	k.Branch = via.Branch
	k.Method = util.UCase(string(res.Headers.CSeq.Method))
	return nil
}

// Equal checks whether the key is equal to another key.
func (k ClientTransactionKey) Equal(val any) bool {
	var other ClientTransactionKey
	switch v := val.(type) {
	case ClientTransactionKey:
		other = v
	case *ClientTransactionKey:
		if v == nil {
			return false
		}
		other = *v
	default:
		return false
	}

	return k.Branch == other.Branch && util.EqFold(k.Method, other.Method)
}

// IsValid checks whether the key is valid.
func (k ClientTransactionKey) IsValid() bool {
	return k.Branch != "" && k.Method != ""
}

// IsZero checks whether the key is zero.
func (k ClientTransactionKey) IsZero() bool { return k == zeroClnTxKey }

// LogValue returns a [slog.Value] for the key.
func (k ClientTransactionKey) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("branch", k.Branch),
		slog.String("method", k.Method),
	)
}

func (k ClientTransactionKey) String() string {
	return strings.Join([]string{k.Branch, util.UCase(k.Method)}, "|")
}

// ServerTransactionKey is the key of a server transaction.
// It is used for matching requests to the server transaction created by
// the first request, including retransmits and the ACK for a non-2xx final.
//
//nolint:recvcheck
type ServerTransactionKey struct {
	// Branch parameter of the topmost Via header field.
	Branch string `json:"branch"`
	// Host and port of the topmost Via header field.
	SentBy string `json:"sent_by"`
	// Method of the request that created the transaction.
	// ACK requests map to the INVITE method so that the ACK for a non-2xx
	// final matches the INVITE server transaction. CANCEL keeps its own
	// method and forms a separate transaction.
	Method string `json:"method"`
}

var zeroSrvTxKey ServerTransactionKey

// FillFromRequest populates the key fields from the given request.
func (k *ServerTransactionKey) FillFromRequest(req *Request) error {
	if err := req.Validate(); err != nil {
		return errtrace.Wrap(NewInvalidArgumentError(err))
	}

	via, _ := req.Headers.FirstVia()
	if !IsRFC3261Branch(via.Branch) {
		return errtrace.Wrap(NewInvalidArgumentError("branch %q is not an RFC 3261 branch", via.Branch))
	}

	k.Branch = via.Branch
	k.SentBy = util.LCase(via.SentBy)
	k.Method = util.UCase(string(req.Method))
	if util.EqFold(k.Method, RequestMethodAck) {
		k.Method = string(RequestMethodInvite)
	}
	return nil
}

// Equal checks whether the key is equal to another key.
func (k ServerTransactionKey) Equal(val any) bool {
	var other ServerTransactionKey
	switch v := val.(type) {
	case ServerTransactionKey:
		other = v
	case *ServerTransactionKey:
		if v == nil {
			return false
		}
		other = *v
	default:
		return false
	}

	return k.Branch == other.Branch &&
		util.EqFold(k.SentBy, other.SentBy) &&
		util.EqFold(k.Method, other.Method)
}

// IsValid checks whether the key is valid.
func (k ServerTransactionKey) IsValid() bool {
	return k.Branch != "" && k.SentBy != "" && k.Method != ""
}

// IsZero checks whether the key is zero.
func (k ServerTransactionKey) IsZero() bool { return k == zeroSrvTxKey }

// LogValue returns a [slog.Value] for the key.
func (k ServerTransactionKey) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("branch", k.Branch),
		slog.String("sent_by", k.SentBy),
		slog.String("method", k.Method),
	)
}

func (k ServerTransactionKey) String() string {
	return strings.Join([]string{k.Branch, util.LCase(k.SentBy), util.UCase(k.Method)}, "|")
}
