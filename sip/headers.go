package sip

import (
	"log/slog"
	"slices"
)

// Via represents a single Via header field value.
type Via struct {
	// Transport is the transport token, e.g. "UDP" or "TCP".
	Transport string `json:"transport"`
	// SentBy is the host[:port] the message was sent from.
	SentBy string `json:"sent_by"`
	// Branch is the branch parameter scoping the transaction.
	Branch string `json:"branch"`
}

func (v Via) IsZero() bool { return v == Via{} }

// LogValue implements [slog.LogValuer].
func (v Via) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("transport", v.Transport),
		slog.String("sent_by", v.SentBy),
		slog.String("branch", v.Branch),
	)
}

// CSeq represents a CSeq header field.
type CSeq struct {
	SeqNum uint32        `json:"seq_num"`
	Method RequestMethod `json:"method"`
}

func (c CSeq) IsZero() bool { return c == CSeq{} }

// NameAddr represents a From or To header field.
type NameAddr struct {
	DisplayName string `json:"display_name,omitempty"`
	URI         string `json:"uri"`
	// Tag is the tag parameter, empty until the dialog peer assigns one.
	Tag string `json:"tag,omitempty"`
}

func (a NameAddr) IsZero() bool { return a == NameAddr{} }

// Headers carries the header fields the transaction layer inspects or copies.
// Any further header fields of a message stay behind the parser/transport
// boundary and are opaque to this layer.
type Headers struct {
	// Via holds the Via header field values, topmost first.
	Via         []Via         `json:"via"`
	From        NameAddr      `json:"from"`
	To          NameAddr      `json:"to"`
	CallID      string        `json:"call_id"`
	CSeq        CSeq          `json:"cseq"`
	Route       []string      `json:"route,omitempty"`
	MaxForwards uint          `json:"max_forwards,omitempty"`
}

// FirstVia returns the topmost Via value.
func (h Headers) FirstVia() (Via, bool) {
	if len(h.Via) == 0 {
		return Via{}, false
	}
	return h.Via[0], true
}

// Clone returns a deep copy of the headers.
func (h Headers) Clone() Headers {
	h.Via = slices.Clone(h.Via)
	h.Route = slices.Clone(h.Route)
	return h
}
