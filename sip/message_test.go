package sip_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-siptx/siptx/sip"
)

func TestRequest_Validate(t *testing.T) {
	t.Parallel()

	if err := newInviteReq(t, "").Validate(); err != nil {
		t.Fatalf("valid request: Validate() error = %v, want nil", err)
	}

	for _, tc := range []struct {
		name   string
		mutate func(req *sip.Request)
	}{
		{"missing method", func(req *sip.Request) { req.Method = "" }},
		{"missing URI", func(req *sip.Request) { req.URI = "" }},
		{"missing via", func(req *sip.Request) { req.Headers.Via = nil }},
		{"missing branch", func(req *sip.Request) { req.Headers.Via[0].Branch = "" }},
		{"missing call id", func(req *sip.Request) { req.Headers.CallID = "" }},
		{"zero cseq", func(req *sip.Request) { req.Headers.CSeq.SeqNum = 0 }},
		{"cseq method mismatch", func(req *sip.Request) { req.Headers.CSeq.Method = sip.RequestMethodBye }},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := newInviteReq(t, "")
			tc.mutate(req)
			if err := req.Validate(); !errors.Is(err, sip.ErrInvalidMessage) {
				t.Fatalf("Validate() error = %v, want %v", err, sip.ErrInvalidMessage)
			}
		})
	}
}

func TestRequest_NewResponse(t *testing.T) {
	t.Parallel()

	req := newInviteReq(t, "z9hG4bK776asdhds")

	res, err := req.NewResponse(sip.ResponseStatusRinging, "")
	if err != nil {
		t.Fatalf("req.NewResponse() error = %v, want nil", err)
	}
	if got, want := res.Reason, "Ringing"; got != want {
		t.Fatalf("res.Reason = %q, want %q", got, want)
	}
	if diff := cmp.Diff(req.Headers.Via, res.Headers.Via); diff != "" {
		t.Fatalf("Via mismatch (-req +res):\n%s", diff)
	}
	if res.Headers.CallID != req.Headers.CallID {
		t.Fatalf("res.CallID = %q, want %q", res.Headers.CallID, req.Headers.CallID)
	}
	if res.Headers.CSeq != req.Headers.CSeq {
		t.Fatalf("res.CSeq = %v, want %v", res.Headers.CSeq, req.Headers.CSeq)
	}

	// custom reason phrase is kept
	res, err = req.NewResponse(sip.ResponseStatusBusyHere, "Go Away")
	if err != nil {
		t.Fatalf("req.NewResponse() error = %v, want nil", err)
	}
	if got, want := res.Reason, "Go Away"; got != want {
		t.Fatalf("res.Reason = %q, want %q", got, want)
	}

	// ACK requests are never answered
	ack := req.Clone()
	ack.Method = sip.RequestMethodAck
	ack.Headers.CSeq.Method = sip.RequestMethodAck
	if _, err := ack.NewResponse(sip.ResponseStatusOK, ""); !errors.Is(err, sip.ErrMethodNotAllowed) {
		t.Fatalf("ack.NewResponse() error = %v, want %v", err, sip.ErrMethodNotAllowed)
	}
}

func TestNewAckRequest(t *testing.T) {
	t.Parallel()

	invite := newInviteReq(t, "z9hG4bK776asdhds")
	invite.Headers.Route = []string{"<sip:proxy1.voip.com;lr>", "<sip:proxy2.voip.com;lr>"}
	res := newRes(t, invite, sip.ResponseStatusBadRequest)

	ack := sip.NewAckRequest(invite, res)
	if got, want := ack.Method, sip.RequestMethodAck; !got.Equal(want) {
		t.Fatalf("ack.Method = %q, want %q", got, want)
	}
	if got, want := ack.URI, invite.URI; got != want {
		t.Fatalf("ack.URI = %q, want %q", got, want)
	}
	if got, want := ack.Headers.CSeq, (sip.CSeq{SeqNum: 1, Method: sip.RequestMethodAck}); got != want {
		t.Fatalf("ack.CSeq = %v, want %v", got, want)
	}
	if got, want := ack.Headers.From, invite.Headers.From; got != want {
		t.Fatalf("ack.From = %v, want %v", got, want)
	}
	if got, want := ack.Headers.To, res.Headers.To; got != want {
		t.Fatalf("ack.To = %v, want %v", got, want)
	}
	if got, want := ack.Headers.CallID, invite.Headers.CallID; got != want {
		t.Fatalf("ack.CallID = %q, want %q", got, want)
	}
	if len(ack.Headers.Via) != 1 || ack.Headers.Via[0] != invite.Headers.Via[0] {
		t.Fatalf("ack.Via = %v, want topmost INVITE Via", ack.Headers.Via)
	}
	if diff := cmp.Diff(invite.Headers.Route, ack.Headers.Route); diff != "" {
		t.Fatalf("Route mismatch (-invite +ack):\n%s", diff)
	}
	if err := ack.Validate(); err != nil {
		t.Fatalf("ack.Validate() error = %v, want nil", err)
	}

	// deterministic: same inputs, same ACK
	again := sip.NewAckRequest(invite, res)
	if diff := cmp.Diff(ack, again); diff != "" {
		t.Fatalf("ACK synthesis is not deterministic (-first +second):\n%s", diff)
	}
}

func TestGenerateBranch(t *testing.T) {
	t.Parallel()

	b1, b2 := sip.GenerateBranch(), sip.GenerateBranch()
	if b1 == b2 {
		t.Fatal("generated branches must be unique")
	}
	if !sip.IsRFC3261Branch(b1) {
		t.Fatalf("generated branch %q must carry the magic cookie", b1)
	}
	if sip.IsRFC3261Branch("old-branch") {
		t.Fatal("branch without magic cookie reported as RFC 3261")
	}
}
