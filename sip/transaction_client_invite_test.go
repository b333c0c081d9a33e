package sip_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-siptx/siptx/sip"
)

func TestInviteClientTransaction_Rejected(t *testing.T) {
	t.Parallel()

	// Use a slightly bigger T1 so timer A does not fire before we inject responses on slower/-race runs.
	t1 := 20 * time.Millisecond
	timings := sip.NewTimings(t1, 8*t1, 10*t1, 64*t1, time.Minute)

	tp := newStubTransport(false)
	tu := newRecordTU()

	req := newInviteReq(t, "z9hG4bK776asdhds")
	tx, err := sip.NewInviteClientTransaction(context.Background(), req, tp, &sip.ClientTransactionOptions{
		Timings: timings,
		TU:      tu,
	})
	if err != nil {
		t.Fatalf("sip.NewInviteClientTransaction() error = %v, want nil", err)
	}

	call := tp.waitSendReq(t, 100*time.Millisecond)
	if call.req.Method != sip.RequestMethodInvite {
		t.Fatalf("initial send method = %q, want %q", call.req.Method, sip.RequestMethodInvite)
	}
	if got, want := tx.State(), sip.TransactionStateCalling; got != want {
		t.Fatalf("tx.State() = %q, want %q", got, want)
	}

	ctx := context.Background()

	if err := tx.RecvResponse(ctx, newRes(t, req, sip.ResponseStatusTrying)); err != nil {
		t.Fatalf("tx.RecvResponse(ctx, 100) error = %v, want nil", err)
	}
	if got, want := tx.State(), sip.TransactionStateProceeding; got != want {
		t.Fatalf("tx.State() = %q, want %q", got, want)
	}
	assertResponseStatus(t, tu.resCh, sip.ResponseStatusTrying)
	tp.drainSendReqs()

	rejected := newRes(t, req, sip.ResponseStatusBadRequest)
	if err := tx.RecvResponse(ctx, rejected); err != nil {
		t.Fatalf("tx.RecvResponse(ctx, 400) error = %v, want nil", err)
	}
	if got, want := tx.State(), sip.TransactionStateCompleted; got != want {
		t.Fatalf("tx.State() = %q, want %q", got, want)
	}
	assertResponseStatus(t, tu.resCh, sip.ResponseStatusBadRequest)

	ackCall := tp.waitSendReq(t, 100*time.Millisecond)
	if ackCall.req.Method != sip.RequestMethodAck {
		t.Fatalf("ACK send method = %q, want %q", ackCall.req.Method, sip.RequestMethodAck)
	}
	if got, want := ackCall.req.Headers.CSeq.Method, sip.RequestMethodAck; !got.Equal(want) {
		t.Fatalf("ACK CSeq method = %q, want %q", got, want)
	}
	if got, want := ackCall.req.Headers.To.Tag, rejected.Headers.To.Tag; got != want {
		t.Fatalf("ACK To tag = %q, want %q", got, want)
	}

	// final response retransmit resends the exact cached ACK
	if err := tx.RecvResponse(ctx, rejected); err != nil {
		t.Fatalf("tx.RecvResponse(ctx, 400 repeat) error = %v, want nil", err)
	}
	retransAck := tp.waitSendReq(t, 100*time.Millisecond)
	if retransAck.req != ackCall.req {
		t.Fatal("retransmitted ACK is not the cached ACK")
	}

	waitForTransactState(t, tx, sip.TransactionStateTerminated, timings.TimeD()+100*time.Millisecond)
	if got, want := tx.StopReason(), sip.StopReasonNormal; got != want {
		t.Fatalf("tx.StopReason() = %q, want %q", got, want)
	}

	tp.ensureNoSendReq(t, 50*time.Millisecond)
	select {
	case call := <-tu.errCh:
		t.Fatalf("unexpected transaction error: %v", call.err)
	default:
	}
}

func TestInviteClientTransaction_Accepted(t *testing.T) {
	t.Parallel()

	t1 := 20 * time.Millisecond
	timings := sip.NewTimings(t1, 8*t1, 10*t1, 64*t1, time.Minute)

	tp := newStubTransport(false)
	tu := newRecordTU()

	req := newInviteReq(t, sip.MagicCookie+".client-accepted")
	tx, err := sip.NewInviteClientTransaction(context.Background(), req, tp, &sip.ClientTransactionOptions{
		Timings: timings,
		TU:      tu,
	})
	if err != nil {
		t.Fatalf("sip.NewInviteClientTransaction() error = %v, want nil", err)
	}

	tp.waitSendReq(t, 100*time.Millisecond)

	ctx := context.Background()

	if err := tx.RecvResponse(ctx, newRes(t, req, sip.ResponseStatusRinging)); err != nil {
		t.Fatalf("tx.RecvResponse(ctx, 180) error = %v, want nil", err)
	}
	assertResponseStatus(t, tu.resCh, sip.ResponseStatusRinging)
	tp.drainSendReqs()

	ok := newRes(t, req, sip.ResponseStatusOK)
	if err := tx.RecvResponse(ctx, ok); err != nil {
		t.Fatalf("tx.RecvResponse(ctx, 200) error = %v, want nil", err)
	}
	assertResponseStatus(t, tu.resCh, sip.ResponseStatusOK)

	// 2xx belongs to the dialog layer, no ACK is generated here
	waitForTransactState(t, tx, sip.TransactionStateTerminated, 100*time.Millisecond)
	if got, want := tx.StopReason(), sip.StopReasonNormal; got != want {
		t.Fatalf("tx.StopReason() = %q, want %q", got, want)
	}
	tp.ensureNoSendReq(t, 50*time.Millisecond)
}

func TestInviteClientTransaction_Retransmits(t *testing.T) {
	t.Parallel()

	t1 := 20 * time.Millisecond
	timings := sip.NewTimings(t1, 64*t1, 10*t1, 64*t1, time.Minute)

	tp := newStubTransport(false)
	tu := newRecordTU()

	req := newInviteReq(t, sip.MagicCookie+".client-retransmits")
	tx, err := sip.NewInviteClientTransaction(context.Background(), req, tp, &sip.ClientTransactionOptions{
		Timings: timings,
		TU:      tu,
	})
	if err != nil {
		t.Fatalf("sip.NewInviteClientTransaction() error = %v, want nil", err)
	}

	first := tp.waitSendReq(t, 100*time.Millisecond)
	second := tp.waitSendReq(t, 10*t1)
	if second.req != first.req {
		t.Fatal("retransmit must resend the original request")
	}

	// a provisional response stops timer A
	if err := tx.RecvResponse(context.Background(), newRes(t, req, sip.ResponseStatusRinging)); err != nil {
		t.Fatalf("tx.RecvResponse(ctx, 180) error = %v, want nil", err)
	}
	assertResponseStatus(t, tu.resCh, sip.ResponseStatusRinging)
	tp.drainSendReqs()
	tp.ensureNoSendReq(t, 10*t1)

	tx.Terminate(context.Background())
	waitForTransactState(t, tx, sip.TransactionStateTerminated, 100*time.Millisecond)
}

func TestInviteClientTransaction_Timeout(t *testing.T) {
	t.Parallel()

	t1 := 5 * time.Millisecond
	timings := sip.NewTimings(t1, 8*t1, 10*t1, 64*t1, time.Minute)

	tp := newStubTransport(true)
	tu := newRecordTU()

	req := newInviteReq(t, sip.MagicCookie+".client-timeout")
	tx, err := sip.NewInviteClientTransaction(context.Background(), req, tp, &sip.ClientTransactionOptions{
		Timings: timings,
		TU:      tu,
	})
	if err != nil {
		t.Fatalf("sip.NewInviteClientTransaction() error = %v, want nil", err)
	}

	tp.waitSendReq(t, 100*time.Millisecond)

	call := assertError(t, tu.errCh, timings.TimeB()+100*time.Millisecond)
	if !errors.Is(call.err, sip.ErrTransactionTimedOut) {
		t.Fatalf("transaction error = %v, want %v", call.err, sip.ErrTransactionTimedOut)
	}

	waitForTransactState(t, tx, sip.TransactionStateTerminated, 100*time.Millisecond)
	if got, want := tx.StopReason(), sip.StopReasonShutdown; got != want {
		t.Fatalf("tx.StopReason() = %q, want %q", got, want)
	}
}

func TestInviteClientTransaction_TransportError(t *testing.T) {
	t.Parallel()

	tp := newStubTransport(true)
	tu := newRecordTU()

	wantErr := errors.New("connection refused")
	tp.setSendReqHook(func(sendReqCall, int) error { return wantErr })

	req := newInviteReq(t, sip.MagicCookie+".client-transport-error")
	tx, err := sip.NewInviteClientTransaction(context.Background(), req, tp, &sip.ClientTransactionOptions{TU: tu})
	if err != nil {
		t.Fatalf("sip.NewInviteClientTransaction() error = %v, want nil", err)
	}

	call := assertError(t, tu.errCh, 100*time.Millisecond)
	if !errors.Is(call.err, wantErr) {
		t.Fatalf("transaction error = %v, want wrapped %v", call.err, wantErr)
	}

	waitForTransactState(t, tx, sip.TransactionStateTerminated, 100*time.Millisecond)
	if got, want := tx.StopReason(), sip.StopReasonShutdown; got != want {
		t.Fatalf("tx.StopReason() = %q, want %q", got, want)
	}
}

func TestInviteClientTransaction_InvalidMethod(t *testing.T) {
	t.Parallel()

	tp := newStubTransport(true)
	req := newNonInviteReq(t, sip.MagicCookie+".client-invalid-method")

	_, err := sip.NewInviteClientTransaction(context.Background(), req, tp, nil)
	if !errors.Is(err, sip.ErrMethodNotAllowed) {
		t.Fatalf("sip.NewInviteClientTransaction() error = %v, want %v", err, sip.ErrMethodNotAllowed)
	}
}

func TestInviteClientTransaction_TerminateIdempotent(t *testing.T) {
	t.Parallel()

	tp := newStubTransport(true)
	tu := newRecordTU()

	req := newInviteReq(t, sip.MagicCookie+".client-terminate")
	tx, err := sip.NewInviteClientTransaction(context.Background(), req, tp, &sip.ClientTransactionOptions{TU: tu})
	if err != nil {
		t.Fatalf("sip.NewInviteClientTransaction() error = %v, want nil", err)
	}
	tp.waitSendReq(t, 100*time.Millisecond)

	ctx := context.Background()
	tx.Terminate(ctx)
	tx.Terminate(ctx)

	waitForTransactState(t, tx, sip.TransactionStateTerminated, 100*time.Millisecond)
	if got, want := tx.StopReason(), sip.StopReasonShutdown; got != want {
		t.Fatalf("tx.StopReason() = %q, want %q", got, want)
	}

	if err := tx.RecvResponse(ctx, newRes(t, req, sip.ResponseStatusOK)); !errors.Is(err, sip.ErrTransactionTerminated) {
		t.Fatalf("tx.RecvResponse() after terminate error = %v, want %v", err, sip.ErrTransactionTerminated)
	}
}
