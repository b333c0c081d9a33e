package sip_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-siptx/siptx/sip"
)

// sendReqCall captures a request send call for testing.
type sendReqCall struct {
	req *sip.Request
}

// sendResCall captures a response send call for testing.
type sendResCall struct {
	res *sip.Response
}

// stubTransport is a test stub implementing sip.Transport.
type stubTransport struct {
	rel bool

	mu       sync.Mutex
	sentReqs []sendReqCall
	sentRess []sendResCall

	sendReqCh   chan sendReqCall
	sendResCh   chan sendResCall
	sendReqHook func(call sendReqCall, index int) error
	sendResHook func(call sendResCall, index int) error
}

func newStubTransport(rel bool) *stubTransport {
	return &stubTransport{
		rel:       rel,
		sendReqCh: make(chan sendReqCall, 16),
		sendResCh: make(chan sendResCall, 16),
	}
}

func (st *stubTransport) Reliable() bool { return st.rel }

func (st *stubTransport) SendRequest(_ context.Context, req *sip.Request) error {
	call := sendReqCall{req: req}

	st.mu.Lock()
	st.sentReqs = append(st.sentReqs, call)
	idx := len(st.sentReqs) - 1
	hook := st.sendReqHook
	st.mu.Unlock()

	if hook != nil {
		if err := hook(call, idx); err != nil {
			return err
		}
	}

	st.sendReqCh <- call
	return nil
}

func (st *stubTransport) SendResponse(_ context.Context, res *sip.Response) error {
	call := sendResCall{res: res}

	st.mu.Lock()
	st.sentRess = append(st.sentRess, call)
	idx := len(st.sentRess) - 1
	hook := st.sendResHook
	st.mu.Unlock()

	if hook != nil {
		if err := hook(call, idx); err != nil {
			return err
		}
	}

	st.sendResCh <- call
	return nil
}

func (st *stubTransport) setSendReqHook(fn func(sendReqCall, int) error) {
	st.mu.Lock()
	st.sendReqHook = fn
	st.mu.Unlock()
}

func (st *stubTransport) setSendResHook(fn func(sendResCall, int) error) {
	st.mu.Lock()
	st.sendResHook = fn
	st.mu.Unlock()
}

func (st *stubTransport) requestCount() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sentReqs)
}

func (st *stubTransport) responseCount() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sentRess)
}

// waitSendReq waits for a request to be sent and returns it.
func (st *stubTransport) waitSendReq(tb testing.TB, timeout time.Duration) sendReqCall {
	tb.Helper()
	select {
	case call := <-st.sendReqCh:
		return call
	case <-time.After(timeout):
		tb.Fatalf("expected request send within %v", timeout)
		return sendReqCall{}
	}
}

// waitSendRes waits for a response to be sent and returns it.
func (st *stubTransport) waitSendRes(tb testing.TB, timeout time.Duration) sendResCall {
	tb.Helper()
	select {
	case call := <-st.sendResCh:
		return call
	case <-time.After(timeout):
		tb.Fatalf("expected response send within %v", timeout)
		return sendResCall{}
	}
}

// ensureNoSendReq asserts no request is sent within timeout.
func (st *stubTransport) ensureNoSendReq(tb testing.TB, timeout time.Duration) {
	tb.Helper()
	select {
	case call := <-st.sendReqCh:
		tb.Fatalf("unexpected send: method %v", call.req.Method)
	case <-time.After(timeout):
	}
}

// ensureNoSendRes asserts no response is sent within timeout.
func (st *stubTransport) ensureNoSendRes(tb testing.TB, timeout time.Duration) {
	tb.Helper()
	select {
	case call := <-st.sendResCh:
		tb.Fatalf("unexpected send: status %v", call.res.Status)
	case <-time.After(timeout):
	}
}

// drainSendReqs drains all pending request sends from the channel.
func (st *stubTransport) drainSendReqs() {
	for {
		select {
		case <-st.sendReqCh:
		default:
			return
		}
	}
}

// drainSendRess drains all pending response sends from the channel.
func (st *stubTransport) drainSendRess() {
	for {
		select {
		case <-st.sendResCh:
		default:
			return
		}
	}
}

// srvReqCall captures an OnRequest delivery for testing.
type srvReqCall struct {
	tx  sip.ServerTransaction
	req *sip.Request
}

// clnResCall captures an OnResponse delivery for testing.
type clnResCall struct {
	tx  sip.ClientTransaction
	res *sip.Response
}

// errCall captures an OnError delivery for testing.
type errCall struct {
	tx  sip.Transaction
	err error
}

// recordTU is a sip.TransactionUser recording all deliveries.
type recordTU struct {
	reqCh chan srvReqCall
	resCh chan clnResCall
	errCh chan errCall
}

func newRecordTU() *recordTU {
	return &recordTU{
		reqCh: make(chan srvReqCall, 16),
		resCh: make(chan clnResCall, 16),
		errCh: make(chan errCall, 16),
	}
}

func (tu *recordTU) OnRequest(_ context.Context, tx sip.ServerTransaction, req *sip.Request) {
	tu.reqCh <- srvReqCall{tx: tx, req: req}
}

func (tu *recordTU) OnResponse(_ context.Context, tx sip.ClientTransaction, res *sip.Response) {
	tu.resCh <- clnResCall{tx: tx, res: res}
}

func (tu *recordTU) OnError(_ context.Context, tx sip.Transaction, err error) {
	tu.errCh <- errCall{tx: tx, err: err}
}

// inlineTU calls the configured hooks synchronously.
type inlineTU struct {
	onRequest  func(tx sip.ServerTransaction, req *sip.Request)
	onResponse func(tx sip.ClientTransaction, res *sip.Response)
	onError    func(tx sip.Transaction, err error)
}

func (tu inlineTU) OnRequest(_ context.Context, tx sip.ServerTransaction, req *sip.Request) {
	if tu.onRequest != nil {
		tu.onRequest(tx, req)
	}
}

func (tu inlineTU) OnResponse(_ context.Context, tx sip.ClientTransaction, res *sip.Response) {
	if tu.onResponse != nil {
		tu.onResponse(tx, res)
	}
}

func (tu inlineTU) OnError(_ context.Context, tx sip.Transaction, err error) {
	if tu.onError != nil {
		tu.onError(tx, err)
	}
}

func assertResponseStatus(tb testing.TB, resCh <-chan clnResCall, want sip.ResponseStatus) {
	tb.Helper()

	select {
	case call := <-resCh:
		if call.res.Status != want {
			tb.Fatalf("response status = %v, want %v", call.res.Status, want)
		}
	case <-time.After(100 * time.Millisecond):
		tb.Fatalf("expected response with status %v", want)
	}
}

func assertError(tb testing.TB, errCh <-chan errCall, timeout time.Duration) errCall {
	tb.Helper()

	select {
	case call := <-errCh:
		return call
	case <-time.After(timeout):
		tb.Fatalf("expected transaction error within %v", timeout)
		return errCall{}
	}
}

func newInviteReq(tb testing.TB, branch string) *sip.Request {
	tb.Helper()

	if branch == "" {
		branch = sip.MagicCookie + ".stub-branch"
	}
	return &sip.Request{
		Method: sip.RequestMethodInvite,
		URI:    "sip:alice@alice.voip.com",
		Headers: sip.Headers{
			Via: []sip.Via{{
				Transport: "UDP",
				SentBy:    "bob.voip.com:5060",
				Branch:    branch,
			}},
			From:        sip.NameAddr{URI: "sip:bob@bob.voip.com", Tag: "from-1234"},
			To:          sip.NameAddr{URI: "sip:alice@alice.voip.com"},
			CallID:      "call-1234@bob.voip.com",
			CSeq:        sip.CSeq{SeqNum: 1, Method: sip.RequestMethodInvite},
			MaxForwards: 70,
		},
	}
}

func newNonInviteReq(tb testing.TB, branch string) *sip.Request {
	tb.Helper()

	req := newInviteReq(tb, branch)
	req.Method = sip.RequestMethodInfo
	req.Headers.CSeq.Method = sip.RequestMethodInfo
	return req
}

func newRes(tb testing.TB, req *sip.Request, sts sip.ResponseStatus) *sip.Response {
	tb.Helper()

	res, err := req.NewResponse(sts, "")
	if err != nil {
		tb.Fatalf("failed to create response: %v", err)
	}
	if sts.IsFinal() {
		res.Headers.To.Tag = "to-5678"
	}
	return res
}

// newPeerAck builds the ACK a remote peer sends for a non-2xx final response.
func newPeerAck(tb testing.TB, invite *sip.Request, res *sip.Response) *sip.Request {
	tb.Helper()

	ack := invite.Clone()
	ack.Method = sip.RequestMethodAck
	ack.Headers.CSeq.Method = sip.RequestMethodAck
	ack.Headers.To = res.Headers.To
	return ack
}

//nolint:unparam
func waitForTransactState(tb testing.TB, tx sip.Transaction, want sip.TransactionState, timeout time.Duration) {
	tb.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if tx.State() == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	tb.Fatalf("transaction state did not reach %q, got %q", want, tx.State())
}
