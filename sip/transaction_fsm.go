package sip

import "time"

// TimerID identifies a transaction timer from RFC 3261 Section 17.
type TimerID string

const (
	// TimerA is the INVITE request retransmit timer.
	TimerA TimerID = "A"
	// TimerB is the INVITE client transaction timeout.
	TimerB TimerID = "B"
	// TimerD waits for final response retransmits on unreliable transport.
	TimerD TimerID = "D"
	// TimerE is the non-INVITE request retransmit timer.
	TimerE TimerID = "E"
	// TimerF is the non-INVITE client transaction timeout.
	TimerF TimerID = "F"
	// TimerG is the INVITE final response retransmit timer.
	TimerG TimerID = "G"
	// TimerH is the ACK receipt timeout.
	TimerH TimerID = "H"
	// TimerI waits for ACK retransmits on unreliable transport.
	TimerI TimerID = "I"
	// TimerJ waits for request retransmits on unreliable transport.
	TimerJ TimerID = "J"
	// TimerK waits for response retransmits on unreliable transport.
	TimerK TimerID = "K"
	// Timer1xx delays the automatic 100 Trying on an INVITE server transaction.
	Timer1xx TimerID = "1xx"
)

// TimerEvent carries a timer fire into the transition function.
// Interval is the duration the timer was armed with, retransmit timers
// derive the next backoff interval from it.
type TimerEvent struct {
	ID       TimerID
	Interval time.Duration
}

type eventKind uint8

const (
	evtResponse eventKind = iota + 1
	evtRequest
	evtAck
	evtRespond
	evtTimer
	evtTransportErr
	evtTerminate
)

// fsmEvent is a single input to a transaction transition function.
type fsmEvent struct {
	kind  eventKind
	res   *Response
	req   *Request
	timer TimerEvent
	err   error
}

type actionKind uint8

const (
	actSendRequest actionKind = iota + 1
	actSendResponse
	actNotifyRequest
	actNotifyResponse
	actNotifyError
	actArmTimer
	actCancelTimer
)

// action is a single side effect ordered by a transition function.
// The transition functions never perform I/O themselves, the transaction
// runner executes the returned actions in order.
type action struct {
	kind  actionKind
	req   *Request
	res   *Response
	err   error
	timer TimerEvent
	// retrans marks resends of an already passed message.
	retrans bool
}

func sendReq(req *Request) action { return action{kind: actSendRequest, req: req} }

func resendReq(req *Request) action { return action{kind: actSendRequest, req: req, retrans: true} }

func sendRes(res *Response) action { return action{kind: actSendResponse, res: res} }

func resendRes(res *Response) action { return action{kind: actSendResponse, res: res, retrans: true} }

func notifyReq(req *Request) action { return action{kind: actNotifyRequest, req: req} }

func notifyRes(res *Response) action { return action{kind: actNotifyResponse, res: res} }

func notifyErr(err error) action { return action{kind: actNotifyError, err: err} }

func armTimer(id TimerID, d time.Duration) action {
	return action{kind: actArmTimer, timer: TimerEvent{ID: id, Interval: d}}
}

func cancelTimer(id TimerID) action {
	return action{kind: actCancelTimer, timer: TimerEvent{ID: id}}
}

// fsmResult is the outcome of a single transition.
type fsmResult struct {
	next    TransactionState
	actions []action
	stop    bool
	reason  StopReason
}

func keepState(actions ...action) fsmResult {
	return fsmResult{actions: actions}
}

func nextState(st TransactionState, actions ...action) fsmResult {
	return fsmResult{next: st, actions: actions}
}

func stopNormal(actions ...action) fsmResult {
	return fsmResult{next: TransactionStateTerminated, actions: actions, stop: true, reason: StopReasonNormal}
}

func stopShutdown(actions ...action) fsmResult {
	return fsmResult{next: TransactionStateTerminated, actions: actions, stop: true, reason: StopReasonShutdown}
}

// doubled returns the next retransmit interval, twice the previous one
// capped at lim.
func doubled(v, lim time.Duration) time.Duration {
	if v *= 2; v > lim {
		return lim
	}
	return v
}

// clientTxData is the mutable state shared by client transition functions.
type clientTxData struct {
	req     *Request
	lastRes *Response
	// ack is built once on the first non-2xx final and resent verbatim after.
	ack *Request
}

// serverTxData is the mutable state shared by server transition functions.
type serverTxData struct {
	req     *Request
	lastRes *Response
}
