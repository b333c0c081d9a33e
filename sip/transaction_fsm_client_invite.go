package sip

// inviteClientFSM is the transition function of an INVITE client transaction,
// RFC 3261 Section 17.1.1.
type inviteClientFSM struct {
	timings  TimingConfig
	reliable bool
}

func (f inviteClientFSM) start(d *clientTxData) fsmResult {
	actions := []action{sendReq(d.req)}
	if !f.reliable {
		actions = append(actions, armTimer(TimerA, f.timings.TimeA()))
	}
	actions = append(actions, armTimer(TimerB, f.timings.TimeB()))
	return nextState(TransactionStateCalling, actions...)
}

func (f inviteClientFSM) step(st TransactionState, ev fsmEvent, d *clientTxData) fsmResult {
	switch st {
	case TransactionStateCalling:
		return f.calling(ev, d)
	case TransactionStateProceeding:
		return f.proceeding(ev, d)
	case TransactionStateCompleted:
		return f.completed(ev, d)
	default:
		return keepState()
	}
}

func (f inviteClientFSM) calling(ev fsmEvent, d *clientTxData) fsmResult {
	switch ev.kind {
	case evtResponse:
		d.lastRes = ev.res
		switch ev.res.Status.Class() {
		case ResponseClassProvisional:
			return nextState(TransactionStateProceeding,
				cancelTimer(TimerA), cancelTimer(TimerB), notifyRes(ev.res))
		case ResponseClassSuccess:
			return stopNormal(cancelTimer(TimerA), cancelTimer(TimerB), notifyRes(ev.res))
		default:
			return f.enterCompleted(d, cancelTimer(TimerA), cancelTimer(TimerB))
		}
	case evtTimer:
		switch ev.timer.ID {
		case TimerA:
			return keepState(resendReq(d.req),
				armTimer(TimerA, doubled(ev.timer.Interval, f.timings.TimeB())))
		case TimerB:
			return stopShutdown(cancelTimer(TimerA), notifyErr(ErrTransactionTimedOut))
		}
	case evtTransportErr:
		return stopShutdown(cancelTimer(TimerA), cancelTimer(TimerB), notifyErr(ev.err))
	case evtTerminate:
		return stopShutdown(cancelTimer(TimerA), cancelTimer(TimerB))
	}
	return keepState()
}

func (f inviteClientFSM) proceeding(ev fsmEvent, d *clientTxData) fsmResult {
	switch ev.kind {
	case evtResponse:
		d.lastRes = ev.res
		switch ev.res.Status.Class() {
		case ResponseClassProvisional:
			return keepState(notifyRes(ev.res))
		case ResponseClassSuccess:
			return stopNormal(notifyRes(ev.res))
		default:
			return f.enterCompleted(d)
		}
	case evtTransportErr:
		return stopShutdown(notifyErr(ev.err))
	case evtTerminate:
		return stopShutdown()
	}
	return keepState()
}

// enterCompleted handles a non-2xx final response. The ACK is built once
// and resent verbatim for every further final response retransmit.
func (f inviteClientFSM) enterCompleted(d *clientTxData, actions ...action) fsmResult {
	if d.ack == nil {
		d.ack = NewAckRequest(d.req, d.lastRes)
	}
	actions = append(actions, notifyRes(d.lastRes), sendReq(d.ack))
	if f.reliable {
		return stopNormal(actions...)
	}
	actions = append(actions, armTimer(TimerD, f.timings.TimeD()))
	return nextState(TransactionStateCompleted, actions...)
}

func (f inviteClientFSM) completed(ev fsmEvent, d *clientTxData) fsmResult {
	switch ev.kind {
	case evtResponse:
		if ev.res.Status.IsFinal() {
			return keepState(resendReq(d.ack))
		}
	case evtTimer:
		if ev.timer.ID == TimerD {
			return stopNormal()
		}
	case evtTransportErr:
		return stopShutdown(cancelTimer(TimerD), notifyErr(ev.err))
	case evtTerminate:
		return stopShutdown(cancelTimer(TimerD))
	}
	return keepState()
}
