package sip

// nonInviteServerFSM is the transition function of a non-INVITE server
// transaction, RFC 3261 Section 17.2.2.
type nonInviteServerFSM struct {
	timings  TimingConfig
	reliable bool
}

func (f nonInviteServerFSM) start(d *serverTxData) fsmResult {
	return nextState(TransactionStateTrying, notifyReq(d.req))
}

func (f nonInviteServerFSM) step(st TransactionState, ev fsmEvent, d *serverTxData) fsmResult {
	switch st {
	case TransactionStateTrying:
		return f.trying(ev, d)
	case TransactionStateProceeding:
		return f.proceeding(ev, d)
	case TransactionStateCompleted:
		return f.completed(ev, d)
	default:
		return keepState()
	}
}

func (f nonInviteServerFSM) trying(ev fsmEvent, d *serverTxData) fsmResult {
	switch ev.kind {
	case evtRequest:
		// Retransmit before any response was produced, discarded.
		return keepState()
	case evtRespond:
		d.lastRes = ev.res
		if ev.res.Status.IsProvisional() {
			return nextState(TransactionStateProceeding, sendRes(ev.res))
		}
		return f.enterCompleted(ev.res)
	case evtTransportErr:
		return stopShutdown(notifyErr(ev.err))
	case evtTerminate:
		return stopShutdown()
	}
	return keepState()
}

func (f nonInviteServerFSM) proceeding(ev fsmEvent, d *serverTxData) fsmResult {
	switch ev.kind {
	case evtRequest:
		return keepState(resendRes(d.lastRes))
	case evtRespond:
		d.lastRes = ev.res
		if ev.res.Status.IsProvisional() {
			return keepState(sendRes(ev.res))
		}
		return f.enterCompleted(ev.res)
	case evtTransportErr:
		return stopShutdown(notifyErr(ev.err))
	case evtTerminate:
		return stopShutdown()
	}
	return keepState()
}

func (f nonInviteServerFSM) enterCompleted(res *Response) fsmResult {
	if f.reliable {
		return stopNormal(sendRes(res))
	}
	return nextState(TransactionStateCompleted,
		sendRes(res), armTimer(TimerJ, f.timings.TimeJ()))
}

// completed absorbs request retransmits by resending the final response
// until timer J fires.
func (f nonInviteServerFSM) completed(ev fsmEvent, d *serverTxData) fsmResult {
	switch ev.kind {
	case evtRequest:
		return keepState(resendRes(d.lastRes))
	case evtTimer:
		if ev.timer.ID == TimerJ {
			return stopNormal()
		}
	case evtTransportErr:
		return stopShutdown(cancelTimer(TimerJ), notifyErr(ev.err))
	case evtTerminate:
		return stopShutdown(cancelTimer(TimerJ))
	}
	return keepState()
}
