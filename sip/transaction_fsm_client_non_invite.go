package sip

// nonInviteClientFSM is the transition function of a non-INVITE client
// transaction, RFC 3261 Section 17.1.2.
type nonInviteClientFSM struct {
	timings  TimingConfig
	reliable bool
}

func (f nonInviteClientFSM) start(d *clientTxData) fsmResult {
	actions := []action{sendReq(d.req)}
	if !f.reliable {
		actions = append(actions, armTimer(TimerE, f.timings.TimeE()))
	}
	actions = append(actions, armTimer(TimerF, f.timings.TimeF()))
	return nextState(TransactionStateTrying, actions...)
}

func (f nonInviteClientFSM) step(st TransactionState, ev fsmEvent, d *clientTxData) fsmResult {
	switch st {
	case TransactionStateTrying, TransactionStateProceeding:
		return f.waiting(st, ev, d)
	case TransactionStateCompleted:
		return f.completed(ev)
	default:
		return keepState()
	}
}

// waiting covers both trying and proceeding, the two states differ only in
// whether a provisional response was already passed up.
func (f nonInviteClientFSM) waiting(st TransactionState, ev fsmEvent, d *clientTxData) fsmResult {
	switch ev.kind {
	case evtResponse:
		d.lastRes = ev.res
		if ev.res.Status.IsProvisional() {
			if st == TransactionStateTrying {
				return nextState(TransactionStateProceeding, notifyRes(ev.res))
			}
			return keepState(notifyRes(ev.res))
		}
		actions := []action{cancelTimer(TimerE), cancelTimer(TimerF), notifyRes(ev.res)}
		if f.reliable {
			return stopNormal(actions...)
		}
		actions = append(actions, armTimer(TimerK, f.timings.TimeK()))
		return nextState(TransactionStateCompleted, actions...)
	case evtTimer:
		switch ev.timer.ID {
		case TimerE:
			return keepState(resendReq(d.req),
				armTimer(TimerE, doubled(ev.timer.Interval, f.timings.T2())))
		case TimerF:
			return stopShutdown(cancelTimer(TimerE), notifyErr(ErrTransactionTimedOut))
		}
	case evtTransportErr:
		return stopShutdown(cancelTimer(TimerE), cancelTimer(TimerF), notifyErr(ev.err))
	case evtTerminate:
		return stopShutdown(cancelTimer(TimerE), cancelTimer(TimerF))
	}
	return keepState()
}

// completed only absorbs response retransmits until timer K fires.
func (f nonInviteClientFSM) completed(ev fsmEvent) fsmResult {
	switch ev.kind {
	case evtTimer:
		if ev.timer.ID == TimerK {
			return stopNormal()
		}
	case evtTransportErr:
		return stopShutdown(cancelTimer(TimerK), notifyErr(ev.err))
	case evtTerminate:
		return stopShutdown(cancelTimer(TimerK))
	}
	return keepState()
}
