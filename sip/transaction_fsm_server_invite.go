package sip

// inviteServerFSM is the transition function of an INVITE server transaction,
// RFC 3261 Section 17.2.1.
type inviteServerFSM struct {
	timings  TimingConfig
	reliable bool
}

func (f inviteServerFSM) start(d *serverTxData) fsmResult {
	return nextState(TransactionStateProceeding,
		notifyReq(d.req), armTimer(Timer1xx, f.timings.Time100()))
}

func (f inviteServerFSM) step(st TransactionState, ev fsmEvent, d *serverTxData) fsmResult {
	switch st {
	case TransactionStateProceeding:
		return f.proceeding(ev, d)
	case TransactionStateCompleted:
		return f.completed(ev, d)
	case TransactionStateConfirmed:
		return f.confirmed(ev)
	default:
		return keepState()
	}
}

func (f inviteServerFSM) proceeding(ev fsmEvent, d *serverTxData) fsmResult {
	switch ev.kind {
	case evtRequest:
		// INVITE retransmit, resend the last provisional if any.
		if d.lastRes != nil {
			return keepState(resendRes(d.lastRes))
		}
		return keepState()
	case evtRespond:
		d.lastRes = ev.res
		switch ev.res.Status.Class() {
		case ResponseClassProvisional:
			return keepState(sendRes(ev.res))
		case ResponseClassSuccess:
			return stopNormal(cancelTimer(Timer1xx), sendRes(ev.res))
		default:
			actions := []action{cancelTimer(Timer1xx), sendRes(ev.res)}
			if !f.reliable {
				actions = append(actions, armTimer(TimerG, f.timings.TimeG()))
			}
			actions = append(actions, armTimer(TimerH, f.timings.TimeH()))
			return nextState(TransactionStateCompleted, actions...)
		}
	case evtTimer:
		if ev.timer.ID == Timer1xx && d.lastRes == nil {
			res, err := d.req.NewResponse(ResponseStatusTrying, "")
			if err != nil {
				return keepState()
			}
			d.lastRes = res
			return keepState(sendRes(res))
		}
	case evtTransportErr:
		return stopShutdown(cancelTimer(Timer1xx), notifyErr(ev.err))
	case evtTerminate:
		return stopShutdown(cancelTimer(Timer1xx))
	}
	return keepState()
}

func (f inviteServerFSM) completed(ev fsmEvent, d *serverTxData) fsmResult {
	switch ev.kind {
	case evtRequest:
		return keepState(resendRes(d.lastRes))
	case evtAck:
		if f.reliable {
			return stopNormal(cancelTimer(TimerG), cancelTimer(TimerH))
		}
		return nextState(TransactionStateConfirmed,
			cancelTimer(TimerG), cancelTimer(TimerH), armTimer(TimerI, f.timings.TimeI()))
	case evtTimer:
		switch ev.timer.ID {
		case TimerG:
			return keepState(resendRes(d.lastRes),
				armTimer(TimerG, doubled(ev.timer.Interval, f.timings.T2())))
		case TimerH:
			return stopShutdown(cancelTimer(TimerG), notifyErr(ErrTransactionTimedOut))
		}
	case evtTransportErr:
		return stopShutdown(cancelTimer(TimerG), cancelTimer(TimerH), notifyErr(ev.err))
	case evtTerminate:
		return stopShutdown(cancelTimer(TimerG), cancelTimer(TimerH))
	}
	return keepState()
}

// confirmed absorbs ACK retransmits until timer I fires.
func (f inviteServerFSM) confirmed(ev fsmEvent) fsmResult {
	switch ev.kind {
	case evtTimer:
		if ev.timer.ID == TimerI {
			return stopNormal()
		}
	case evtTransportErr:
		return stopShutdown(cancelTimer(TimerI), notifyErr(ev.err))
	case evtTerminate:
		return stopShutdown(cancelTimer(TimerI))
	}
	return keepState()
}
