package sip

import "slices"

// NewAckRequest builds the ACK for a non-2xx final response received by an
// INVITE client transaction, RFC 3261 Section 17.1.1.3.
//
// The ACK targets the original Request-URI, reuses the INVITE topmost Via
// with the same branch, copies From, Call-ID and Route verbatim and takes
// the To header field from the response so the peer assigned tag is
// acknowledged. The CSeq keeps the INVITE sequence number with the method
// set to ACK. The function is pure, the same inputs always produce the
// same ACK.
func NewAckRequest(invite *Request, res *Response) *Request {
	hdrs := Headers{
		From:        invite.Headers.From,
		To:          res.Headers.To,
		CallID:      invite.Headers.CallID,
		CSeq:        CSeq{SeqNum: invite.Headers.CSeq.SeqNum, Method: RequestMethodAck},
		Route:       slices.Clone(invite.Headers.Route),
		MaxForwards: 70,
	}
	if via, ok := invite.Headers.FirstVia(); ok {
		hdrs.Via = []Via{via}
	}
	return &Request{
		Method:  RequestMethodAck,
		URI:     invite.URI,
		Headers: hdrs,
	}
}
