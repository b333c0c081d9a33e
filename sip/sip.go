// Package sip implements the SIP transaction layer defined in RFC 3261
// section 17: the four per-transaction state machines (INVITE and non-INVITE,
// client and server side), their retransmission and timeout timers, ACK
// generation for non-2xx final responses and the matching of inbound messages
// to running transactions.
//
// The state machines are pure transition tables. Every transition returns an
// ordered list of actions (send, notify the transaction user, arm or cancel a
// timer) that the per-transaction runner executes against the [Transport] and
// [TransactionUser] capabilities. Message parsing, serialization and the
// socket layer are out of scope and are expected to live behind the
// [Transport] implementation.
package sip

import (
	"strings"

	"github.com/google/uuid"
)

// MagicCookie is the RFC 3261 branch prefix that marks a branch parameter as
// globally unique.
const MagicCookie = "z9hG4bK"

// GenerateBranch returns a new unique branch parameter prefixed with
// [MagicCookie].
func GenerateBranch() string {
	return MagicCookie + "." + uuid.NewString()
}

// GenerateCallID returns a new unique Call-ID value.
func GenerateCallID() string {
	return uuid.NewString()
}

// IsRFC3261Branch reports whether the branch parameter carries the RFC 3261
// magic cookie.
func IsRFC3261Branch(branch string) bool {
	return strings.HasPrefix(branch, MagicCookie)
}
