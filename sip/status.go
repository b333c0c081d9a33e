package sip

import "fmt"

const (
	ResponseStatusTrying          ResponseStatus = 100
	ResponseStatusRinging         ResponseStatus = 180
	ResponseStatusSessionProgress ResponseStatus = 183

	ResponseStatusOK       ResponseStatus = 200
	ResponseStatusAccepted ResponseStatus = 202

	ResponseStatusMovedPermanently ResponseStatus = 301
	ResponseStatusMovedTemporarily ResponseStatus = 302

	ResponseStatusBadRequest                  ResponseStatus = 400
	ResponseStatusUnauthorized                ResponseStatus = 401
	ResponseStatusForbidden                   ResponseStatus = 403
	ResponseStatusNotFound                    ResponseStatus = 404
	ResponseStatusMethodNotAllowed            ResponseStatus = 405
	ResponseStatusRequestTimeout              ResponseStatus = 408
	ResponseStatusTemporarilyUnavailable      ResponseStatus = 480
	ResponseStatusCallTransactionDoesNotExist ResponseStatus = 481
	ResponseStatusBusyHere                    ResponseStatus = 486
	ResponseStatusRequestTerminated           ResponseStatus = 487

	ResponseStatusServerInternalError ResponseStatus = 500
	ResponseStatusNotImplemented      ResponseStatus = 501
	ResponseStatusServiceUnavailable  ResponseStatus = 503

	ResponseStatusBusyEverywhere ResponseStatus = 600
	ResponseStatusDecline        ResponseStatus = 603
)

// ResponseStatus is a SIP response status code.
type ResponseStatus uint

func (s ResponseStatus) IsValid() bool { return s >= 100 && s < 700 }

func (s ResponseStatus) IsProvisional() bool { return s >= 100 && s < 200 }

func (s ResponseStatus) IsSuccessful() bool { return s >= 200 && s < 300 }

func (s ResponseStatus) IsFinal() bool { return s >= 200 && s < 700 }

func (s ResponseStatus) String() string { return fmt.Sprintf("%d", uint(s)) }

// ResponseClass is the transaction-level classification of a response status.
type ResponseClass uint8

const (
	// ResponseClassProvisional covers 1xx statuses.
	ResponseClassProvisional ResponseClass = iota
	// ResponseClassSuccess covers 2xx statuses.
	ResponseClassSuccess
	// ResponseClassFailure covers all final non-2xx statuses.
	ResponseClassFailure
)

func (c ResponseClass) String() string {
	switch c {
	case ResponseClassProvisional:
		return "provisional"
	case ResponseClassSuccess:
		return "success"
	default:
		return "failure"
	}
}

// Class returns the transaction-level classification of the status.
// The classification is total: any status below 200 is provisional, 2xx is
// success, everything else is failure.
func (s ResponseStatus) Class() ResponseClass {
	switch {
	case s < 200:
		return ResponseClassProvisional
	case s < 300:
		return ResponseClassSuccess
	default:
		return ResponseClassFailure
	}
}

// ReasonPhrase returns the default reason phrase for the status,
// or an empty string if there is no well-known phrase.
func (s ResponseStatus) ReasonPhrase() string {
	switch s {
	case ResponseStatusTrying:
		return "Trying"
	case ResponseStatusRinging:
		return "Ringing"
	case ResponseStatusSessionProgress:
		return "Session Progress"
	case ResponseStatusOK:
		return "OK"
	case ResponseStatusAccepted:
		return "Accepted"
	case ResponseStatusMovedPermanently:
		return "Moved Permanently"
	case ResponseStatusMovedTemporarily:
		return "Moved Temporarily"
	case ResponseStatusBadRequest:
		return "Bad Request"
	case ResponseStatusUnauthorized:
		return "Unauthorized"
	case ResponseStatusForbidden:
		return "Forbidden"
	case ResponseStatusNotFound:
		return "Not Found"
	case ResponseStatusMethodNotAllowed:
		return "Method Not Allowed"
	case ResponseStatusRequestTimeout:
		return "Request Timeout"
	case ResponseStatusTemporarilyUnavailable:
		return "Temporarily Unavailable"
	case ResponseStatusCallTransactionDoesNotExist:
		return "Call/Transaction Does Not Exist"
	case ResponseStatusBusyHere:
		return "Busy Here"
	case ResponseStatusRequestTerminated:
		return "Request Terminated"
	case ResponseStatusServerInternalError:
		return "Server Internal Error"
	case ResponseStatusNotImplemented:
		return "Not Implemented"
	case ResponseStatusServiceUnavailable:
		return "Service Unavailable"
	case ResponseStatusBusyEverywhere:
		return "Busy Everywhere"
	case ResponseStatusDecline:
		return "Decline"
	}
	return ""
}
