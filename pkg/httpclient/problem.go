package httpclient

import (
	"context"
	"errors"
	"net"
	"net/url"
	"syscall"
)

// Problem classes assigned to responses that are not OK.
const (
	ProblemNone       = ""
	ProblemClient     = "CLIENT_ERROR"
	ProblemServer     = "SERVER_ERROR"
	ProblemTimeout    = "TIMEOUT_ERROR"
	ProblemConnection = "CONNECTION_ERROR"
	ProblemNetwork    = "NETWORK_ERROR"
	ProblemCancel     = "CANCEL_ERROR"
	ProblemUnknown    = "UNKNOWN_ERROR"
)

// ClassifyProblem maps a transport error and status code to a problem class.
func ClassifyProblem(err error, status int) string {
	if err != nil {
		return classifyError(err)
	}
	switch {
	case status >= 200 && status < 300:
		return ProblemNone
	case status >= 400 && status < 500:
		return ProblemClient
	case status >= 500 && status < 600:
		return ProblemServer
	default:
		return ProblemUnknown
	}
}

func classifyError(err error) string {
	if errors.Is(err, context.Canceled) {
		return ProblemCancel
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ProblemTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ProblemTimeout
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return ProblemConnection
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ProblemConnection
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ProblemNetwork
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ProblemNetwork
	}
	return ProblemUnknown
}
