package jellyfin

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
)

// Class groups failures by how callers should react to them.
type Class string

const (
	// ClassNetwork covers transport and HTTP failures worth retrying.
	ClassNetwork Class = "network"
	// ClassCancelled means the caller's context ended the call.
	ClassCancelled Class = "cancelled"
	// ClassUnknown is anything else, such as malformed responses.
	ClassUnknown Class = "unknown"
)

// Failure is a diagnosed error with a user-facing message.
type Failure struct {
	Class      Class
	Message    string
	StatusCode int
}

// Diagnose classifies err into a Failure with a short explanation.
func Diagnose(err error) Failure {
	if err == nil {
		return Failure{Class: ClassUnknown, Message: "unknown error"}
	}

	if errors.Is(err, context.Canceled) {
		return Failure{Class: ClassCancelled, Message: "cancelled"}
	}

	if se, ok := IsStatus(err); ok {
		return Failure{Class: ClassNetwork, Message: StatusMessage(se.StatusCode), StatusCode: se.StatusCode}
	}

	if errors.Is(err, ErrCircuitOpen) {
		return Failure{Class: ClassNetwork, Message: "circuit open: server failing, retry later"}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && !dnsErr.IsTimeout {
		return Failure{Class: ClassNetwork, Message: "DNS: cannot resolve host"}
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return Failure{Class: ClassNetwork, Message: "NAT/Port: connection refused or port closed"}
	}

	if isTLSHandshake(err) {
		return Failure{Class: ClassNetwork, Message: "TLS: certificate/handshake failure"}
	}
	var recErr tls.RecordHeaderError
	if errors.As(err, &recErr) {
		return Failure{Class: ClassNetwork, Message: "TLS: invalid secure connection"}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Failure{Class: ClassNetwork, Message: "Timeout: no response from server (network/NAT/firewall)"}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Failure{Class: ClassNetwork, Message: "Timeout: no response from server (network/NAT/firewall)"}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return Failure{Class: ClassNetwork, Message: fmt.Sprintf("Network: %v", opErr.Err)}
	}

	return Failure{Class: ClassUnknown, Message: err.Error()}
}

// StatusMessage explains an HTTP status code.
func StatusMessage(code int) string {
	switch code {
	case http.StatusUnauthorized:
		return "Auth 401: invalid token/API key or wrong username/password"
	case http.StatusForbidden:
		return "Auth 403: access denied by server"
	case http.StatusNotFound:
		return "HTTP 404: endpoint not found (check URL/base path)"
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Sprintf("HTTP %d: server/proxy unavailable", code)
	default:
		return fmt.Sprintf("HTTP %d: server connection failed", code)
	}
}

func isTLSHandshake(err error) bool {
	var verifyErr *tls.CertificateVerificationError
	var unknownAuth x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	var invalidErr x509.CertificateInvalidError
	var alertErr tls.AlertError
	return errors.As(err, &verifyErr) ||
		errors.As(err, &unknownAuth) ||
		errors.As(err, &hostErr) ||
		errors.As(err, &invalidErr) ||
		errors.As(err, &alertErr)
}
