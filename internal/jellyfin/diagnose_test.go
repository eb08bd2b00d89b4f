package jellyfin

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiagnose(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: &os.SyscallError{Syscall: "connect", Err: syscall.ECONNREFUSED}}

	tests := []struct {
		name      string
		err       error
		wantClass Class
		wantMsg   string
	}{
		{"401", &StatusError{StatusCode: 401}, ClassNetwork, "Auth 401: invalid token/API key or wrong username/password"},
		{"403", &StatusError{StatusCode: 403}, ClassNetwork, "Auth 403: access denied by server"},
		{"404", &StatusError{StatusCode: 404}, ClassNetwork, "HTTP 404: endpoint not found (check URL/base path)"},
		{"502", &StatusError{StatusCode: 502}, ClassNetwork, "HTTP 502: server/proxy unavailable"},
		{"503", &StatusError{StatusCode: 503}, ClassNetwork, "HTTP 503: server/proxy unavailable"},
		{"504", &StatusError{StatusCode: 504}, ClassNetwork, "HTTP 504: server/proxy unavailable"},
		{"500", &StatusError{StatusCode: 500}, ClassNetwork, "HTTP 500: server connection failed"},
		{"wrapped status", fmt.Errorf("list movies: %w", &StatusError{StatusCode: 503}), ClassNetwork, "HTTP 503: server/proxy unavailable"},
		{"dns", fmt.Errorf("execute request: %w", &net.DNSError{Err: "no such host", Name: "jelly.lan", IsNotFound: true}), ClassNetwork, "DNS: cannot resolve host"},
		{"refused", fmt.Errorf("execute request: %w", refused), ClassNetwork, "NAT/Port: connection refused or port closed"},
		{"unknown authority", fmt.Errorf("execute request: %w", x509.UnknownAuthorityError{}), ClassNetwork, "TLS: certificate/handshake failure"},
		{"hostname", x509.HostnameError{Host: "jelly.lan"}, ClassNetwork, "TLS: certificate/handshake failure"},
		{"record header", tls.RecordHeaderError{Msg: "first record does not look like a TLS handshake"}, ClassNetwork, "TLS: invalid secure connection"},
		{"deadline", fmt.Errorf("execute request: %w", context.DeadlineExceeded), ClassNetwork, "Timeout: no response from server (network/NAT/firewall)"},
		{"circuit", fmt.Errorf("%w: open", ErrCircuitOpen), ClassNetwork, "circuit open: server failing, retry later"},
		{"cancelled", fmt.Errorf("execute request: %w", context.Canceled), ClassCancelled, "cancelled"},
		{"other", errors.New("decode response: unexpected EOF"), ClassUnknown, "decode response: unexpected EOF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Diagnose(tt.err)
			assert.Equal(t, tt.wantClass, f.Class)
			assert.Equal(t, tt.wantMsg, f.Message)
		})
	}
}

func TestDiagnose_StatusCodeCarried(t *testing.T) {
	f := Diagnose(&StatusError{StatusCode: http.StatusForbidden})
	assert.Equal(t, http.StatusForbidden, f.StatusCode)
}

func TestDiagnose_RealRefusedConnection(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	err := New(addr).Ping(context.Background())
	f := Diagnose(err)
	assert.Equal(t, ClassNetwork, f.Class)
	assert.Equal(t, "NAT/Port: connection refused or port closed", f.Message)
}

func TestDiagnose_RealStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := New(server.URL).Ping(context.Background())
	assert.Equal(t, "HTTP 502: server/proxy unavailable", Diagnose(err).Message)
}
