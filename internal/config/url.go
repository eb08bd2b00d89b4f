package config

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

// DefaultServerPort is Jellyfin's default HTTP port.
const DefaultServerPort = 8096

// BuildBaseURL normalizes a user-entered server address into a base URL with
// a scheme, a port and a trailing slash. An explicit port in address wins
// over port; port <= 0 means DefaultServerPort. A blank address yields the
// local default server.
func BuildBaseURL(address string, port int) string {
	raw := strings.TrimSuffix(strings.TrimSpace(address), "/")
	if raw == "" {
		return "http://127.0.0.1:8096/"
	}
	if port <= 0 {
		port = DefaultServerPort
	}

	lower := strings.ToLower(raw)
	withScheme := raw
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		withScheme = "http://" + raw
	}

	u, err := url.Parse(withScheme)
	if err != nil || u.Hostname() == "" {
		return withScheme + "/"
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Port() == "" {
		u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(port))
	}

	s := u.String()
	if !strings.HasSuffix(s, "/") {
		s += "/"
	}
	return s
}
