package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildBaseURL(t *testing.T) {
	tests := []struct {
		address string
		port    int
		want    string
	}{
		{"", 8096, "http://127.0.0.1:8096/"},
		{"   ", 0, "http://127.0.0.1:8096/"},
		{"jelly.lan", 8096, "http://jelly.lan:8096/"},
		{"jelly.lan/", 0, "http://jelly.lan:8096/"},
		{"jelly.lan", 8920, "http://jelly.lan:8920/"},
		{"jelly.lan:9000", 8096, "http://jelly.lan:9000/"},
		{"https://media.example.com", 443, "https://media.example.com:443/"},
		{"HTTPS://media.example.com:8443/jf", 8096, "https://media.example.com:8443/jf/"},
		{"192.168.1.10", 8096, "http://192.168.1.10:8096/"},
		{"[::1]", 8096, "http://[::1]:8096/"},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildBaseURL(tt.address, tt.port))
		})
	}
}
