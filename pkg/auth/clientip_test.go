package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTrustedProxies(t *testing.T) {
	p, err := ParseTrustedProxies([]string{"10.0.0.0/8", " 192.168.1.1 ", "", "::1"})
	require.NoError(t, err)
	assert.True(t, p.trusts("10.1.2.3"))
	assert.True(t, p.trusts("192.168.1.1"))
	assert.False(t, p.trusts("192.168.1.2"))
	assert.True(t, p.trusts("::1"))
	assert.False(t, p.trusts("not-an-ip"))

	_, err = ParseTrustedProxies([]string{"10.0.0.0/33"})
	assert.Error(t, err)
	_, err = ParseTrustedProxies([]string{"proxy.internal"})
	assert.Error(t, err)
}

func TestProxyTrust_ClientIP(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		proxies    *ProxyTrust
		remoteAddr string
		forwarded  []string
		realIP     string
		want       string
	}{
		{
			name:       "no proxies configured ignores headers",
			remoteAddr: "203.0.113.7:5555",
			forwarded:  []string{"198.51.100.1"},
			realIP:     "198.51.100.2",
			want:       "203.0.113.7",
		},
		{
			name:       "untrusted peer ignores headers",
			proxies:    trusted,
			remoteAddr: "203.0.113.7:5555",
			forwarded:  []string{"198.51.100.1"},
			want:       "203.0.113.7",
		},
		{
			name:       "trusted peer forwards the client",
			proxies:    trusted,
			remoteAddr: "10.0.0.2:5555",
			forwarded:  []string{"198.51.100.1"},
			want:       "198.51.100.1",
		},
		{
			name:       "spoofed leading hops are skipped",
			proxies:    trusted,
			remoteAddr: "10.0.0.2:5555",
			forwarded:  []string{"1.2.3.4, 198.51.100.1, 10.0.0.3"},
			want:       "198.51.100.1",
		},
		{
			name:       "repeated headers are joined",
			proxies:    trusted,
			remoteAddr: "10.0.0.2:5555",
			forwarded:  []string{"1.2.3.4", "198.51.100.1"},
			want:       "198.51.100.1",
		},
		{
			name:       "all hops trusted returns the first",
			proxies:    trusted,
			remoteAddr: "10.0.0.2:5555",
			forwarded:  []string{"10.0.0.9, 10.0.0.3"},
			want:       "10.0.0.9",
		},
		{
			name:       "trusted peer with real ip header",
			proxies:    trusted,
			remoteAddr: "10.0.0.2:5555",
			realIP:     "198.51.100.9",
			want:       "198.51.100.9",
		},
		{
			name:       "trusted peer without headers",
			proxies:    trusted,
			remoteAddr: "10.0.0.2:5555",
			want:       "10.0.0.2",
		},
		{
			name:       "unparseable remote address",
			proxies:    trusted,
			remoteAddr: "not-an-address",
			want:       "not-an-address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for _, v := range tt.forwarded {
				req.Header.Add("X-Forwarded-For", v)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.want, tt.proxies.ClientIP(req))
		})
	}
}
