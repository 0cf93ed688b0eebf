package ratelimiter

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowlist(t *testing.T) {
	list, err := NewAllowlist([]string{"192.0.2.10", "10.0.0.0/8", "2001:db8::/32"})
	require.NoError(t, err)

	assert.True(t, list.Contains("192.0.2.10"))
	assert.True(t, list.Contains("10.20.30.40"))
	assert.True(t, list.Contains("2001:db8::abcd"))
	assert.False(t, list.Contains("192.0.2.11"))
	assert.False(t, list.Contains("2001:db9::1"))
	assert.False(t, list.Contains(UnknownClient))
}

func TestAllowlist_RejectsNonHostQueries(t *testing.T) {
	list, err := NewAllowlist([]string{"10.0.0.0/8", "2001:db8::/32"})
	require.NoError(t, err)

	for _, query := range []string{"10.*.*.*", "10.0.0.0/8", "10.1.0.0/16", "10.1.1.1-2", "0.0.0.0/0", "2001:db8::/48"} {
		assert.False(t, list.Contains(query), query)
	}
}

func TestNewAllowlist_InvalidEntry(t *testing.T) {
	_, err := NewAllowlist([]string{"10.0.0.0/8", "office-router"})
	assert.Error(t, err)
}

func TestNilAllowlistContainsNothing(t *testing.T) {
	var list *Allowlist
	assert.False(t, list.Contains("192.0.2.10"))
}

func TestSkipAllowlisted(t *testing.T) {
	list, err := NewAllowlist([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	skip := SkipAllowlisted(list)

	r := httptest.NewRequest("POST", "/api/contact", nil)
	r.Header.Set("X-Forwarded-For", "10.3.3.3")
	assert.True(t, skip(r))

	r = httptest.NewRequest("POST", "/api/contact", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.9")
	assert.False(t, skip(r))

	r = httptest.NewRequest("POST", "/api/contact", nil)
	r.Header.Set("X-Forwarded-For", "10.0.0.0/8")
	assert.False(t, skip(r), "a subnet in the header is not an allowlisted client")
}
