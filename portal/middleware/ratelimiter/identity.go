package ratelimiter

import (
	"fmt"
	"net/http"
	"net/netip"
	"strings"

	"github.com/seancfoley/ipaddress-go/ipaddr"
)

// UnknownClient is the identifier used when no proxy header carries a usable
// address. All such requests share one bucket per route.
const UnknownClient = "unknown"

// ClientIPHeaders lists the proxy headers consulted, highest precedence first.
var ClientIPHeaders = []string{
	"X-Forwarded-For",
	"X-Real-IP",
	"CF-Connecting-IP",
}

// DefaultIdentifier returns the client address from the first proxy header
// present. Only the first element of X-Forwarded-For is used.
func DefaultIdentifier(r *http.Request) string {
	for _, name := range ClientIPHeaders {
		value := strings.TrimSpace(r.Header.Get(name))
		if value == "" {
			continue
		}
		if first, _, found := strings.Cut(value, ","); found {
			value = strings.TrimSpace(first)
		}
		return NormalizeIP(value)
	}
	return UnknownClient
}

// NormalizeIP returns the canonical form of an address, accepting an optional
// port and IPv6 brackets. Anything unparsable becomes UnknownClient.
func NormalizeIP(value string) string {
	addr, err := parseIP(value)
	if err != nil {
		return UnknownClient
	}
	return addr.String()
}

func parseIP(value string) (*ipaddr.IPAddress, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("empty address")
	}

	if addrPort, err := netip.ParseAddrPort(value); err == nil {
		value = addrPort.Addr().String()
	} else if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
		value = value[1 : len(value)-1]
	}

	addr, err := ipaddr.NewIPAddressString(value).ToAddress()
	if err != nil {
		return nil, err
	}
	if addr == nil || !(addr.IsIPv4() || addr.IsIPv6()) {
		return nil, fmt.Errorf("not an ip address: %q", value)
	}
	// A client is one host: subnets, ranges and wildcards are rejected.
	if addr.IsPrefixed() || addr.IsMultiple() {
		return nil, fmt.Errorf("not a single address: %q", value)
	}
	return addr, nil
}

func routeKey(identifier, path string) string {
	if identifier == "" {
		identifier = UnknownClient
	}
	return identifier + ":" + path
}
