package ratelimiter

import (
	"fmt"
	"net/http"

	"github.com/seancfoley/ipaddress-go/ipaddr"
)

// Allowlist matches client addresses against a set of IPs and CIDR blocks.
type Allowlist struct {
	v4 *ipaddr.IPv4AddressTrie
	v6 *ipaddr.IPv6AddressTrie
}

func NewAllowlist(entries []string) (*Allowlist, error) {
	list := &Allowlist{
		v4: &ipaddr.IPv4AddressTrie{},
		v6: &ipaddr.IPv6AddressTrie{},
	}

	for _, entry := range entries {
		addr, err := ipaddr.NewIPAddressString(entry).ToAddress()
		if err != nil || addr == nil {
			return nil, fmt.Errorf("invalid allowlist entry %q", entry)
		}
		switch {
		case addr.IsIPv4():
			list.v4.Add(addr.ToIPv4())
		case addr.IsIPv6():
			list.v6.Add(addr.ToIPv6())
		default:
			return nil, fmt.Errorf("invalid allowlist entry %q", entry)
		}
	}

	return list, nil
}

func (a *Allowlist) Contains(ip string) bool {
	if a == nil {
		return false
	}
	addr, err := parseIP(ip)
	if err != nil {
		return false
	}
	if addr.IsIPv4() {
		return a.v4.ElementContains(addr.ToIPv4())
	}
	return a.v6.ElementContains(addr.ToIPv6())
}

// SkipAllowlisted returns a SkipFunc that bypasses the limiter for clients
// whose DefaultIdentifier address is on the list.
func SkipAllowlisted(list *Allowlist) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		return list.Contains(DefaultIdentifier(r))
	}
}
