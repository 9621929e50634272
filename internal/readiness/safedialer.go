package readiness

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"syscall"
	"time"
)

var errReservedAddress = errors.New("probing a private or reserved network address is not allowed")

// reservedPrefixes lists ranges that netip.Addr's own predicates (IsPrivate,
// IsLoopback, IsLinkLocal*, IsUnspecified, IsGlobalUnicast) do not cover.
var reservedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("100.64.0.0/10"),   // carrier-grade NAT, RFC 6598
	netip.MustParsePrefix("192.0.0.0/24"),    // IETF protocol assignments, RFC 6890
	netip.MustParsePrefix("192.0.2.0/24"),    // TEST-NET-1, RFC 5737
	netip.MustParsePrefix("198.18.0.0/15"),   // benchmarking, RFC 2544
	netip.MustParsePrefix("198.51.100.0/24"), // TEST-NET-2, RFC 5737
	netip.MustParsePrefix("203.0.113.0/24"),  // TEST-NET-3, RFC 5737
	netip.MustParsePrefix("240.0.0.0/4"),     // reserved, RFC 1112
	netip.MustParsePrefix("2001:db8::/32"),   // IPv6 documentation, RFC 3849
	netip.MustParsePrefix("64:ff9b::/96"),    // NAT64, RFC 6052
}

// safeDialer returns a dialer that refuses to connect to non-public
// addresses. The check runs on the resolved address at dial time, so a
// hostname that re-resolves to an internal IP is rejected as well.
func safeDialer(timeout time.Duration) *net.Dialer {
	return &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
		Control:   rejectReservedAddress,
	}
}

// safeTransport returns a transport dialing through d with at most
// maxConnsPerHost connections to one host.
func safeTransport(d *net.Dialer, maxConnsPerHost int) *http.Transport {
	return &http.Transport{
		DialContext:         d.DialContext,
		MaxConnsPerHost:     maxConnsPerHost,
		MaxIdleConnsPerHost: maxConnsPerHost,
		IdleConnTimeout:     90 * time.Second,
	}
}

func rejectReservedAddress(_ string, address string, _ syscall.RawConn) error {
	addrPort, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%w: %w", errReservedAddress, err)
	}

	if isReservedIP(addrPort.Addr()) {
		return fmt.Errorf("%w: %s", errReservedAddress, addrPort.Addr())
	}

	return nil
}

func isReservedIP(addr netip.Addr) bool {
	// ::ffff:10.0.0.1 must be judged as 10.0.0.1.
	addr = addr.Unmap()

	if !addr.IsGlobalUnicast() || addr.IsPrivate() {
		return true
	}

	for _, p := range reservedPrefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
