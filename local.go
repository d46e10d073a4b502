package gossip

import (
	"net"
	"net/url"
	"strings"
)

// IsLocalRelayURL returns true if the given relay URL points at a loopback,
// LAN or otherwise non-publicly-routable host.
func IsLocalRelayURL(u string) bool {
	p, err := url.Parse(u)
	if err != nil {
		return false
	}

	host := p.Hostname()
	if host == "" {
		return false
	}

	if host == "localhost" || strings.HasSuffix(host, ".local") {
		return true
	}

	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
	}

	return false
}

// isForeignLocalRelay returns true for local-network relays that do not
// belong to the acting user. Other people's local relays are unreachable
// from here and leak nothing useful, so routing must never pick them up.
func isForeignLocalRelay(u string, ownRelays []string) bool {
	if !IsLocalRelayURL(u) {
		return false
	}
	for _, own := range ownRelays {
		if u == own {
			return false
		}
	}
	return true
}

// dropForeignLocalRelays filters out foreign local relays, keeping order.
func dropForeignLocalRelays(urls []string, ownRelays []string) []string {
	result := make([]string, 0, len(urls))
	for _, u := range urls {
		if isForeignLocalRelay(u, ownRelays) {
			continue
		}
		result = append(result, u)
	}
	return result
}

// IsVirtualRelay returns true if the given normalized relay URL shouldn't be considered for outbox-model calculations.
func IsVirtualRelay(url string) bool {
	if len(url) < 6 {
		// this is just invalid
		return true
	}

	if strings.HasPrefix(url, "wss://feeds.nostr.band") ||
		strings.HasPrefix(url, "wss://filter.nostr.wine") ||
		strings.HasPrefix(url, "wss://cache") {
		return true
	}

	return false
}
