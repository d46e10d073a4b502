package gossip

import (
	"strings"

	"github.com/ImVexed/fasturl"
)

// NormalizeRelayURL canonicalizes a relay URL: lowercased scheme and host,
// trailing slashes trimmed, query preserved. Inputs without a scheme are
// assumed to be wss:// (ws:// for localhost). Anything that is not a
// websocket URL normalizes to "", which callers treat as "drop this entry".
//
// It is idempotent: NormalizeRelayURL(NormalizeRelayURL(u)) == NormalizeRelayURL(u).
func NormalizeRelayURL(u string) string {
	u = strings.TrimSpace(u)
	if u == "" {
		return ""
	}

	if i := strings.Index(u, "://"); i != -1 {
		// a scheme with nothing after it ("wss://") is not a URL
		if strings.TrimLeft(u[i+3:], "/") == "" {
			return ""
		}
		u = strings.ToLower(u[:i]) + u[i:]
	} else {
		// scheme-less input: settle the scheme before parsing so that hosts
		// with ports or trailing slashes aren't misread as scheme components
		host := u
		if j := strings.IndexAny(host, ":/"); j != -1 {
			host = host[:j]
		}
		if host == "localhost" || host == "127.0.0.1" {
			u = "ws://" + u
		} else {
			u = "wss://" + u
		}
	}

	p, err := fasturl.ParseURL(u)
	if err != nil {
		return ""
	}

	switch p.Protocol {
	case "ws", "wss":
	default:
		// http, https and anything else are not relays
		return ""
	}

	p.Host = strings.ToLower(p.Host)
	if p.Host == "" {
		return ""
	}

	p.Path = strings.TrimRight(p.Path, "/")

	var buf strings.Builder
	buf.Grow(
		len(p.Protocol) + 3 + len(p.Host) + 1 + len(p.Port) + len(p.Path) + 1 + len(p.Query),
	)

	buf.WriteString(p.Protocol)
	buf.WriteString("://")
	buf.WriteString(p.Host)
	if p.Port != "" {
		buf.WriteByte(':')
		buf.WriteString(p.Port)
	}
	buf.WriteString(p.Path)
	if p.Query != "" {
		buf.WriteByte('?')
		buf.WriteString(p.Query)
	}
	return buf.String()
}

// NormalizeRelayURLs normalizes every URL in the list, dropping the ones that
// fail and collapsing duplicates while keeping first-seen order.
func NormalizeRelayURLs(urls []string) []string {
	result := make([]string, 0, len(urls))
	for _, u := range urls {
		if normalized := NormalizeRelayURL(u); normalized != "" {
			result = appendUnique(result, normalized)
		}
	}
	return result
}
