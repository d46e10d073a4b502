package gossip

import "sync/atomic"

// RelayStream is an infinite round-robin over a fixed list of relay URLs,
// used wherever we need "the next relay to try" semantics.
type RelayStream struct {
	URLs   []string
	serial atomic.Int64
}

func NewRelayStream(urls ...string) *RelayStream {
	rs := &RelayStream{URLs: urls}
	rs.serial.Store(-1)
	return rs
}

func (rs *RelayStream) Next() string {
	serial := rs.serial.Add(1)
	return rs.URLs[serial%int64(len(rs.URLs))]
}
