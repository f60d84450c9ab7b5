package domain

import "time"

// NeighborLink is the canonical undirected representation of one physical
// adjacency. The two directional CDP/LLDP observations of a link collapse
// onto a single row keyed by the lexicographically ordered endpoint pairs.
type NeighborLink struct {
	ID        int64     `json:"id"`
	AKey      Key       `json:"a_key"`
	AIf       string    `json:"a_if"`
	BKey      Key       `json:"b_key"`
	BIf       string    `json:"b_if"`
	Protocol  string    `json:"protocol,omitempty"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// LinkEndpoint is one (device, interface) end of an observed adjacency
type LinkEndpoint struct {
	Key Key
	If  string
}

// CanonicalLink orders the two endpoints of an observed adjacency so that
// swapped source/destination observations produce the same pair. Endpoints
// sort by device key first, interface name second (the interface breaks
// the tie for a device linked to itself).
func CanonicalLink(src, dst LinkEndpoint) (low, high LinkEndpoint) {
	if src.Key < dst.Key {
		return src, dst
	}
	if src.Key > dst.Key {
		return dst, src
	}
	if src.If <= dst.If {
		return src, dst
	}
	return dst, src
}
