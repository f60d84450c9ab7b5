package domain

import (
	"net"
	"strings"
)

// Key is a normalized device identity. Any two hostnames that normalize
// equal refer to the same device.
type Key string

// Normalize reduces a raw device name to its identity key. The pipeline is
// ordered: the trailing parenthetical suffix that CDP appends after the
// name (usually a chassis serial) comes off first, then domain labels, then
// the result is case-folded. Normalize is idempotent and independent of
// observation order.
func Normalize(raw string) Key {
	return Key(strings.ToLower(ShortName(raw)))
}

// ShortName strips the parenthetical suffix and domain labels from a raw
// device name while preserving its original case for display.
func ShortName(raw string) string {
	name := stripSerialSuffix(strings.TrimSpace(raw))
	return stripDomain(name)
}

// stripSerialSuffix removes a trailing parenthetical suffix,
// e.g. "SW-CORE-A(FOX2130A1BC)" or "SW-CORE-A (FOX2130A1BC)".
func stripSerialSuffix(name string) string {
	if !strings.HasSuffix(name, ")") {
		return name
	}
	open := strings.LastIndex(name, "(")
	if open <= 0 {
		return name
	}
	return strings.TrimSpace(name[:open])
}

// stripDomain removes everything after the first label. IP literals are
// kept whole: "10.1.20.3" must not collapse to "10".
func stripDomain(name string) string {
	idx := strings.IndexByte(name, '.')
	if idx <= 0 {
		return name
	}
	if net.ParseIP(name) != nil {
		return name
	}
	return name[:idx]
}
