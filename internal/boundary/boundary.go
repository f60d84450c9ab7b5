// Package boundary implements the site-boundary traversal policy: a
// shell-glob pattern matched against device names decides whether a walked
// device halts expansion at a site edge.
package boundary

import (
	"fmt"
	"path"
	"strings"
)

// Policy decides whether a device halts traversal expansion. The zero
// value (empty pattern) never marks a device as a boundary.
type Policy struct {
	// Pattern is a shell glob matched case-insensitively against the
	// device's short name. Empty disables boundary detection.
	Pattern string
	// CollectSite suppresses the halt for matching devices so a full
	// single-site traversal can pass through its own site edge devices.
	CollectSite bool
}

// Validate rejects a malformed glob pattern up front, before traversal
func (p Policy) Validate() error {
	if p.Pattern == "" {
		return nil
	}
	if _, err := path.Match(strings.ToLower(p.Pattern), ""); err != nil {
		return fmt.Errorf("site boundary pattern %q: %w", p.Pattern, err)
	}
	return nil
}

// IsBoundary reports whether hostname halts expansion. The decision is
// made once per device, at dequeue time. A device matching the pattern is
// a boundary unless site collection mode is on; a non-matching device
// never is.
func (p Policy) IsBoundary(hostname string) bool {
	if p.Pattern == "" || p.CollectSite {
		return false
	}
	matched, err := path.Match(strings.ToLower(p.Pattern), strings.ToLower(hostname))
	if err != nil {
		return false
	}
	return matched
}
