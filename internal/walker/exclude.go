package walker

import "strings"

// excludeFilter decides whether a device should never be walked based on
// the platform and capability strings its discoverer advertised for it.
// Matching is case-insensitive; platforms match on substring so a single
// rule like "ip phone" covers every phone model.
type excludeFilter struct {
	capabilities []string
	platforms    []string
}

func newExcludeFilter(capabilities, platforms []string) excludeFilter {
	return excludeFilter{
		capabilities: lowerAll(capabilities),
		platforms:    lowerAll(platforms),
	}
}

func (f excludeFilter) Match(platform string, capabilities []string) bool {
	if platform != "" {
		lowered := strings.ToLower(platform)
		for _, p := range f.platforms {
			if strings.Contains(lowered, p) {
				return true
			}
		}
	}
	for _, c := range capabilities {
		lowered := strings.ToLower(c)
		for _, deny := range f.capabilities {
			if lowered == deny {
				return true
			}
		}
	}
	return false
}

func lowerAll(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
