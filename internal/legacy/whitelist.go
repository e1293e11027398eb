package legacy

import "strings"

// Whitelist is the fixed set of key names and prefixes exempt from
// removal regardless of classification. Immutable after construction.
type Whitelist struct {
	exact    map[string]struct{}
	prefixes []string
}

// NewWhitelist builds a whitelist from exact key names and key prefixes.
func NewWhitelist(exact []string, prefixes []string) Whitelist {
	w := Whitelist{
		exact:    make(map[string]struct{}, len(exact)),
		prefixes: append([]string(nil), prefixes...),
	}
	for _, k := range exact {
		w.exact[k] = struct{}{}
	}
	return w
}

// Contains reports whether key is protected, by exact match or by any
// defined prefix.
func (w Whitelist) Contains(key string) bool {
	if _, ok := w.exact[key]; ok {
		return true
	}
	for _, prefix := range w.prefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// Extend returns a copy of the whitelist with additional exact keys and
// prefixes. The receiver is unchanged.
func (w Whitelist) Extend(exact []string, prefixes []string) Whitelist {
	out := NewWhitelist(exact, append(append([]string(nil), w.prefixes...), prefixes...))
	for k := range w.exact {
		out.exact[k] = struct{}{}
	}
	return out
}
