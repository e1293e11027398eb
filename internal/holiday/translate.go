package holiday

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Translator maps holiday names from the feed's source language to the
// application language.
//
// Lookup is exact-then-substring: an exact hit wins; otherwise the first
// mapping (in sorted key order, for determinism) whose key occurs inside
// the name is used; unmapped names pass through unchanged. Names are
// NFC-normalized before lookup so composed and decomposed feed spellings
// hit the same entry.
type Translator struct {
	exact map[string]string
	keys  []string // sorted, for deterministic substring scans
}

// NewTranslator builds a translator from a source→target name table.
func NewTranslator(table map[string]string) *Translator {
	t := &Translator{
		exact: make(map[string]string, len(table)),
		keys:  make([]string, 0, len(table)),
	}
	for k, v := range table {
		nk := norm.NFC.String(k)
		t.exact[nk] = v
		t.keys = append(t.keys, nk)
	}
	sort.Strings(t.keys)
	return t
}

// Translate returns the target-language name, or name unchanged when no
// mapping applies.
func (t *Translator) Translate(name string) string {
	n := norm.NFC.String(name)
	if out, ok := t.exact[n]; ok {
		return out
	}
	for _, k := range t.keys {
		if strings.Contains(n, k) {
			return t.exact[k]
		}
	}
	return name
}

// DefaultTranslator covers the holiday names the source feed is known to
// emit.
func DefaultTranslator() *Translator {
	return NewTranslator(map[string]string{
		"Uudenvuodenpäivä":  "New Year's Day",
		"Loppiainen":        "Epiphany",
		"Pitkäperjantai":    "Good Friday",
		"Pääsiäispäivä":     "Easter Sunday",
		"Vappu":             "May Day",
		"Helatorstai":       "Ascension Day",
		"Juhannuspäivä":     "Midsummer Day",
		"Pyhäinpäivä":       "All Saints' Day",
		"Itsenäisyyspäivä":  "Independence Day",
		"Jouluaatto":        "Christmas Eve",
		"Joulupäivä":        "Christmas Day",
		"Tapaninpäivä":      "St. Stephen's Day",
		"Uudenvuodenaatto":  "New Year's Eve",
	})
}
