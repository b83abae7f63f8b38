package schema

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxIdentLen is the longest identifier PostgreSQL accepts unmodified.
const MaxIdentLen = 63

// NormalizeName turns header text into a lowercase ASCII identifier: accents
// are stripped (NFD, drop Mn, NFC), space, dash and dot become a single
// underscore, anything else outside [a-z0-9_] is dropped. Empty results
// become "col".
func NormalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	ascii, _, err := transform.String(t, s)
	if err != nil {
		ascii = s
	}

	var b strings.Builder
	b.Grow(len(ascii))
	prevUnderscore := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.':
			if !prevUnderscore {
				b.WriteByte('_')
				prevUnderscore = true
			}
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return "col"
	}
	return name
}

// TruncateName keeps names within MaxIdentLen by joining the first 10 and the
// last 53 bytes. Normalized names are ASCII, so byte slicing is safe.
func TruncateName(s string) string {
	if len(s) > MaxIdentLen {
		return s[:10] + s[len(s)-(MaxIdentLen-10):]
	}
	return s
}

// assignNormalized fills Column.Normalized, suffixing _2, _3, ... on
// collisions.
func assignNormalized(s Schema) {
	used := make(map[string]bool, len(s))
	for i := range s {
		base := TruncateName(NormalizeName(s[i].Name))
		name := base
		for n := 2; used[name]; n++ {
			suffix := "_" + strconv.Itoa(n)
			name = base[:min(len(base), MaxIdentLen-len(suffix))] + suffix
		}
		used[name] = true
		s[i].Normalized = name
	}
}
