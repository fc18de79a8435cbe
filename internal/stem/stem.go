// Package stem implements a deterministic suffix-stripping English stemmer.
// It carries no external lexicon and exists only to widen substring
// matching in the keyword scorer; stems are never surfaced to a client.
package stem

import "strings"

// Stem strips common English suffixes from word to produce an approximate
// stem, in descending suffix-length order with minimum-length guards so
// short words are never over-stripped. The algorithm and thresholds mirror
// the reference scorer exactly: order matters, and only one suffix is ever
// stripped.
func Stem(word string) string {
	w := strings.ToLower(word)
	n := len(w)

	switch {
	case n > 7 && strings.HasSuffix(w, "tion"):
		return w[:n-4]
	case n > 7 && strings.HasSuffix(w, "ment"):
		return w[:n-4]
	case n > 7 && strings.HasSuffix(w, "ness"):
		return w[:n-4]
	case n > 7 && strings.HasSuffix(w, "ible"):
		return w[:n-4]
	case n > 7 && strings.HasSuffix(w, "able"):
		return w[:n-4]
	case n > 6 && strings.HasSuffix(w, "ing"):
		return w[:n-3]
	case n > 6 && strings.HasSuffix(w, "ies"):
		return w[:n-3]
	case n > 5 && strings.HasSuffix(w, "ed") && !strings.HasSuffix(w, "eed"):
		return w[:n-2]
	case n > 5 && strings.HasSuffix(w, "er"):
		return w[:n-2]
	case n > 5 && strings.HasSuffix(w, "ly"):
		return w[:n-2]
	case n > 5 && strings.HasSuffix(w, "es"):
		return w[:n-2]
	case n > 4 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss"):
		return w[:n-1]
	case n > 4 && strings.HasSuffix(w, "e") && !strings.HasSuffix(w, "ee"):
		return w[:n-1]
	default:
		return w
	}
}
