// Package pairing derives the shared key for an elder/caregiver pair.
//
// The same key names the pair's chat room and its subscription record, so
// it has to come out identical no matter which side computes it.
package pairing

import "strings"

// Separator joins the two identifiers. uids are UUID strings, which never
// contain it, so distinct unordered pairs cannot collide.
const Separator = "_"

// GlobalRoom is the shared room for unpaired chat. It is not a pair key.
const GlobalRoom = "global"

// Key returns the order-independent key for a and b.
//
// Both identifiers must be non-empty; use Valid to check first.
func Key(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + Separator + b
}

// Valid reports whether a and b can be paired: both non-empty, distinct,
// and free of the separator.
func Valid(a, b string) bool {
	if a == "" || b == "" || a == b {
		return false
	}
	return !strings.Contains(a, Separator) && !strings.Contains(b, Separator)
}

// Split recovers the two members of a key produced by Key.
func Split(key string) (string, string, bool) {
	a, b, ok := strings.Cut(key, Separator)
	if !ok || a == "" || b == "" || strings.Contains(b, Separator) {
		return "", "", false
	}
	return a, b, true
}
