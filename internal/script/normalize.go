package script

import (
	"strings"

	"github.com/tidwall/gjson"
)

// NormalizedID is a token reduced to [a-z]*. It may or may not name a role.
type NormalizedID = string

// Normalize extracts the identifying token of an entry and normalizes it.
// Bare strings are their own token; objects use their "id" field when it is a
// string. Anything else normalizes to "".
func Normalize(entry gjson.Result) NormalizedID {
	switch {
	case entry.Type == gjson.String:
		return NormalizeToken(entry.Str)
	case entry.IsObject():
		if id := field(entry, "id"); id.Type == gjson.String {
			return NormalizeToken(id.Str)
		}
	}
	return ""
}

// field returns the value of key in obj. With duplicate keys the last one
// wins, matching JSON.parse and encoding/json; gjson's Get would take the
// first.
func field(obj gjson.Result, key string) gjson.Result {
	var out gjson.Result
	obj.ForEach(func(k, v gjson.Result) bool {
		if k.Str == key {
			out = v
		}
		return true
	})
	return out
}

// NormalizeToken keeps ASCII letters only and lowercases them, so
// "Scarlet Woman" and "scarlet_woman" both become "scarletwoman".
func NormalizeToken(raw string) NormalizedID {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		switch {
		case ch >= 'a' && ch <= 'z':
			b.WriteByte(ch)
		case ch >= 'A' && ch <= 'Z':
			b.WriteByte(ch + ('a' - 'A'))
		}
	}
	return b.String()
}

// NormalizeAll applies Normalize to every entry, preserving order.
func NormalizeAll(entries []gjson.Result) []NormalizedID {
	out := make([]NormalizedID, len(entries))
	for i, e := range entries {
		out[i] = Normalize(e)
	}
	return out
}
