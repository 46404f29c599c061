package text

// Truncate cuts s to max bytes, backing off to a rune boundary, and marks the
// cut with "...".
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	for max > 0 && !runeStart(s[max]) {
		max--
	}
	return s[:max] + "..."
}

func runeStart(b byte) bool {
	return b&0xC0 != 0x80
}
