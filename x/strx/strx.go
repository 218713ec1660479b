package strx

// Coalesce returns s if non-empty, otherwise d.
func Coalesce(s, d string) string {
	if s == "" {
		return d
	}
	return s
}

// SplitInto splits s on sep into dst and returns the used part. It returns
// nil when s has more fields than dst can hold.
func SplitInto(dst []string, s string, sep byte) []string {
	n, start := 0, 0
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] != sep {
			continue
		}
		if n == len(dst) {
			return nil
		}
		dst[n] = s[start:i]
		n++
		start = i + 1
	}
	return dst[:n]
}

// TrimEOL drops trailing CR and LF bytes.
func TrimEOL(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
