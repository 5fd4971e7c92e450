// Package codec turns captured transport bytes into text.
//
// Decoding is deliberately total: a forcibly terminated transport routinely
// truncates a multi-byte sequence at the tail of its buffer, and that must
// never hide the output captured before the cut.
package codec

import "unicode/utf8"

// Decode converts raw bytes to a string under a lossy UTF-8 policy.
// Invalid byte sequences are dropped. It never fails.
func Decode(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	if utf8.Valid(raw) {
		return string(raw)
	}
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRune(raw[i:])
		if r == utf8.RuneError && size == 1 {
			i++
			continue
		}
		out = append(out, raw[i:i+size]...)
		i += size
	}
	return string(out)
}
