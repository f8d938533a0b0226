// Package encoding provides text encoding utilities for fixed-size name fields.
//
// Names in PSK/PSA records are stored in the exporting tool's ANSI code page
// (Windows-1252) inside zero-padded buffers with no guaranteed terminator.
package encoding

import (
	"bytes"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ANSIToUTF8 converts Windows-1252 encoded bytes to a UTF-8 string.
// Returns the original bytes as a string if conversion fails.
func ANSIToUTF8(data []byte) string {
	result, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// UTF8ToANSI converts a UTF-8 string to Windows-1252 bytes.
// Characters outside the code page are replaced with '?'.
func UTF8ToANSI(s string) []byte {
	encoder := charmap.Windows1252.NewEncoder()
	result, _, err := transform.Bytes(encoder, []byte(s))
	if err == nil {
		return result
	}

	// Fall back to per-rune encoding so one bad character doesn't lose the name.
	var out []byte
	for _, r := range s {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return out
}

// FixedStringToUTF8 converts a fixed-size name buffer to a UTF-8 string.
// The name ends at the first null byte or at the end of the buffer.
func FixedStringToUTF8(data []byte) string {
	if nullIdx := bytes.IndexByte(data, 0); nullIdx >= 0 {
		data = data[:nullIdx]
	}
	return ANSIToUTF8(data)
}

// PutFixedString encodes s into buf, truncating to len(buf) and zero-padding
// the remainder. A name that fills the buffer has no terminator.
func PutFixedString(buf []byte, s string) {
	n := copy(buf, UTF8ToANSI(s))
	clear(buf[n:])
}
