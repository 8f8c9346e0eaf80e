/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: hex.go
Description: Hex helpers for marker bytes. Markers are written as hex strings in
signature files and listings; Convert is the ascii/hex converter behind the
hex command.
*/

package signatures

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ParseHex decodes a marker written as hex. Spaces and an optional 0x prefix are ignored.
func ParseHex(s string) ([]byte, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "0x")
	cleaned = strings.TrimPrefix(cleaned, "0X")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if cleaned == "" {
		return nil, nil
	}
	if len(cleaned)%2 != 0 {
		return nil, fmt.Errorf("invalid hex marker %q: odd length", s)
	}
	b, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("invalid hex marker %q: %w", s, err)
	}
	return b, nil
}

// EncodeHex renders marker bytes as upper-case hex
func EncodeHex(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}

// Convert decodes input to text when it is a hex string, otherwise encodes it to hex
func Convert(input string) string {
	stripped := strings.TrimSpace(input)
	if isHex(strings.ReplaceAll(stripped, " ", "")) {
		if b, err := ParseHex(stripped); err == nil {
			return string(b)
		}
	}
	return hex.EncodeToString([]byte(stripped))
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
