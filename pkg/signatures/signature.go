/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: signature.go
Description: Signature type for drivehound. A signature identifies a recoverable file
format by its start marker, an optional end marker and the extension used for
carved artifacts.
*/

package signatures

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnknownSignature is wrapped by ConfigurationError when a restrict key is missing
	ErrUnknownSignature = errors.New("unknown signature")
	// ErrEmptyStart marks a signature that has no start marker
	ErrEmptyStart = errors.New("signature has no start marker")
)

// Signature describes one recoverable format
type Signature struct {
	Key       string `json:"key"`           // Stable identifier, used in artifact names
	Start     []byte `json:"start"`         // Start marker, never empty in a built catalog
	End       []byte `json:"end,omitempty"` // End marker, nil when the format streams to EOF
	Extension string `json:"extension"`     // Extension including the leading dot
}

// HasEnd reports whether the signature carries an end marker
func (s Signature) HasEnd() bool {
	return len(s.End) > 0
}

// Validate checks that the signature can be used for carving
func (s Signature) Validate() error {
	if s.Key == "" {
		return fmt.Errorf("signature key must not be empty")
	}
	if len(s.Start) == 0 {
		return fmt.Errorf("%s: %w", s.Key, ErrEmptyStart)
	}
	return nil
}

// String renders the signature for listings
func (s Signature) String() string {
	end := "-"
	if s.HasEnd() {
		end = EncodeHex(s.End)
	}
	return fmt.Sprintf("%s start=%s end=%s ext=%s", s.Key, EncodeHex(s.Start), end, s.Extension)
}

// Entry is the value half of a key-value signature table
type Entry struct {
	Start     []byte
	End       []byte
	Extension string
}

// FromMap turns a key-value table into an ordered signature list.
// Map iteration order is random, so keys are sorted to keep matching deterministic.
func FromMap(table map[string]Entry) []Signature {
	keys := make([]string, 0, len(table))
	for key := range table {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]Signature, 0, len(keys))
	for _, key := range keys {
		entry := table[key]
		out = append(out, Signature{
			Key:       key,
			Start:     entry.Start,
			End:       entry.End,
			Extension: entry.Extension,
		})
	}
	return out
}
