/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: catalog.go
Description: Immutable signature catalog. Built once per scan from a caller supplied
table, optionally restricted to a single key, with unusable entries filtered out.
Exposes the longest start marker so the carving engine can size its rolling buffer.
*/

package signatures

import (
	"fmt"
)

// ConfigurationError reports an invalid catalog request. It is fatal and not retried.
type ConfigurationError struct {
	Key string
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("signature catalog: %q: %v", e.Key, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Catalog is the read-only, ordered set of signatures used by one scan
type Catalog struct {
	signatures []Signature
	index      map[string]int
	maxStart   int
	warnings   []string
}

// Build validates and filters a signature table.
// If restrictTo is non-empty the catalog holds only that key, and a missing key
// yields a *ConfigurationError. Entries without a start marker are dropped and
// reported through Warnings.
func Build(table []Signature, restrictTo string) (*Catalog, error) {
	if restrictTo != "" {
		found := false
		for _, sig := range table {
			if sig.Key == restrictTo {
				found = true
				break
			}
		}
		if !found {
			return nil, &ConfigurationError{Key: restrictTo, Err: ErrUnknownSignature}
		}
	}

	c := &Catalog{
		signatures: make([]Signature, 0, len(table)),
		index:      make(map[string]int, len(table)),
	}

	for _, sig := range table {
		if restrictTo != "" && sig.Key != restrictTo {
			continue
		}
		if err := sig.Validate(); err != nil {
			c.warnings = append(c.warnings, fmt.Sprintf("skipping signature: %v", err))
			continue
		}
		if _, dup := c.index[sig.Key]; dup {
			c.warnings = append(c.warnings, fmt.Sprintf("skipping duplicate signature %q", sig.Key))
			continue
		}
		c.index[sig.Key] = len(c.signatures)
		c.signatures = append(c.signatures, cloneSignature(sig))
		if len(sig.Start) > c.maxStart {
			c.maxStart = len(sig.Start)
		}
	}

	if len(c.signatures) == 0 {
		c.warnings = append(c.warnings, "no signatures with a valid start marker; nothing will be carved")
		c.maxStart = 1
	}

	return c, nil
}

// MustBuild is Build for static tables known to be valid
func MustBuild(table []Signature) *Catalog {
	c, err := Build(table, "")
	if err != nil {
		panic(err)
	}
	return c
}

// Signatures returns the catalog in insertion order
func (c *Catalog) Signatures() []Signature {
	out := make([]Signature, len(c.signatures))
	copy(out, c.signatures)
	return out
}

// At returns the i-th signature without copying the table
func (c *Catalog) At(i int) Signature {
	return c.signatures[i]
}

// Lookup finds a signature by key
func (c *Catalog) Lookup(key string) (Signature, bool) {
	i, ok := c.index[key]
	if !ok {
		return Signature{}, false
	}
	return c.signatures[i], true
}

// Keys returns signature keys in catalog order
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.signatures))
	for i, sig := range c.signatures {
		keys[i] = sig.Key
	}
	return keys
}

// Len returns the number of usable signatures
func (c *Catalog) Len() int {
	return len(c.signatures)
}

// Empty reports whether nothing can be carved with this catalog
func (c *Catalog) Empty() bool {
	return len(c.signatures) == 0
}

// MaxStartLength is the longest start marker, or 1 for an empty catalog
func (c *Catalog) MaxStartLength() int {
	return c.maxStart
}

// Warnings lists what Build filtered out, for the caller to log
func (c *Catalog) Warnings() []string {
	out := make([]string, len(c.warnings))
	copy(out, c.warnings)
	return out
}

func cloneSignature(sig Signature) Signature {
	sig.Start = append([]byte(nil), sig.Start...)
	if sig.End != nil {
		sig.End = append([]byte(nil), sig.End...)
	}
	return sig
}
