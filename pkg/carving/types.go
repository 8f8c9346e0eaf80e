/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: types.go
Description: Core types for the drivehound carving engine. Defines the recovery tally,
tie-break policies, scan statistics and the configuration shared by the CLI and
library callers.
*/

package carving

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrScanInProgress is returned when Scan is called on an engine that is already scanning
var ErrScanInProgress = errors.New("scan already in progress")

// Tally maps a signature key to the number of artifacts carved for it
type Tally map[string]int

// Total returns the number of artifacts across all keys
func (t Tally) Total() int {
	total := 0
	for _, n := range t {
		total += n
	}
	return total
}

// Keys returns the tallied keys in sorted order
func (t Tally) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TieBreak selects which start marker wins when several signatures match in one window
type TieBreak string

const (
	// TieBreakCatalogOrder takes the first signature in catalog order whose marker
	// occurs anywhere in the window, even if another marker occurs earlier.
	TieBreakCatalogOrder TieBreak = "catalog-order"
	// TieBreakEarliestOffset takes the match with the smallest offset; catalog
	// order decides between matches at the same offset.
	TieBreakEarliestOffset TieBreak = "earliest-offset"
)

// ParseTieBreak converts a configuration string into a TieBreak
func ParseTieBreak(s string) (TieBreak, error) {
	switch TieBreak(s) {
	case "", TieBreakCatalogOrder:
		return TieBreakCatalogOrder, nil
	case TieBreakEarliestOffset:
		return TieBreakEarliestOffset, nil
	default:
		return "", fmt.Errorf("unknown tie-break policy: %s", s)
	}
}

// Stats describes the most recent scan
type Stats struct {
	BytesScanned int64         `json:"bytes_scanned"` // Bytes read from the source
	Chunks       int64         `json:"chunks"`        // Non-empty chunks read
	Artifacts    int           `json:"artifacts"`     // Artifacts opened
	StartTime    time.Time     `json:"start_time"`    // When the scan began
	Duration     time.Duration `json:"duration"`      // Wall time of the scan
}

// Config holds the parameters of a scan session
// Supports both command-line flags and configuration files
type Config struct {
	// Source configuration
	Source     string `json:"source"`      // Drive, partition, device or image path
	ChunkSize  int    `json:"chunk_size"`  // Bytes requested per read
	SectorSize int    `json:"sector_size"` // Sector size of the source
	Offset     int64  `json:"offset"`      // Start offset within the source

	// Signature configuration
	Signature      string   `json:"signature"`       // Restrict the catalog to one key
	SignaturesFile string   `json:"signatures_file"` // YAML signature table (defaults when empty)
	TieBreak       TieBreak `json:"tie_break"`       // Start marker tie-break policy

	// Output configuration
	OutputDir       string `json:"output_dir"`        // Directory for carved artifacts
	Digest          string `json:"digest"`            // Artifact digest (none, xxhash, blake3)
	Compression     string `json:"compression"`       // Artifact compression (none, zstd, lz4)
	Manifest        bool   `json:"manifest"`          // Write a JSON manifest next to the artifacts
	ContinueOnError bool   `json:"continue_on_error"` // Skip artifacts that cannot be created
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() *Config {
	return &Config{
		ChunkSize:   512 * 1024,
		SectorSize:  512,
		TieBreak:    TieBreakCatalogOrder,
		OutputDir:   "recovered_files",
		Digest:      "xxhash",
		Compression: "none",
		Manifest:    true,
	}
}

// Validate checks the configuration for invalid or missing values
func (c *Config) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("source must not be empty")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive")
	}
	if c.SectorSize <= 0 {
		return fmt.Errorf("sector_size must be positive")
	}
	if c.Offset < 0 {
		return fmt.Errorf("offset must not be negative")
	}
	if _, err := ParseTieBreak(string(c.TieBreak)); err != nil {
		return err
	}
	return nil
}
