/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: loader.go
Description: YAML signature files. A file is a list of entries with hex encoded
markers, read in order so the file order is the matching order.
*/

package signatures

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileEntry is the on-disk form of a signature
type fileEntry struct {
	Key       string `yaml:"key"`
	Start     string `yaml:"start"`
	End       string `yaml:"end,omitempty"`
	Extension string `yaml:"extension"`
}

type signatureFile struct {
	Signatures []fileEntry `yaml:"signatures"`
}

// LoadFile reads a YAML signature table from disk
func LoadFile(path string) ([]Signature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read signature file: %w", err)
	}
	sigs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sigs, nil
}

// Parse decodes a YAML signature table. Entries with an empty start marker are
// kept so that Build can report them.
func Parse(data []byte) ([]Signature, error) {
	var file signatureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse signature file: %w", err)
	}

	out := make([]Signature, 0, len(file.Signatures))
	for i, entry := range file.Signatures {
		if entry.Key == "" {
			return nil, fmt.Errorf("signature #%d: missing key", i)
		}
		start, err := ParseHex(entry.Start)
		if err != nil {
			return nil, fmt.Errorf("signature %s: start: %w", entry.Key, err)
		}
		end, err := ParseHex(entry.End)
		if err != nil {
			return nil, fmt.Errorf("signature %s: end: %w", entry.Key, err)
		}
		out = append(out, Signature{
			Key:       entry.Key,
			Start:     start,
			End:       end,
			Extension: entry.Extension,
		})
	}
	return out, nil
}

// Marshal encodes a signature table in the file format read by Parse
func Marshal(sigs []Signature) ([]byte, error) {
	file := signatureFile{Signatures: make([]fileEntry, 0, len(sigs))}
	for _, sig := range sigs {
		entry := fileEntry{
			Key:       sig.Key,
			Start:     EncodeHex(sig.Start),
			Extension: sig.Extension,
		}
		if sig.HasEnd() {
			entry.End = EncodeHex(sig.End)
		}
		file.Signatures = append(file.Signatures, entry)
	}
	return yaml.Marshal(&file)
}
