/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: verify.go
Description: Manifest verification. Checks every artifact listed in a manifest
against the file stored next to it.
*/

package report

import (
	"path/filepath"

	"github.com/kleascm/drivehound/pkg/sink"
)

// Check is the verification outcome for one artifact
type Check struct {
	Name string
	Err  error
}

// Verify loads the manifest at path and checks each recorded artifact. Artifacts
// are looked up in the manifest's directory so a moved output directory still
// verifies.
func Verify(path string) (*Manifest, []Check, error) {
	m, err := ReadManifest(path)
	if err != nil {
		return nil, nil, err
	}

	dir := filepath.Dir(path)
	checks := make([]Check, 0, len(m.Artifacts))
	for _, rec := range m.Artifacts {
		stored := filepath.Join(dir, filepath.Base(rec.Path))
		checks = append(checks, Check{Name: rec.Name, Err: sink.Verify(rec, stored)})
	}
	return m, checks, nil
}

// Failed counts checks that did not pass
func Failed(checks []Check) int {
	n := 0
	for _, c := range checks {
		if c.Err != nil {
			n++
		}
	}
	return n
}
