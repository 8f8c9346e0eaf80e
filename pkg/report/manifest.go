/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: manifest.go
Description: Scan manifest. Records one scan session (source, catalog, tally, stats,
every artifact with its digest and the source offset it was carved from) and writes
it as an indented JSON file into the output directory for later verification.
*/

package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/kleascm/drivehound/pkg/carving"
	"github.com/kleascm/drivehound/pkg/sink"
)

// Manifest describes a finished scan session
type Manifest struct {
	SessionID  string           `json:"session_id"`
	Version    string           `json:"version"`
	Source     string           `json:"source"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Signatures []string         `json:"signatures"`
	TieBreak   carving.TieBreak `json:"tie_break"`
	Tally      carving.Tally    `json:"tally"`
	Stats      carving.Stats    `json:"stats"`
	Artifacts  []sink.Record    `json:"artifacts"`
	Carved     []CarvedFile     `json:"carved"`
	Warnings   []string         `json:"warnings,omitempty"`
	LogFile    string           `json:"log_file,omitempty"`
	Error      string           `json:"error,omitempty"` // Set when the scan was cancelled or aborted
}

// CarvedFile records where an artifact was found in the source
type CarvedFile struct {
	Signature  string `json:"signature"`
	Name       string `json:"name"`
	Offset     int64  `json:"offset"`
	Size       int64  `json:"size"`
	Terminated bool   `json:"terminated"`
}

// NewManifest starts a manifest with a fresh session ID
func NewManifest(version, source string, signatures []string, tieBreak carving.TieBreak) *Manifest {
	return &Manifest{
		SessionID:  uuid.NewString(),
		Version:    version,
		Source:     source,
		StartedAt:  time.Now(),
		Signatures: signatures,
		TieBreak:   tieBreak,
		Tally:      carving.Tally{},
	}
}

// Recorder returns a carving reporter that adds completed artifacts and warnings
// to the manifest
func (m *Manifest) Recorder() carving.Reporter {
	return manifestRecorder{m}
}

type manifestRecorder struct {
	m *Manifest
}

func (r manifestRecorder) OnFound(carving.Found) {}

func (r manifestRecorder) OnCompleted(ev carving.Completed) {
	r.m.Carved = append(r.m.Carved, CarvedFile{
		Signature:  ev.Key,
		Name:       ev.Name,
		Offset:     ev.Offset,
		Size:       ev.Size,
		Terminated: ev.Terminated,
	})
}

func (r manifestRecorder) OnWarning(ev carving.Warning) {
	msg := ev.Message
	if ev.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, ev.Err)
	}
	r.m.Warnings = append(r.m.Warnings, msg)
}

// Finish records the outcome of the scan
func (m *Manifest) Finish(tally carving.Tally, stats carving.Stats, artifacts []sink.Record, scanErr error) {
	m.FinishedAt = time.Now()
	if tally != nil {
		m.Tally = tally
	}
	m.Stats = stats
	m.Artifacts = artifacts
	if scanErr != nil {
		m.Error = scanErr.Error()
	}
}

// Write stores the manifest in dir and returns the file path.
// Name format: manifest_2024-06-11_01-30-00_<session prefix>.json
func (m *Manifest) Write(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create manifest directory: %w", err)
	}

	timestamp := m.StartedAt.Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("manifest_%s_%s.json", timestamp, m.SessionID[:8])
	path := filepath.Join(dir, filename)

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest file: %w", err)
	}

	return path, nil
}

// ReadManifest loads a manifest written by Write
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &m, nil
}
