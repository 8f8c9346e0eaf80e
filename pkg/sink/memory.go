/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: memory.go
Description: In-memory output sink for tests and for embedding the carving engine
where artifacts are consumed directly instead of written to disk.
*/

package sink

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/kleascm/drivehound/pkg/interfaces"
)

// Memory keeps every artifact in memory
type Memory struct {
	mu        sync.Mutex
	order     []string
	artifacts map[string]*memoryArtifact
}

// NewMemory creates an empty memory sink
func NewMemory() *Memory {
	return &Memory{artifacts: make(map[string]*memoryArtifact)}
}

// Create opens a new in-memory artifact. Names must be unique.
func (m *Memory) Create(name string) (interfaces.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.artifacts[name]; exists {
		return nil, &IOError{Op: "create", Path: name, Err: fmt.Errorf("artifact already exists")}
	}
	a := &memoryArtifact{name: name}
	m.artifacts[name] = a
	m.order = append(m.order, name)
	return a, nil
}

// Names returns artifact names in creation order
func (m *Memory) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Bytes returns the content of an artifact
func (m *Memory) Bytes(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.artifacts[name]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), a.buf.Bytes()...), true
}

// Open returns the names of artifacts that have not been closed
func (m *Memory) Open() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var open []string
	for _, name := range m.order {
		if !m.artifacts[name].closed {
			open = append(open, name)
		}
	}
	return open
}

type memoryArtifact struct {
	name   string
	buf    bytes.Buffer
	closed bool
}

func (a *memoryArtifact) Name() string {
	return a.name
}

func (a *memoryArtifact) Write(p []byte) (int, error) {
	if a.closed {
		return 0, &IOError{Op: "write", Path: a.name, Err: fmt.Errorf("artifact closed")}
	}
	return a.buf.Write(p)
}

func (a *memoryArtifact) Close() error {
	a.closed = true
	return nil
}
