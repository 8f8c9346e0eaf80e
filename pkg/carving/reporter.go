/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: reporter.go
Description: Reporter interface and implementations for carving events. The engine
never logs on its own; it notifies an injected reporter when a start marker is
found, when an artifact is completed and when something is skipped.
*/

package carving

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Found is emitted when a start marker opens a new artifact
type Found struct {
	Key    string
	Name   string
	Offset int64
}

// Completed is emitted when an artifact is closed
type Completed struct {
	Key        string
	Name       string
	Offset     int64
	Size       int64
	Terminated bool // The end marker was seen; false when finalized at end-of-stream
}

// Warning is emitted for conditions that do not stop the scan
type Warning struct {
	Key     string
	Message string
	Err     error
}

// Reporter receives carving events
type Reporter interface {
	// OnFound is called when a start marker opens an artifact
	OnFound(ev Found)
	// OnCompleted is called after an artifact is closed
	OnCompleted(ev Completed)
	// OnWarning is called for skipped signatures or artifacts
	OnWarning(ev Warning)
}

// NopReporter discards all events
type NopReporter struct{}

func (NopReporter) OnFound(Found)         {}
func (NopReporter) OnCompleted(Completed) {}
func (NopReporter) OnWarning(Warning)     {}

// MultiReporter fans events out to several reporters in order
type MultiReporter []Reporter

func (m MultiReporter) OnFound(ev Found) {
	for _, r := range m {
		r.OnFound(ev)
	}
}

func (m MultiReporter) OnCompleted(ev Completed) {
	for _, r := range m {
		r.OnCompleted(ev)
	}
}

func (m MultiReporter) OnWarning(ev Warning) {
	for _, r := range m {
		r.OnWarning(ev)
	}
}

// LoggerReporter logs carving events through logrus
type LoggerReporter struct {
	logger logrus.FieldLogger
}

// NewLoggerReporter creates a new LoggerReporter.
func NewLoggerReporter(logger logrus.FieldLogger) *LoggerReporter {
	return &LoggerReporter{logger: logger}
}

// OnFound logs a newly opened artifact.
func (r *LoggerReporter) OnFound(ev Found) {
	r.logger.WithFields(logrus.Fields{
		"signature": ev.Key,
		"artifact":  ev.Name,
		"offset":    fmt.Sprintf("0x%x", ev.Offset),
	}).Info("Found signature")
}

// OnCompleted logs a closed artifact.
func (r *LoggerReporter) OnCompleted(ev Completed) {
	fields := logrus.Fields{
		"signature": ev.Key,
		"artifact":  ev.Name,
		"offset":    fmt.Sprintf("0x%x", ev.Offset),
		"size":      ev.Size,
	}
	if ev.Terminated {
		r.logger.WithFields(fields).Info("Completed artifact")
		return
	}
	r.logger.WithFields(fields).Info("Completed artifact (no end signature)")
}

// OnWarning logs skipped work.
func (r *LoggerReporter) OnWarning(ev Warning) {
	entry := r.logger.WithField("signature", ev.Key)
	if ev.Err != nil {
		entry = entry.WithError(ev.Err)
	}
	entry.Warn(ev.Message)
}
