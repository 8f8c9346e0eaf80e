/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: scan.go
Description: Scan command implementation. Opens the source, builds the signature
catalog and output sink, runs the carving engine with graceful shutdown on
interrupt, then prints the recovery summary and writes the scan manifest.
*/

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/kleascm/drivehound/pkg/carving"
	"github.com/kleascm/drivehound/pkg/report"
	"github.com/kleascm/drivehound/pkg/sink"
	"github.com/kleascm/drivehound/pkg/source"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// RunScan carves files out of the source named by the first argument
func RunScan(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(cmd); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := SetupLogging(cmd)
	if err != nil {
		return err
	}
	defer logger.Close()
	log := logger.GetLogger()

	config, err := BuildScanConfig(args[0])
	if err != nil {
		return err
	}

	catalog, err := loadCatalog(config.SignaturesFile, config.Signature)
	if err != nil {
		return fmt.Errorf("failed to load signatures: %w", err)
	}
	for _, warning := range catalog.Warnings() {
		log.Warn(warning)
	}

	reader, err := source.Open(config.Source, source.Options{
		ChunkSize:  config.ChunkSize,
		SectorSize: config.SectorSize,
	})
	if err != nil {
		return err
	}
	defer reader.Close()

	if config.Offset > 0 {
		if err := reader.Seek(config.Offset); err != nil {
			return err
		}
	}

	out, err := sink.NewDir(config.OutputDir, sink.Options{
		Digest:      config.Digest,
		Compression: config.Compression,
	})
	if err != nil {
		return fmt.Errorf("invalid output options: %w", err)
	}

	manifest := report.NewManifest(Version, config.Source, catalog.Keys(), config.TieBreak)
	manifest.LogFile = logger.FilePath()
	reporter := carving.MultiReporter{logger.Reporter(manifest.SessionID), manifest.Recorder()}
	engine := carving.NewEngine(catalog, out,
		carving.WithReporter(reporter),
		carving.WithTieBreak(config.TieBreak),
		carving.WithContinueOnCreateError(config.ContinueOnError),
	)

	// Set up signal handling for graceful shutdown
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fields := logrus.Fields{
		"output_dir": config.OutputDir,
		"chunk_size": humanize.IBytes(uint64(reader.ChunkSize())),
		"tie_break":  config.TieBreak,
	}
	if size, err := reader.Size(); err == nil {
		fields["size"] = humanize.IBytes(uint64(size))
	}
	logger.LogScanStart(manifest.SessionID, reader.Path(), catalog.Len(), fields)

	tally, scanErr := engine.Scan(ctx, reader)
	stats := engine.Stats()

	if errors.Is(scanErr, context.Canceled) {
		log.Warn("Scan interrupted, keeping files recovered so far")
	}

	logger.LogSummary(manifest.SessionID, tally, stats)
	if err := report.WriteSummary(cmd.OutOrStdout(), tally, stats); err != nil {
		return err
	}

	if config.Manifest {
		manifest.Finish(tally, stats, out.Artifacts(), scanErr)
		path, err := manifest.Write(config.OutputDir)
		if err != nil {
			return errors.Join(scanErr, err)
		}
		log.WithField("manifest", path).Info("Manifest written")
	}

	if scanErr != nil {
		return fmt.Errorf("scan of %s failed: %w", config.Source, scanErr)
	}
	return nil
}
