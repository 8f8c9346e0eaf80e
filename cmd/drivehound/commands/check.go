/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: check.go
Description: Self-check command. Validates the signature table, the output and log
directories and, when a source is given, that it can be opened and read. Reports how
many log files the log directory holds.
*/

package commands

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/kleascm/drivehound/pkg/logging"
	"github.com/kleascm/drivehound/pkg/signatures"
	"github.com/kleascm/drivehound/pkg/source"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type selfCheck struct {
	name     string
	function func() (string, error)
}

// PerformSelfCheck runs every check and fails if any of them fails
func PerformSelfCheck(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(cmd); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "drivehound - System Self-Check")
	fmt.Fprintln(out, "==============================")

	checks := []selfCheck{
		{"Signature table", checkSignatureTable},
		{"Output directory", func() (string, error) { return checkDirectory(viper.GetString("output_dir")) }},
	}
	if logDir := viper.GetString("log_dir"); logDir != "" {
		checks = append(checks, selfCheck{"Log directory", func() (string, error) { return checkLogDirectory(logDir) }})
	}
	if len(args) == 1 {
		src := args[0]
		checks = append(checks, selfCheck{"Source", func() (string, error) { return checkSource(src) }})
	}

	passed := 0
	for _, check := range checks {
		detail, err := check.function()
		if err != nil {
			fmt.Fprintf(out, "%-18s FAILED: %v\n", check.name, err)
			continue
		}
		fmt.Fprintf(out, "%-18s PASSED %s\n", check.name, detail)
		passed++
	}

	fmt.Fprintf(out, "\nResults: %d/%d checks passed\n", passed, len(checks))
	if passed != len(checks) {
		return fmt.Errorf("%d/%d checks failed", len(checks)-passed, len(checks))
	}
	return nil
}

func checkSignatureTable() (string, error) {
	catalog, err := loadCatalog(viper.GetString("signatures_file"), viper.GetString("signature"))
	if err != nil {
		return "", err
	}
	if catalog.Empty() {
		return "", fmt.Errorf("no usable signatures: %w", signatures.ErrEmptyStart)
	}
	return fmt.Sprintf("(%d signatures)", catalog.Len()), nil
}

func checkDirectory(dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("no directory configured")
	}
	if err := checkWritableDir(dir); err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s writable)", dir), nil
}

func checkLogDirectory(dir string) (string, error) {
	if err := checkWritableDir(dir); err != nil {
		return "", err
	}
	stats, err := logging.NewLogManager(dir, 0, 0, false).GetLogStats()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s writable, %d log files, %d compressed, %s)",
		dir, stats.TotalFiles, stats.CompressedFiles, humanize.IBytes(uint64(stats.TotalSize))), nil
}

func checkSource(path string) (string, error) {
	reader, err := source.Open(path, source.Options{})
	if err != nil {
		return "", err
	}
	defer reader.Close()

	chunk, err := reader.ReadChunk()
	if err != nil {
		return "", err
	}
	detail := fmt.Sprintf("(%s readable", reader.Path())
	if size, err := reader.Size(); err == nil {
		detail += ", " + humanize.IBytes(uint64(size))
	}
	if len(chunk) == 0 {
		detail += ", empty"
	}
	return detail + ")", nil
}
