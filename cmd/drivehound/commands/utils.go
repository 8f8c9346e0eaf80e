/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Shared utilities for drivehound commands. Loads configuration from files
and the environment, binds the running command's flags to viper, sets up logging and
builds scan configurations and signature tables.
*/

package commands

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/kleascm/drivehound/pkg/carving"
	"github.com/kleascm/drivehound/pkg/logging"
	"github.com/kleascm/drivehound/pkg/signatures"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version is reported by --version and recorded in scan manifests
const Version = "1.0.0"

// flagKeys maps command flags to configuration keys
var flagKeys = map[string]string{
	"signature":         "signature",
	"signatures-file":   "signatures_file",
	"output":            "output_dir",
	"chunk-size":        "chunk_size",
	"sector-size":       "sector_size",
	"offset":            "offset",
	"tie-break":         "tie_break",
	"digest":            "digest",
	"compression":       "compression",
	"manifest":          "manifest",
	"continue-on-error": "continue_on_error",
}

// bindCommandFlags binds the flags of the running command. Several commands share
// flag names, so binding happens per invocation rather than at construction.
func bindCommandFlags(cmd *cobra.Command) error {
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		err = viper.BindPFlag(key, f)
	})
	return err
}

// LoadConfig loads configuration from files and environment
func LoadConfig(cmd *cobra.Command) error {
	if err := bindCommandFlags(cmd); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	viper.SetEnvPrefix("DRIVEHOUND")
	viper.AutomaticEnv()

	return nil
}

// SetupLogging creates the session logger from configuration
func SetupLogging(cmd *cobra.Command) (*logging.Logger, error) {
	config := &logging.LoggerConfig{
		Level:     logging.LogLevel(viper.GetString("log_level")),
		Format:    logging.LogFormat(viper.GetString("log_format")),
		OutputDir: viper.GetString("log_dir"),
		MaxFiles:  viper.GetInt("log_max_files"),
		Timestamp: true,
		Colors:    !viper.GetBool("no_color"),
		Console:   cmd.ErrOrStderr(),
	}
	if config.Level == "" {
		config.Level = logging.LogLevelInfo
	}
	if config.Format == "" {
		config.Format = logging.LogFormatCarving
	}
	if config.MaxFiles <= 0 {
		config.MaxFiles = 10
	}
	if maxSize := viper.GetString("log_max_size"); maxSize != "" {
		size, err := humanize.ParseBytes(maxSize)
		if err != nil {
			return nil, fmt.Errorf("invalid log max size %q: %w", maxSize, err)
		}
		config.MaxSize = int64(size)
	}
	config.Compress = viper.GetBool("log_compress")

	logger, err := logging.NewLogger(config)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}
	return logger, nil
}

// BuildScanConfig assembles and validates the scan configuration for a source
func BuildScanConfig(src string) (*carving.Config, error) {
	config := carving.DefaultConfig()
	config.Source = src

	if viper.IsSet("output_dir") {
		config.OutputDir = viper.GetString("output_dir")
	}
	if viper.IsSet("chunk_size") {
		config.ChunkSize = viper.GetInt("chunk_size")
	}
	if viper.IsSet("sector_size") {
		config.SectorSize = viper.GetInt("sector_size")
	}
	if viper.IsSet("digest") {
		config.Digest = viper.GetString("digest")
	}
	if viper.IsSet("compression") {
		config.Compression = viper.GetString("compression")
	}
	if viper.IsSet("manifest") {
		config.Manifest = viper.GetBool("manifest")
	}
	config.Offset = viper.GetInt64("offset")
	config.Signature = viper.GetString("signature")
	config.SignaturesFile = viper.GetString("signatures_file")
	config.ContinueOnError = viper.GetBool("continue_on_error")

	tieBreak, err := carving.ParseTieBreak(viper.GetString("tie_break"))
	if err != nil {
		return nil, err
	}
	config.TieBreak = tieBreak

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scan configuration: %w", err)
	}
	return config, nil
}

// loadCatalog builds the catalog from the configured table and restriction
func loadCatalog(signaturesFile, restrictTo string) (*signatures.Catalog, error) {
	table := signatures.Defaults()
	if signaturesFile != "" {
		loaded, err := signatures.LoadFile(signaturesFile)
		if err != nil {
			return nil, err
		}
		table = loaded
	}
	return signatures.Build(table, restrictTo)
}

// checkWritableDir creates dir if needed and writes a temporary file into it
func checkWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".drivehound-check-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	tmp.Close()
	return os.Remove(name)
}
