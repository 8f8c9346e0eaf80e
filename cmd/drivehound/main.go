/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main.go
Description: Command-line interface for drivehound. Wires cobra commands for scanning
drives and images, listing signatures and partitions, hex conversion, manifest
verification and self-checks, with every flag bound to viper so configuration files
and DRIVEHOUND_* environment variables can override them.
*/

package main

import (
	"fmt"
	"os"

	"github.com/kleascm/drivehound/cmd/drivehound/commands"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "drivehound",
		Short: "drivehound - recover files from raw drives and disk images",
		Long: `drivehound recovers files embedded in raw byte streams such as disk images,
block devices and memory dumps by recognising format signatures instead of relying
on filesystem metadata. The source is read once, sequentially, in fixed-size chunks.`,
		Version:       commands.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Configuration file path")
	rootCmd.PersistentFlags().String("log-level", "info", "Logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "carving", "Log format (text, json, carving)")
	rootCmd.PersistentFlags().String("log-dir", "./logs", "Log output directory (empty disables log files)")
	rootCmd.PersistentFlags().Int("log-max-files", 10, "Maximum number of log files to keep")
	rootCmd.PersistentFlags().String("log-max-size", "10MiB", "Rotate log files larger than this (0 disables rotation)")
	rootCmd.PersistentFlags().Bool("log-compress", true, "Gzip rotated log files")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable coloured console output")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("log_dir", rootCmd.PersistentFlags().Lookup("log-dir"))
	viper.BindPFlag("log_max_files", rootCmd.PersistentFlags().Lookup("log-max-files"))
	viper.BindPFlag("log_max_size", rootCmd.PersistentFlags().Lookup("log-max-size"))
	viper.BindPFlag("log_compress", rootCmd.PersistentFlags().Lookup("log-compress"))
	viper.BindPFlag("no_color", rootCmd.PersistentFlags().Lookup("no-color"))

	// Signature selection is shared by scan, signatures and check
	signatureFlags := func(cmd *cobra.Command) {
		cmd.Flags().String("signature", "", "Restrict the scan to one signature key")
		cmd.Flags().String("signatures-file", "", "YAML signature table (built-in table when empty)")
	}

	scanCmd := &cobra.Command{
		Use:   "scan <drive|partition|image>",
		Short: "Carve files out of a drive, partition or image",
		Long: `Scan a source from start to end and write every recognised file to the
output directory as <signature>_<n><extension>. Files without an end signature run
to the end of the source. Interrupting the scan closes all open files and keeps
what was recovered so far.`,
		Args: cobra.ExactArgs(1),
		RunE: commands.RunScan,
	}
	signatureFlags(scanCmd)
	scanCmd.Flags().StringP("output", "o", "recovered_files", "Directory for recovered files")
	scanCmd.Flags().Int("chunk-size", 512*1024, "Bytes read per chunk")
	scanCmd.Flags().Int("sector-size", 512, "Sector size of the source")
	scanCmd.Flags().Int64("offset", 0, "Byte offset to start scanning from")
	scanCmd.Flags().String("tie-break", "catalog-order", "Start signature tie-break (catalog-order, earliest-offset)")
	scanCmd.Flags().String("digest", "xxhash", "Digest of recovered files (none, xxhash, blake3)")
	scanCmd.Flags().String("compression", "none", "Compression of recovered files (none, zstd, lz4)")
	scanCmd.Flags().Bool("manifest", true, "Write a JSON manifest of the scan")
	scanCmd.Flags().Bool("continue-on-error", false, "Skip files that cannot be created instead of aborting")

	rootCmd.AddCommand(scanCmd)

	signaturesCmd := &cobra.Command{
		Use:   "signatures [key]",
		Short: "List the active signature table",
		Long: `List every signature that a scan would use, in matching order, with its
start and end markers in hex, or show a single signature by key. Use --export to
write the table as YAML for editing.`,
		Args: cobra.MaximumNArgs(1),
		RunE: commands.ListSignatures,
	}
	signatureFlags(signaturesCmd)
	signaturesCmd.Flags().String("export", "", "Write the table as YAML to this path")

	rootCmd.AddCommand(signaturesCmd)

	partitionsCmd := &cobra.Command{
		Use:   "partitions",
		Short: "List available drives and partitions",
		Args:  cobra.NoArgs,
		RunE:  commands.ListPartitions,
	}
	partitionsCmd.Flags().Bool("all", false, "Include virtual and pseudo filesystems")

	rootCmd.AddCommand(partitionsCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "hex <text|hex>",
		Short: "Convert between ASCII text and hex",
		Long: `Decode the argument when it is a hex string, otherwise encode it as hex.
Handy for writing start and end markers of custom signatures.`,
		Args: cobra.MinimumNArgs(1),
		RunE: commands.ConvertHex,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "verify <manifest>",
		Short: "Verify recovered files against a scan manifest",
		Long: `Re-read every file listed in a scan manifest from the manifest's directory,
decompressing where needed, and compare sizes and digests with the recorded values.`,
		Args: cobra.ExactArgs(1),
		RunE: commands.VerifyManifest,
	})

	checkCmd := &cobra.Command{
		Use:   "check [source]",
		Short: "Perform built-in self-checks before a scan",
		Long: `Validate the signature table, the output and log directories and, when given,
that the source can be opened and read.`,
		Args: cobra.MaximumNArgs(1),
		RunE: commands.PerformSelfCheck,
	}
	signatureFlags(checkCmd)
	checkCmd.Flags().StringP("output", "o", "recovered_files", "Directory for recovered files")

	rootCmd.AddCommand(checkCmd)

	return rootCmd
}
