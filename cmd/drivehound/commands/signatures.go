/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: signatures.go
Description: Signatures command. Prints the active signature table in matching order,
shows a single signature by key and optionally exports the table as an editable YAML
file.
*/

package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/kleascm/drivehound/pkg/signatures"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ListSignatures prints the signature table a scan would use
func ListSignatures(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(cmd); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	catalog, err := loadCatalog(viper.GetString("signatures_file"), viper.GetString("signature"))
	if err != nil {
		return fmt.Errorf("failed to load signatures: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, warning := range catalog.Warnings() {
		fmt.Fprintf(out, "warning: %s\n", warning)
	}

	if len(args) == 1 {
		return showSignature(cmd, catalog, args[0])
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tKEY\tSTART\tEND\tEXT")
	for i, sig := range catalog.Signatures() {
		end := "-"
		if sig.HasEnd() {
			end = signatures.EncodeHex(sig.End)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, sig.Key, signatures.EncodeHex(sig.Start), end, sig.Extension)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d signatures, longest start marker %d bytes\n", catalog.Len(), catalog.MaxStartLength())

	export, _ := cmd.Flags().GetString("export")
	if export == "" {
		return nil
	}

	data, err := signatures.Marshal(catalog.Signatures())
	if err != nil {
		return err
	}
	if err := os.WriteFile(export, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", export, err)
	}
	fmt.Fprintf(out, "Exported to %s\n", export)
	return nil
}

// showSignature prints one signature with its markers in hex and as text
func showSignature(cmd *cobra.Command, catalog *signatures.Catalog, key string) error {
	sig, ok := catalog.Lookup(key)
	if !ok {
		return fmt.Errorf("unknown signature %q (available: %s)", key, strings.Join(catalog.Keys(), ", "))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Key:       %s\n", sig.Key)
	fmt.Fprintf(out, "Extension: %s\n", sig.Extension)
	fmt.Fprintf(out, "Start:     %s  %q\n", signatures.EncodeHex(sig.Start), sig.Start)
	if sig.HasEnd() {
		fmt.Fprintf(out, "End:       %s  %q\n", signatures.EncodeHex(sig.End), sig.End)
	} else {
		fmt.Fprintln(out, "End:       none (runs to end of source)")
	}
	return nil
}
