/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: verify.go
Description: Verify command. Re-reads the artifacts listed in a scan manifest and
checks their sizes and digests.
*/

package commands

import (
	"fmt"

	"github.com/kleascm/drivehound/pkg/report"
	"github.com/spf13/cobra"
)

// VerifyManifest checks every artifact recorded in the manifest given as argument
func VerifyManifest(cmd *cobra.Command, args []string) error {
	manifest, checks, err := report.Verify(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session %s, source %s\n", manifest.SessionID, manifest.Source)
	if manifest.Error != "" {
		fmt.Fprintf(out, "Scan ended early: %s\n", manifest.Error)
	}

	for _, check := range checks {
		if check.Err != nil {
			fmt.Fprintf(out, "  FAILED %s: %v\n", check.Name, check.Err)
			continue
		}
		fmt.Fprintf(out, "  OK     %s\n", check.Name)
	}

	failed := report.Failed(checks)
	fmt.Fprintf(out, "\nVerified %d/%d artifacts\n", len(checks)-failed, len(checks))
	if failed > 0 {
		return fmt.Errorf("%d/%d artifacts failed verification", failed, len(checks))
	}
	return nil
}
