/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: hex.go
Description: Hex command. Converts between ASCII text and hex markers.
*/

package commands

import (
	"fmt"
	"strings"

	"github.com/kleascm/drivehound/pkg/signatures"
	"github.com/spf13/cobra"
)

// ConvertHex decodes hex arguments and encodes anything else
func ConvertHex(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(cmd.OutOrStdout(), signatures.Convert(strings.Join(args, " ")))
	return nil
}
