/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: partitions.go
Description: Partitions command. Lists drives and partitions that can be scanned.
*/

package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/kleascm/drivehound/pkg/source"
	"github.com/spf13/cobra"
)

// ListPartitions prints the partitions reported by the operating system
func ListPartitions(cmd *cobra.Command, args []string) error {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, 10*time.Second)
	defer cancel()

	all, _ := cmd.Flags().GetBool("all")
	partitions, err := source.ListPartitions(ctx, all)
	if err != nil {
		return err
	}
	return printPartitions(cmd, partitions)
}

func printPartitions(cmd *cobra.Command, partitions []source.Partition) error {
	out := cmd.OutOrStdout()
	if len(partitions) == 0 {
		fmt.Fprintln(out, "No partitions found")
		return nil
	}

	fmt.Fprintln(out, "Available partitions:")
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for i, p := range partitions {
		fmt.Fprintf(tw, "%3d.\t%s\t%s\t%s\n", i+1, p.Device, p.Mountpoint, p.Fstype)
	}
	return tw.Flush()
}
