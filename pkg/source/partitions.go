/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: partitions.go
Description: Partition listing. Asks the operating system for mounted partitions
through gopsutil and returns the device path or drive letter of each entry with
its mount point and filesystem type.
*/

package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v4/disk"
)

// Partition is a mounted partition that can be scanned
type Partition struct {
	Device     string
	Mountpoint string
	Fstype     string
}

// ListPartitions lists partitions available for scanning. With all set, virtual
// and pseudo filesystems are included as well.
func ListPartitions(ctx context.Context, all bool) ([]Partition, error) {
	stats, err := disk.PartitionsWithContext(ctx, all)
	if err != nil && len(stats) == 0 {
		return nil, fmt.Errorf("unable to list partitions: %w", err)
	}
	return collectPartitions(stats), nil
}

// collectPartitions keeps the first entry of every named device
func collectPartitions(stats []disk.PartitionStat) []Partition {
	seen := make(map[string]bool, len(stats))
	var partitions []Partition
	for _, stat := range stats {
		device := strings.TrimSpace(stat.Device)
		if device == "" || device == "none" || seen[device] {
			continue
		}
		seen[device] = true
		partitions = append(partitions, Partition{
			Device:     device,
			Mountpoint: stat.Mountpoint,
			Fstype:     stat.Fstype,
		})
	}
	return partitions
}
