/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: summary.go
Description: Human readable recovery summary printed after a scan.
*/

package report

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/kleascm/drivehound/pkg/carving"
)

// WriteSummary prints the recovered count per signature, the total and throughput
func WriteSummary(w io.Writer, tally carving.Tally, stats carving.Stats) error {
	if _, err := fmt.Fprintln(w, "Recovery summary:"); err != nil {
		return err
	}

	if len(tally) == 0 {
		fmt.Fprintln(w, "  No files recovered")
	}
	for _, key := range tally.Keys() {
		fmt.Fprintf(w, "  %-12s %d\n", key, tally[key])
	}

	fmt.Fprintf(w, "Total: %d files recovered\n", tally.Total())
	fmt.Fprintf(w, "Scanned %s in %s (%s/s)\n",
		humanize.IBytes(uint64(stats.BytesScanned)),
		stats.Duration.Round(time.Millisecond),
		humanize.IBytes(throughput(stats)),
	)
	_, err := fmt.Fprintf(w, "Elapsed time: %.2f seconds\n", stats.Duration.Seconds())
	return err
}

func throughput(stats carving.Stats) uint64 {
	secs := stats.Duration.Seconds()
	if secs <= 0 {
		return 0
	}
	return uint64(float64(stats.BytesScanned) / secs)
}
