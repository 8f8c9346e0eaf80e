//go:build !linux

/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: size_other.go
Description: Device size fallback for platforms without a block size ioctl. Seeks to
the end of the handle and restores the previous position.
*/

package source

import (
	"fmt"
	"io"
	"os"
)

func deviceSize(f *os.File) (int64, error) {
	cur, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("failed to query position of %s: %w", f.Name(), err)
	}
	end, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("failed to query size of %s: %w", f.Name(), err)
	}
	if _, err := f.Seek(cur, io.SeekStart); err != nil {
		return 0, fmt.Errorf("failed to restore position of %s: %w", f.Name(), err)
	}
	return end, nil
}
