//go:build linux

/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: size_linux.go
Description: Block device size lookup for Linux using the BLKGETSIZE64 ioctl.
*/

package source

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

func deviceSize(f *os.File) (int64, error) {
	var size uint64
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), unix.BLKGETSIZE64, uintptr(unsafe.Pointer(&size)))
	if errno != 0 {
		return 0, fmt.Errorf("BLKGETSIZE64 on %s: %w", f.Name(), errno)
	}
	return int64(size), nil
}
