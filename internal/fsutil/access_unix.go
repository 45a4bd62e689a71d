//go:build !windows

package fsutil

import (
	"golang.org/x/sys/unix"
)

func platformReadable(path string) bool {
	return unix.Access(path, unix.R_OK) == nil
}

func platformWritable(path string) bool {
	return unix.Access(path, unix.W_OK|unix.X_OK) == nil
}
