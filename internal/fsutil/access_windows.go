//go:build windows

package fsutil

import (
	"os"
)

func platformReadable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

func platformWritable(path string) bool {
	f, err := os.CreateTemp(path, ".run-resize-probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}
