// Package fsutil wraps the few filesystem permission checks the walker and
// the resize pipeline need.
package fsutil

import "os"

// IsDir reports whether path exists and is a directory, following symlinks.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// IsRegular reports whether path exists and is a regular file, following
// symlinks.
func IsRegular(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Readable reports whether the current process may read path.
func Readable(path string) bool {
	return platformReadable(path)
}

// WritableDir reports whether dir is an existing directory the current
// process may create files in.
func WritableDir(dir string) bool {
	return IsDir(dir) && platformWritable(dir)
}
