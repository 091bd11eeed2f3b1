package utils

import (
	"fmt"
	"os"
)

// TruncateFileAt shrinks the existing file at path to size bytes and syncs
// the new length before returning. It refuses to grow the file.
func TruncateFileAt(path string, size int64) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	if size < 0 || size > info.Size() {
		f.Close()
		return fmt.Errorf("cannot truncate %s to %d bytes: file is %d bytes", path, size, info.Size())
	}

	if err := f.Truncate(size); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// PathExists reports whether a file or directory exists at path.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
