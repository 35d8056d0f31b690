package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// FileExists checks if a file exists and is not a directory.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CopyFile copies a file from src to dst with the given file mode.
func CopyFile(src, dst string, mode os.FileMode) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return os.Chmod(dst, mode)
}

// HumanSize converts a size in bytes to a human-readable string.
func HumanSize(sizeBytes int64) string {
	suffixes := []string{"B", "KB", "MB", "GB", "TB"}
	size := float64(sizeBytes)
	index := 0
	for size >= 1024 && index < len(suffixes)-1 {
		size /= 1024
		index++
	}
	return fmt.Sprintf("%.2f %s", size, suffixes[index])
}

// FreeSpace returns the number of bytes available to an unprivileged caller
// on the volume holding path.
var FreeSpace = func(path string) (int64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return int64(stat.Bsize) * int64(stat.Bavail), nil
}

// EnoughSpace reports whether the volume holding path has at least
// required bytes available.
func EnoughSpace(path string, required int64) (bool, error) {
	free, err := FreeSpace(path)
	if err != nil {
		return false, err
	}
	return free >= required, nil
}

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	return os.MkdirAll(filepath.Clean(dir), 0755)
}
