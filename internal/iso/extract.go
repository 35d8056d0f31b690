package iso

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"esximg/internal/config"

	diskfs "github.com/diskfs/go-diskfs"
	"github.com/diskfs/go-diskfs/filesystem"
)

// openImage opens an image read-only and returns its filesystem. The caller
// must close the returned file handle.
func openImage(isoPath string) (filesystem.FileSystem, *os.File, error) {
	d, err := diskfs.Open(isoPath, diskfs.WithOpenMode(diskfs.ReadOnly))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}
	fs, err := d.GetFilesystem(0)
	if err != nil {
		d.File.Close()
		return nil, nil, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}
	return fs, d.File, nil
}

// ExtractTree copies the full file tree of the image at isoPath into
// destDir. The image is never mutated. Unlike a loop mount, this needs no
// privileges, so a build can run as a regular user.
var ExtractTree = func(isoPath, destDir string) error {
	fs, f, err := openImage(isoPath)
	if err != nil {
		return err
	}
	defer f.Close()

	return copyDir(fs, "/", destDir)
}

func copyDir(fs filesystem.FileSystem, dir, destDir string) error {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read image directory %s: %w", dir, err)
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return err
	}
	for _, entry := range entries {
		name := entry.Name()
		if name == "." || name == ".." {
			continue
		}
		src := path.Join(dir, name)
		dest := filepath.Join(destDir, name)
		if entry.IsDir() {
			if err := copyDir(fs, src, dest); err != nil {
				return err
			}
			continue
		}
		if err := copyFileOut(fs, src, dest); err != nil {
			return err
		}
	}
	return nil
}

func copyFileOut(fs filesystem.FileSystem, src, dest string) error {
	in, err := fs.OpenFile(src, os.O_RDONLY)
	if err != nil {
		return fmt.Errorf("failed to open image file %s: %w", src, err)
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to extract %s: %w", src, err)
	}
	return out.Close()
}

// ReadKickstart returns the text of the embedded installation script of a
// previously produced image. The image is opened read-only and never
// mutated.
var ReadKickstart = func(isoPath string) (string, error) {
	fs, f, err := openImage(isoPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	ks, err := fs.OpenFile("/"+config.KickstartFileName, os.O_RDONLY)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, config.KickstartFileName)
	}
	data, err := io.ReadAll(ks)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", config.KickstartFileName, err)
	}
	return string(data), nil
}
