package checksum

import (
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrMismatch is returned when an image's computed digest differs from the
// digest declared in the host configuration.
var ErrMismatch = errors.New("checksum mismatch")

// File computes the MD5 digest of the file at path, streaming its contents
// so multi-gigabyte installer images never have to fit in memory.
var File = func(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// Verify compares the MD5 digest of the file at path against expected,
// case-insensitively. A mismatch halts the pipeline before any mutation.
func Verify(path, expected string) error {
	computed, err := File(path)
	if err != nil {
		return err
	}
	if !strings.EqualFold(computed, expected) {
		return fmt.Errorf("%w: declared %s, computed %s", ErrMismatch, expected, computed)
	}
	return nil
}
