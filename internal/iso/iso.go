// Package iso manipulates vendor installer images: extracting their file
// trees, patching the boot loader configuration, remastering a bootable
// ISO-9660 image with the kickstart embedded, and reading a kickstart back
// out of a previously produced image.
package iso

import "errors"

var (
	// ErrNotAnImage is returned when a path does not hold a readable
	// ISO-9660 structure.
	ErrNotAnImage = errors.New("not a valid ISO-9660 image")
	// ErrNotFound is returned when an image holds no embedded kickstart.
	ErrNotFound = errors.New("kickstart not found in image")
	// ErrToolUnavailable is returned when the external remastering tool is
	// not installed on the build host.
	ErrToolUnavailable = errors.New("remastering tool not available")
	// ErrOutputCollision is returned instead of overwriting a previously
	// built image of the same computed name.
	ErrOutputCollision = errors.New("output image already exists")
	// ErrInsufficientSpace is returned when the scratch or output volume
	// cannot hold the build.
	ErrInsufficientSpace = errors.New("insufficient disk space")
)
