package iso

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"esximg/internal/config"
	"esximg/internal/runner"
	"esximg/internal/util"
)

// now is a wrapper around time.Now to allow mocking in tests.
var now = time.Now

// lookPath is a wrapper around exec.LookPath to allow mocking in tests.
var lookPath = exec.LookPath

// RemasterTool is the external utility that rebuilds a bootable ISO-9660
// image with valid El Torito boot records.
const RemasterTool = "mkisofs"

// RepackOptions carries the inputs of one remastering run. The scratch tree
// is exclusively owned by the run and removed by the caller afterwards.
type RepackOptions struct {
	// TreeDir is the scratch directory holding the extracted, patched tree.
	TreeDir string
	// Kickstart is the rendered control script to embed at the tree root.
	Kickstart string
	// SourceISO is the vendor image path; its base name seeds the output name.
	SourceISO string
	// OutputDir is where the finished image is written.
	OutputDir string
	// Suffix overrides the timestamp in the output name when non-empty.
	Suffix string
}

// OutputName computes the output image name: the vendor base name plus
// either the caller-supplied suffix or a build timestamp.
func OutputName(sourceISO, suffix string, t time.Time) string {
	base := strings.TrimSuffix(filepath.Base(sourceISO), ".iso")
	if suffix == "" {
		suffix = t.Format("20060102-1504")
	}
	return fmt.Sprintf("%s-%s.iso", base, suffix)
}

// CheckRemasterTool verifies the external remastering utility is installed.
// Called before any mutation so a missing tool never leaves partial output.
var CheckRemasterTool = func() error {
	if _, err := lookPath(RemasterTool); err != nil {
		return fmt.Errorf("%w: %s is not installed", ErrToolUnavailable, RemasterTool)
	}
	return nil
}

// Repack writes the kickstart into the scratch tree and remasters a new
// bootable image. The two El Torito boot images (isolinux.bin for legacy
// BIOS, efiboot.img for UEFI) are reused from the extracted tree unchanged;
// the catalog is rebuilt referencing both. An existing file of the computed
// output name is never overwritten. On any failure no partial output is left
// behind.
var Repack = func(opts RepackOptions) (string, error) {
	if err := CheckRemasterTool(); err != nil {
		return "", err
	}

	outPath := filepath.Join(opts.OutputDir, OutputName(opts.SourceISO, opts.Suffix, now()))
	if util.FileExists(outPath) {
		return "", fmt.Errorf("%w: %s", ErrOutputCollision, outPath)
	}

	ksPath := filepath.Join(opts.TreeDir, config.KickstartFileName)
	if err := os.WriteFile(ksPath, []byte(opts.Kickstart), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", config.KickstartFileName, err)
	}

	cmd := exec.Command(RemasterTool,
		"-relaxed-filenames", "-quiet", "-J", "-R",
		"-o", outPath,
		"-b", "isolinux.bin", "-c", "boot.cat",
		"-no-emul-boot", "-boot-load-size", "4", "-boot-info-table",
		"-eltorito-alt-boot",
		"-e", "efiboot.img", "-no-emul-boot",
		opts.TreeDir,
	)
	if err := runner.Run(cmd); err != nil {
		os.Remove(outPath)
		return "", err
	}

	return outPath, nil
}
