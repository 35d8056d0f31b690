package iso

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// The installer reads kernel options from boot.cfg for legacy boot and from
// efi/boot/boot.cfg for UEFI boot. Both must carry the ks= option or the
// corresponding firmware path falls back to an interactive install.
var bootConfigFiles = []string{
	"boot.cfg",
	filepath.Join("efi", "boot", "boot.cfg"),
}

// Vendor images ship the kernelopt line in a few spellings depending on the
// release. Longer alternatives first so the shorter one cannot shadow them.
var kerneloptPattern = regexp.MustCompile(`(?i)kernelopt=(cdromBoot runweasel|runweasel cdromBoot|runweasel)`)

const patchedKernelopt = "kernelopt=runweasel ks=cdrom:/KS.CFG"

// PatchBootConfig rewrites the kernel option line of both boot loader
// configurations in the extracted tree so the installer picks up the
// embedded kickstart.
var PatchBootConfig = func(treeDir string) error {
	for _, rel := range bootConfigFiles {
		p := filepath.Join(treeDir, rel)
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("boot configuration %s not readable: %w", rel, err)
		}
		patched := kerneloptPattern.ReplaceAll(data, []byte(patchedKernelopt))
		if err := os.WriteFile(p, patched, 0644); err != nil {
			return fmt.Errorf("failed to patch %s: %w", rel, err)
		}
	}
	return nil
}
