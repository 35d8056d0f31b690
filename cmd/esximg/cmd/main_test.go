package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"esximg/internal/checksum"
	"esximg/internal/config"
	"esximg/internal/hostconfig"
	"esximg/internal/iso"
	"esximg/internal/secret"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// executeCommand is a helper function to execute a cobra command and capture its output.
func executeCommand(root *cobra.Command, args ...string) (string, error) {
	// Capture Cobra's output
	cobraBuf := new(bytes.Buffer)
	root.SetOut(cobraBuf)
	root.SetErr(cobraBuf)
	root.SetArgs(args)

	// Redirect color library output to the same buffer
	originalColorOutput := color.Output
	color.Output = cobraBuf
	defer func() { color.Output = originalColorOutput }()

	// Capture direct stdout/stderr writes
	oldStdout := os.Stdout
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stdout = w
	os.Stderr = w

	_, err := root.ExecuteC()

	// Restore stdout/stderr and read from the pipe
	w.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr
	capturedBuf := new(bytes.Buffer)
	io.Copy(capturedBuf, r)

	return cobraBuf.String() + capturedBuf.String(), err
}

// resetFlags clears flag state left behind by a previous execution.
func resetFlags(cmds ...*cobra.Command) {
	for _, c := range cmds {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			f.Changed = false
			f.Value.Set(f.DefValue)
		})
	}
}

// validHost returns a valid DHCP-mode host configuration whose installer
// image exists on disk.
func validHost(t *testing.T) *hostconfig.HostConfig {
	t.Helper()
	imagePath := filepath.Join(t.TempDir(), "esxi.iso")
	if err := os.WriteFile(imagePath, []byte("vendor image"), 0644); err != nil {
		t.Fatal(err)
	}
	vlan := 100
	return &hostconfig.HostConfig{
		InstallerImageName:   imagePath,
		ImageChecksum:        "d41d8cd98f00b204e9800998ecf8427e",
		LicenseAccepted:      "Yes",
		MACAddress:           "00:11:22:33:44:55",
		InstallDiskDirective: "local",
		ManagementIPv4:       "dhcp",
		ManagementVlanID:     &vlan,
	}
}

// setupMocks points every collaborator at a success default. Individual
// tests override the pieces they exercise.
func setupMocks(t *testing.T) {
	t.Helper()
	t.Setenv("ESXIMG_HOME", t.TempDir())
	resetFlags(buildCmd, inspectCmd)

	origLoad := hostconfig.Load
	origPrompt := secret.Prompt
	origHash := secret.Hash
	origCheckTool := iso.CheckRemasterTool
	origPatch := iso.PatchBootConfig
	origVerifyCatalog := iso.VerifyBootCatalog
	origFile := checksum.File
	origReadKS := iso.ReadKickstart
	origVerifyChecksum := verifyChecksum
	origCheckSpace := checkSpace
	origExtract := extractTree
	origRemaster := remaster
	t.Cleanup(func() {
		hostconfig.Load = origLoad
		secret.Prompt = origPrompt
		secret.Hash = origHash
		iso.CheckRemasterTool = origCheckTool
		iso.PatchBootConfig = origPatch
		iso.VerifyBootCatalog = origVerifyCatalog
		checksum.File = origFile
		iso.ReadKickstart = origReadKS
		verifyChecksum = origVerifyChecksum
		checkSpace = origCheckSpace
		extractTree = origExtract
		remaster = origRemaster
	})

	host := validHost(t)
	hostconfig.Load = func(string) (*hostconfig.HostConfig, error) { return host, nil }
	secret.Prompt = func() (string, error) { return "s3cret", nil }
	secret.Hash = func(string) (string, error) { return "$6$salt$hash", nil }
	iso.CheckRemasterTool = func() error { return nil }
	iso.PatchBootConfig = func(string) error { return nil }
	iso.VerifyBootCatalog = func(string, string) error { return nil }
	checksum.File = func(string) (string, error) { return "0123456789abcdef0123456789abcdef", nil }
	iso.ReadKickstart = func(string) (string, error) { return "vmaccepteula\nreboot\n", nil }
	verifyChecksum = func(*hostconfig.HostConfig) error { return nil }
	checkSpace = func(*config.Config, *hostconfig.HostConfig) error { return nil }
	extractTree = func(string, string) error { return nil }
	remaster = func(opts iso.RepackOptions) (string, error) {
		return filepath.Join(opts.OutputDir, "esxi-test.iso"), nil
	}
}
