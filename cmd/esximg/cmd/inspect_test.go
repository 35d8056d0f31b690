package cmd

import (
	"fmt"
	"strings"
	"testing"

	"esximg/internal/iso"
)

func TestInspectCmd_PrintsEmbeddedScript(t *testing.T) {
	setupMocks(t)
	iso.ReadKickstart = func(path string) (string, error) {
		if path != "/images/esxi-lab.iso" {
			t.Errorf("expected the flag value to be passed through, got %q", path)
		}
		return "vmaccepteula\nrootpw --iscrypted $6$salt$hash\nreboot\n", nil
	}

	output, err := executeCommand(rootCmd, "inspect", "-i", "/images/esxi-lab.iso")
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if !strings.Contains(output, "START OF KICKSTART") || !strings.Contains(output, "END OF KICKSTART") {
		t.Errorf("expected the script to be framed by markers, got: %s", output)
	}
	if !strings.Contains(output, "vmaccepteula") {
		t.Errorf("expected the script content in the output, got: %s", output)
	}
}

func TestInspectCmd_NoEmbeddedScript(t *testing.T) {
	setupMocks(t)
	iso.ReadKickstart = func(string) (string, error) {
		return "", fmt.Errorf("%w: no KS.CFG in image", iso.ErrNotFound)
	}

	_, err := executeCommand(rootCmd, "inspect", "-i", "/images/vendor.iso")
	if err == nil {
		t.Fatal("expected an error for an image without an embedded script")
	}
	if !strings.Contains(err.Error(), "KS.CFG") {
		t.Errorf("expected the error to mention the missing script, got: %v", err)
	}
}

func TestInspectCmd_NotAnImage(t *testing.T) {
	setupMocks(t)
	iso.ReadKickstart = func(string) (string, error) {
		return "", fmt.Errorf("%w: /tmp/notes.txt", iso.ErrNotAnImage)
	}

	_, err := executeCommand(rootCmd, "inspect", "-i", "/tmp/notes.txt")
	if err == nil {
		t.Fatal("expected an error for a file that is not an image")
	}
}

func TestInspectCmd_MissingISOFlag(t *testing.T) {
	setupMocks(t)

	_, err := executeCommand(rootCmd, "inspect")
	if err == nil {
		t.Fatal("expected an error when --iso is missing")
	}
	if !strings.Contains(err.Error(), "iso") {
		t.Errorf("expected the error to name the missing flag, got: %v", err)
	}
}
