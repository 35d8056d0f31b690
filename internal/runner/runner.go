package runner

import (
	"fmt"
	"os/exec"
	"strings"
)

// Run executes a command and returns an error with the combined output if it fails.
var Run = func(cmd *exec.Cmd) error {
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("command failed: %s\n%s", cmd.String(), string(output))
	}
	return nil
}

// Output executes a command and returns its trimmed stdout. Stderr is folded
// into the error on failure.
var Output = func(cmd *exec.Cmd) (string, error) {
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("command failed: %s\n%s", cmd.String(), stderr.String())
	}
	return strings.TrimSpace(string(out)), nil
}
