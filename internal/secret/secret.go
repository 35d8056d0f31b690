package secret

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"esximg/internal/runner"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// readPassword is a wrapper around term.ReadPassword to allow mocking in tests.
var readPassword = func() (string, error) {
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	return string(b), err
}

// Prompt captures the root password interactively, twice, without echoing.
// The operator gets two more attempts when the entries disagree.
var Prompt = func() (string, error) {
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			color.Yellow("Passwords do not match, please try again.")
		}
		fmt.Print("Enter the password for the root account: ")
		first, err := readPassword()
		if err != nil {
			return "", err
		}
		fmt.Print("Re-enter the password for the root account: ")
		second, err := readPassword()
		if err != nil {
			return "", err
		}
		if first == second {
			if first == "" {
				return "", fmt.Errorf("password must not be empty")
			}
			return first, nil
		}
	}
	return "", fmt.Errorf("passwords did not match after 3 attempts")
}

// Hash produces a SHA512-crypt hash of the given password, suitable for the
// installer's "rootpw --iscrypted" directive. The password is fed over stdin
// so it never appears in a process argument list.
var Hash = func(plain string) (string, error) {
	cmd := exec.Command("openssl", "passwd", "-6", "-stdin")
	cmd.Stdin = bytes.NewBufferString(plain)
	out, err := runner.Output(cmd)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	hash := strings.TrimSpace(out)
	if !strings.HasPrefix(hash, "$6$") {
		return "", fmt.Errorf("unexpected password hash format from openssl")
	}
	return hash, nil
}
