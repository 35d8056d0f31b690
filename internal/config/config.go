package config

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const (
	// AppName is the name of the application
	AppName = "esximg"
	// KickstartFileName is the fixed name of the installation script at the
	// root of a remastered image. The installer only recognizes this name.
	KickstartFileName = "KS.CFG"
)

// Config holds the application's configuration.
type Config struct {
	homeDir string
}

// New creates a new Config instance.
var New = func() (*Config, error) {
	var home string
	var err error

	// Check for the override environment variable first.
	// This is useful for testing.
	homeOverride := os.Getenv("ESXIMG_HOME")
	if homeOverride != "" {
		home = homeOverride
	} else {
		home, err = os.UserHomeDir()
		if err != nil {
			return nil, err
		}
	}

	return &Config{homeDir: home}, nil
}

// GetAppDir returns the path to the application's hidden directory.
func (c *Config) GetAppDir() string {
	return filepath.Join(c.homeDir, "."+AppName)
}

// SetHomeDir sets the application's home directory.
func (c *Config) SetHomeDir(dir string) {
	c.homeDir = dir
}

// NewScratchDir creates a unique scratch directory for a single build run.
// Each run owns its scratch area exclusively; the caller removes it when the
// run ends, successfully or not.
func (c *Config) NewScratchDir() (string, error) {
	dir := filepath.Join(c.GetAppDir(), "scratch", uuid.NewString())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
