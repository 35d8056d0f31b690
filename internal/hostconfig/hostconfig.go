package hostconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMalformedConfig is returned when the host-configuration record is not a
// well-formed JSON or YAML document.
var ErrMalformedConfig = errors.New("malformed host configuration")

// NetworkMode is derived from the managementIPv4 field: the literal "dhcp"
// selects DHCP, anything else is a static address.
type NetworkMode string

const (
	ModeDHCP   NetworkMode = "dhcp"
	ModeStatic NetworkMode = "static"
)

const licenseAffirmative = "Yes"

// Canonical install directives that the "local" and "usb" short forms
// expand to.
const (
	installDiskLocal = "--firstdisk=local --overwritevmfs"
	installDiskUSB   = "--firstdisk=usb --overwritevmfs"
)

// HostConfig is the host-configuration record driving one unattended
// installation. It is constructed once per run, validated, and never
// mutated afterwards. The root password is deliberately absent: it is
// captured interactively and threaded through by reference.
type HostConfig struct {
	InstallerImageName      string   `json:"installerImageName" yaml:"installerImageName"`
	ImageChecksum           string   `json:"imageChecksum" yaml:"imageChecksum"`
	LicenseAccepted         string   `json:"licenseAccepted" yaml:"licenseAccepted"`
	DNS                     []string `json:"dns,omitempty" yaml:"dns,omitempty"`
	DNSSuffix               string   `json:"dnsSuffix,omitempty" yaml:"dnsSuffix,omitempty"`
	MACAddress              string   `json:"macAddress" yaml:"macAddress"`
	HostName                string   `json:"hostName,omitempty" yaml:"hostName,omitempty"`
	ClearPartitionDirective string   `json:"clearPartitionDirective,omitempty" yaml:"clearPartitionDirective,omitempty"`
	InstallDiskDirective    string   `json:"installDiskDirective" yaml:"installDiskDirective"`
	ManagementIPv4          string   `json:"managementIPv4" yaml:"managementIPv4"`
	ManagementNetmask       string   `json:"managementNetmask,omitempty" yaml:"managementNetmask,omitempty"`
	ManagementGateway       string   `json:"managementGateway,omitempty" yaml:"managementGateway,omitempty"`
	ManagementVlanID        *int     `json:"managementVlanId" yaml:"managementVlanId"`
}

// Load reads a host-configuration record from disk. Files with a .yaml or
// .yml extension are parsed as YAML, anything else as JSON.
var Load = func(path string) (*HostConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &HostConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedConfig, err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedConfig, err)
		}
	}

	// Field values arrive from hand-edited files; trim the noise once here
	// so validation and rendering see canonical values.
	cfg.InstallerImageName = strings.TrimSpace(cfg.InstallerImageName)
	cfg.ImageChecksum = strings.TrimSpace(cfg.ImageChecksum)
	cfg.LicenseAccepted = strings.TrimSpace(cfg.LicenseAccepted)
	cfg.DNSSuffix = strings.TrimSpace(cfg.DNSSuffix)
	cfg.MACAddress = strings.TrimSpace(cfg.MACAddress)
	cfg.HostName = strings.TrimSpace(cfg.HostName)
	cfg.ClearPartitionDirective = strings.TrimSpace(cfg.ClearPartitionDirective)
	cfg.InstallDiskDirective = strings.TrimSpace(cfg.InstallDiskDirective)
	cfg.ManagementIPv4 = strings.TrimSpace(cfg.ManagementIPv4)
	cfg.ManagementNetmask = strings.TrimSpace(cfg.ManagementNetmask)
	cfg.ManagementGateway = strings.TrimSpace(cfg.ManagementGateway)
	for i, d := range cfg.DNS {
		cfg.DNS[i] = strings.TrimSpace(d)
	}

	return cfg, nil
}

// NetworkMode returns the network mode derived from managementIPv4.
func (c *HostConfig) NetworkMode() NetworkMode {
	if strings.EqualFold(c.ManagementIPv4, "dhcp") {
		return ModeDHCP
	}
	return ModeStatic
}

// InstallDirective returns the canonical install directive: the recognized
// "local" and "usb" short forms expand to full directives, anything else
// passes through verbatim as an operator-supplied directive.
func (c *HostConfig) InstallDirective() string {
	switch c.InstallDiskDirective {
	case "local":
		return installDiskLocal
	case "usb":
		return installDiskUSB
	default:
		return c.InstallDiskDirective
	}
}
