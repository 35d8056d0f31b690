package hostconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "hosts.json", `{
		"installerImageName": " esxi.iso ",
		"imageChecksum": "d41d8cd98f00b204e9800998ecf8427e",
		"licenseAccepted": "Yes",
		"macAddress": "00:11:22:33:44:55",
		"installDiskDirective": "local",
		"managementIPv4": "dhcp",
		"managementVlanId": 100
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "esxi.iso", cfg.InstallerImageName, "values should be trimmed")
	assert.Equal(t, "00:11:22:33:44:55", cfg.MACAddress)
	require.NotNil(t, cfg.ManagementVlanID)
	assert.Equal(t, 100, *cfg.ManagementVlanID)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "hosts.yaml", `
installerImageName: esxi.iso
imageChecksum: d41d8cd98f00b204e9800998ecf8427e
licenseAccepted: "Yes"
macAddress: 00:11:22:33:44:55
installDiskDirective: usb
managementIPv4: 172.16.11.101
managementNetmask: 255.255.255.0
managementGateway: 172.16.11.1
managementVlanId: 200
hostName: esx01
dnsSuffix: lab.example.com
dns:
  - 172.16.11.4
  - 172.16.11.5
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ModeStatic, cfg.NetworkMode())
	assert.Equal(t, []string{"172.16.11.4", "172.16.11.5"}, cfg.DNS)
}

func TestLoadMalformed(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "broken json", file: "hosts.json", content: `{"installerImageName": `},
		{name: "broken yaml", file: "hosts.yaml", content: "installerImageName: [\n"},
		{name: "wrong field type", file: "hosts.json", content: `{"managementVlanId": "not-a-number"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.content))
			assert.True(t, errors.Is(err, ErrMalformedConfig), "expected ErrMalformedConfig, got %v", err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMalformedConfig))
}

func TestNetworkMode(t *testing.T) {
	tests := []struct {
		ipv4 string
		want NetworkMode
	}{
		{"dhcp", ModeDHCP},
		{"DHCP", ModeDHCP},
		{"Dhcp", ModeDHCP},
		{"172.16.11.101", ModeStatic},
		{"anything-else", ModeStatic},
	}
	for _, tt := range tests {
		cfg := &HostConfig{ManagementIPv4: tt.ipv4}
		assert.Equal(t, tt.want, cfg.NetworkMode(), "managementIPv4=%q", tt.ipv4)
	}
}

func TestInstallDirective(t *testing.T) {
	tests := []struct {
		directive string
		want      string
	}{
		{"local", "--firstdisk=local --overwritevmfs"},
		{"usb", "--firstdisk=usb --overwritevmfs"},
		{"--firstdisk=vmw_ahci --overwritevmfs", "--firstdisk=vmw_ahci --overwritevmfs"},
		{"some custom directive", "some custom directive"},
	}
	for _, tt := range tests {
		cfg := &HostConfig{InstallDiskDirective: tt.directive}
		assert.Equal(t, tt.want, cfg.InstallDirective())
	}
}
