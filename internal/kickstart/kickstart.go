package kickstart

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"

	"esximg/internal/hostconfig"
)

// The rendered kickstart drives the installer in three stages: the main body
// at parse time, the %pre block which emits the host-specific partitioning
// and network lines into /tmp/pre_script.cfg (pulled back in through
// %include), and the %firstboot block which runs once after the first boot
// of the installed system.
const kickstartTemplate = `vmaccepteula
rootpw --iscrypted [[ .PasswordHash ]]
%include /tmp/pre_script.cfg
reboot

%firstboot --interpreter=busybox
[[ range .FirstBoot -]]
[[ . ]]
[[ end -]]
vim-cmd hostsvc/enable_ssh
vim-cmd hostsvc/start_ssh
/sbin/generate-certificates

%pre --interpreter=busybox
if esxcfg-nics -l | grep -q "[[ .MAC ]]"
then
[[ if .ClearPart -]]
echo clearpart [[ .ClearPart ]] >> /tmp/pre_script.cfg
[[ end -]]
echo [[ .NetworkLine ]] >> /tmp/pre_script.cfg
echo install [[ .InstallDirective ]] >> /tmp/pre_script.cfg
fi
`

var kickstartTmpl = template.Must(
	template.New("kickstart").Delims("[[", "]]").Parse(kickstartTemplate))

// Render produces the installation control script for a validated host
// configuration. It is deterministic: identical inputs yield byte-identical
// scripts. The two trailing firstboot commands (remote shell access and TLS
// certificate regeneration) are always appended regardless of operator
// content; leaving either out is a known operational pitfall.
var Render = func(cfg *hostconfig.HostConfig, passwordHash string, firstBoot []string) (string, error) {
	data := struct {
		PasswordHash     string
		FirstBoot        []string
		MAC              string
		ClearPart        string
		NetworkLine      string
		InstallDirective string
	}{
		PasswordHash:     passwordHash,
		FirstBoot:        firstBoot,
		MAC:              strings.ToLower(cfg.MACAddress),
		ClearPart:        cfg.ClearPartitionDirective,
		NetworkLine:      networkLine(cfg),
		InstallDirective: cfg.InstallDirective(),
	}

	var buf bytes.Buffer
	if err := kickstartTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// networkLine builds the installer network directive exactly as validated:
// a minimal DHCP line, or the full static line with the management address,
// netmask, gateway, VLAN, fully-qualified hostname and optional nameservers.
func networkLine(cfg *hostconfig.HostConfig) string {
	mac := strings.ToLower(cfg.MACAddress)
	vlan := *cfg.ManagementVlanID

	if cfg.NetworkMode() == hostconfig.ModeDHCP {
		return fmt.Sprintf("network --bootproto=dhcp --vlanid=%d --device=%s", vlan, mac)
	}

	hostname := cfg.HostName
	if cfg.DNSSuffix != "" {
		hostname = cfg.HostName + "." + cfg.DNSSuffix
	}
	line := fmt.Sprintf("network --bootproto=static --ip=%s --netmask=%s --gateway=%s --vlanid=%d --hostname=%s --device=%s",
		cfg.ManagementIPv4, cfg.ManagementNetmask, cfg.ManagementGateway, vlan, hostname, mac)
	if len(cfg.DNS) > 0 {
		line += " --nameserver=" + strings.Join(cfg.DNS, ",")
	}
	return line
}

// LoadFirstBoot reads a post-install command file, one shell command per
// line. The lines are opaque to the renderer and concatenated verbatim into
// the %firstboot section. Blank leading and trailing lines are dropped.
func LoadFirstBoot(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.Trim(text, "\n")
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}
