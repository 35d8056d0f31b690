package hostconfig

import (
	"fmt"
	"net"
	"regexp"

	"esximg/internal/util"
)

// Kind classifies a validation violation.
type Kind string

const (
	MissingField       Kind = "MissingField"
	InvalidAddress     Kind = "InvalidAddress"
	InvalidMacAddress  Kind = "InvalidMacAddress"
	LicenseNotAccepted Kind = "LicenseNotAccepted"
	InvalidValue       Kind = "InvalidValue"
)

// Violation identifies one violated invariant: the offending field and a
// human-readable reason the operator can act on directly.
type Violation struct {
	Field  string
	Kind   Kind
	Reason string
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s: %s (%s)", v.Field, v.Reason, v.Kind)
}

// The platform accepts VLAN IDs 0 through 4094.
const maxVlanID = 4094

var macPattern = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){5}[0-9A-Fa-f]{2}$`)
var md5Pattern = regexp.MustCompile(`^[0-9A-Fa-f]{32}$`)

// requirement states when a field must be present.
type requirement int

const (
	always requirement = iota
	staticOnly
	optional
)

// fieldRule is one row of the declarative validation table. present reports
// whether the field was supplied; check validates its format and is run
// whenever the field is present, regardless of mode. New conditional fields
// are added as rows, not as branching in Validate.
type fieldRule struct {
	field   string
	req     requirement
	present func(c *HostConfig) bool
	check   func(c *HostConfig) *Violation
}

func validIPv4(s string) bool {
	ip := net.ParseIP(s)
	return ip != nil && ip.To4() != nil
}

func ipv4Check(field string, value func(c *HostConfig) string) func(c *HostConfig) *Violation {
	return func(c *HostConfig) *Violation {
		if v := value(c); !validIPv4(v) {
			return &Violation{Field: field, Kind: InvalidAddress,
				Reason: fmt.Sprintf("%q is not a valid IPv4 address", v)}
		}
		return nil
	}
}

var rules = []fieldRule{
	{
		field:   "installerImageName",
		req:     always,
		present: func(c *HostConfig) bool { return c.InstallerImageName != "" },
		check: func(c *HostConfig) *Violation {
			if !util.FileExists(c.InstallerImageName) {
				return &Violation{Field: "installerImageName", Kind: InvalidValue,
					Reason: fmt.Sprintf("file %q does not exist", c.InstallerImageName)}
			}
			return nil
		},
	},
	{
		field:   "imageChecksum",
		req:     always,
		present: func(c *HostConfig) bool { return c.ImageChecksum != "" },
		check: func(c *HostConfig) *Violation {
			if !md5Pattern.MatchString(c.ImageChecksum) {
				return &Violation{Field: "imageChecksum", Kind: InvalidValue,
					Reason: "must be a 32-character hexadecimal MD5 digest"}
			}
			return nil
		},
	},
	{
		field:   "licenseAccepted",
		req:     always,
		present: func(c *HostConfig) bool { return c.LicenseAccepted != "" },
		check: func(c *HostConfig) *Violation {
			if c.LicenseAccepted != licenseAffirmative {
				return &Violation{Field: "licenseAccepted", Kind: LicenseNotAccepted,
					Reason: fmt.Sprintf("license agreement must be accepted with %q", licenseAffirmative)}
			}
			return nil
		},
	},
	{
		field:   "macAddress",
		req:     always,
		present: func(c *HostConfig) bool { return c.MACAddress != "" },
		check: func(c *HostConfig) *Violation {
			if !macPattern.MatchString(c.MACAddress) {
				return &Violation{Field: "macAddress", Kind: InvalidMacAddress,
					Reason: fmt.Sprintf("%q is not a valid MAC address (expected xx:xx:xx:xx:xx:xx)", c.MACAddress)}
			}
			return nil
		},
	},
	{
		field:   "managementIPv4",
		req:     always,
		present: func(c *HostConfig) bool { return c.ManagementIPv4 != "" },
		check: func(c *HostConfig) *Violation {
			if c.NetworkMode() == ModeDHCP {
				return nil
			}
			return ipv4Check("managementIPv4", func(c *HostConfig) string { return c.ManagementIPv4 })(c)
		},
	},
	{
		field:   "dns",
		req:     staticOnly,
		present: func(c *HostConfig) bool { return len(c.DNS) > 0 },
		check: func(c *HostConfig) *Violation {
			if len(c.DNS) > 2 {
				return &Violation{Field: "dns", Kind: InvalidValue,
					Reason: "at most two nameservers are supported"}
			}
			for _, d := range c.DNS {
				if !validIPv4(d) {
					return &Violation{Field: "dns", Kind: InvalidAddress,
						Reason: fmt.Sprintf("nameserver %q is not a valid IPv4 address", d)}
				}
			}
			return nil
		},
	},
	{
		field:   "dnsSuffix",
		req:     staticOnly,
		present: func(c *HostConfig) bool { return c.DNSSuffix != "" },
	},
	{
		field:   "hostName",
		req:     staticOnly,
		present: func(c *HostConfig) bool { return c.HostName != "" },
	},
	{
		field:   "managementNetmask",
		req:     staticOnly,
		present: func(c *HostConfig) bool { return c.ManagementNetmask != "" },
		check:   ipv4Check("managementNetmask", func(c *HostConfig) string { return c.ManagementNetmask }),
	},
	{
		field:   "managementGateway",
		req:     staticOnly,
		present: func(c *HostConfig) bool { return c.ManagementGateway != "" },
		check:   ipv4Check("managementGateway", func(c *HostConfig) string { return c.ManagementGateway }),
	},
	{
		field:   "installDiskDirective",
		req:     always,
		present: func(c *HostConfig) bool { return c.InstallDiskDirective != "" },
		// "local" and "usb" are recognized short forms; any other non-empty
		// string is an operator-supplied directive and passes through
		// unvalidated.
	},
	{
		field:   "managementVlanId",
		req:     always,
		present: func(c *HostConfig) bool { return c.ManagementVlanID != nil },
		check: func(c *HostConfig) *Violation {
			if id := *c.ManagementVlanID; id < 0 || id > maxVlanID {
				return &Violation{Field: "managementVlanId", Kind: InvalidValue,
					Reason: fmt.Sprintf("VLAN ID %d is outside the valid range 0-%d", id, maxVlanID)}
			}
			return nil
		},
	},
	{
		field:   "clearPartitionDirective",
		req:     optional,
		present: func(c *HostConfig) bool { return c.ClearPartitionDirective != "" },
		// Free-form disk directive, passed through verbatim.
	},
}

// Validate walks the rule table and collects every violated invariant in one
// pass, so the operator can fix the whole record in a single edit.
func (c *HostConfig) Validate() []Violation {
	var violations []Violation
	mode := c.NetworkMode()

	for _, r := range rules {
		if !r.present(c) {
			switch r.req {
			case always:
				violations = append(violations, Violation{Field: r.field, Kind: MissingField,
					Reason: "required field is missing"})
			case staticOnly:
				if mode == ModeStatic {
					violations = append(violations, Violation{Field: r.field, Kind: MissingField,
						Reason: "required when managementIPv4 is a static address"})
				}
			}
			continue
		}
		if r.check != nil {
			if v := r.check(c); v != nil {
				violations = append(violations, *v)
			}
		}
	}

	return violations
}
