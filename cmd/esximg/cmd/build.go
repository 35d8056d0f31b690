package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"esximg/internal/checksum"
	"esximg/internal/config"
	"esximg/internal/errors"
	"esximg/internal/hostconfig"
	"esximg/internal/iso"
	"esximg/internal/kickstart"
	"esximg/internal/secret"
	"esximg/internal/util"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	configPath    string
	outputSuffix  string
	firstBootPath string
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Builds a customized unattended-install image",
	Long: `Validates the host configuration, verifies the vendor image checksum,
renders the installation script and remasters a new bootable image with the
script embedded. The vendor image is never modified; the output is a new
file named after it with a timestamp or the given suffix.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return errors.E("build", err)
		}

		host, err := hostconfig.Load(configPath)
		if err != nil {
			return errors.E("build", err)
		}

		if violations := host.Validate(); len(violations) > 0 {
			reportViolations(violations)
			return errors.E("build", fmt.Errorf("host configuration has %d problem(s)", len(violations)))
		}

		// All failure modes that need no cleanup are checked before any
		// work happens: tool presence, checksum, disk space.
		if err := iso.CheckRemasterTool(); err != nil {
			return errors.E("build", err)
		}

		if err := verifyChecksum(host); err != nil {
			return errors.E("build", err)
		}

		if err := checkSpace(cfg, host); err != nil {
			return errors.E("build", err)
		}

		password, err := secret.Prompt()
		if err != nil {
			return errors.E("build", err)
		}
		passwordHash, err := secret.Hash(password)
		if err != nil {
			return errors.E("build", err)
		}

		var firstBoot []string
		if firstBootPath != "" {
			firstBoot, err = kickstart.LoadFirstBoot(firstBootPath)
			if err != nil {
				return errors.E("build", fmt.Errorf("failed to read first-boot commands: %w", err))
			}
		}

		script, err := kickstart.Render(host, passwordHash, firstBoot)
		if err != nil {
			return errors.E("build", err)
		}

		scratchDir, err := cfg.NewScratchDir()
		if err != nil {
			return errors.E("build", fmt.Errorf("failed to create scratch directory: %w", err))
		}
		// The scratch area never outlives the run, successful or not.
		defer os.RemoveAll(scratchDir)

		if err := extractTree(host.InstallerImageName, scratchDir); err != nil {
			return errors.E("build", err)
		}

		if err := iso.PatchBootConfig(scratchDir); err != nil {
			return errors.E("build", err)
		}

		outPath, err := remaster(iso.RepackOptions{
			TreeDir:   scratchDir,
			Kickstart: script,
			SourceISO: host.InstallerImageName,
			OutputDir: filepath.Dir(host.InstallerImageName),
			Suffix:    outputSuffix,
		})
		if err != nil {
			return errors.E("build", err)
		}

		if err := iso.VerifyBootCatalog(outPath, scratchDir); err != nil {
			// A broken boot path is a build failure, not a degraded success.
			os.Remove(outPath)
			return errors.E("build", err)
		}

		digest, err := checksum.File(outPath)
		if err != nil {
			return errors.E("build", err)
		}

		color.Green("✔ Image '%s' created with the installation script embedded.", outPath)
		color.Cyan("i MD5 checksum of the new image: %s", digest)
		return nil
	},
}

func reportViolations(violations []hostconfig.Violation) {
	color.Red("✖ The host configuration is not valid:")
	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"FIELD", "PROBLEM", "REASON"})
	for _, v := range violations {
		table.Append([]string{v.Field, string(v.Kind), v.Reason})
	}
	table.Render()
}

var verifyChecksum = func(host *hostconfig.HostConfig) error {
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond)
	s.Suffix = " Verifying installer image checksum..."
	s.Start()
	defer s.Stop()

	if err := checksum.Verify(host.InstallerImageName, host.ImageChecksum); err != nil {
		s.FinalMSG = color.RedString("✖ Installer image checksum verification failed.\n")
		return err
	}
	s.FinalMSG = color.GreenString("✔ Installer image checksum verified.\n")
	return nil
}

// checkSpace requires room for the extracted tree plus the new image, about
// twice the vendor image size, on both the scratch and the output volume.
var checkSpace = func(cfg *config.Config, host *hostconfig.HostConfig) error {
	info, err := os.Stat(host.InstallerImageName)
	if err != nil {
		return err
	}
	required := 2 * info.Size()

	for _, dir := range []string{cfg.GetAppDir(), filepath.Dir(host.InstallerImageName)} {
		if err := util.EnsureDir(dir); err != nil {
			return err
		}
		ok, err := util.EnoughSpace(dir, required)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s needs %s available", iso.ErrInsufficientSpace, dir, util.HumanSize(required))
		}
	}
	return nil
}

var extractTree = func(isoPath, scratchDir string) error {
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond)
	s.Suffix = " Extracting vendor image..."
	s.Start()
	defer s.Stop()

	if err := iso.ExtractTree(isoPath, scratchDir); err != nil {
		s.FinalMSG = color.RedString("✖ Failed to extract the vendor image.\n")
		return err
	}
	s.FinalMSG = color.GreenString("✔ Vendor image extracted.\n")
	return nil
}

var remaster = func(opts iso.RepackOptions) (string, error) {
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond)
	s.Suffix = " Remastering bootable image..."
	s.Start()
	defer s.Stop()

	outPath, err := iso.Repack(opts)
	if err != nil {
		s.FinalMSG = color.RedString("✖ Failed to remaster the image.\n")
		return "", err
	}
	s.FinalMSG = color.GreenString("✔ Image remastered.\n")
	return outPath, nil
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVarP(&configPath, "json", "j", "", "Host configuration file (JSON or YAML)")
	buildCmd.Flags().StringVarP(&outputSuffix, "suffix", "s", "", "Suffix for the output image name instead of a timestamp")
	buildCmd.Flags().StringVarP(&firstBootPath, "firstboot", "f", "", "File with post-install shell commands, one per line")
	buildCmd.MarkFlagRequired("json")
}
