package cmd

import (
	"fmt"

	"esximg/internal/errors"
	"esximg/internal/iso"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var inspectISOPath string

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Prints the installation script embedded in an image",
	Long: `Opens a previously built image read-only and prints the embedded
installation script. The image is never modified.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		script, err := iso.ReadKickstart(inspectISOPath)
		if err != nil {
			return errors.E("inspect", err)
		}

		color.Cyan("=========================== START OF KICKSTART ===========================")
		fmt.Print(script)
		color.Cyan("============================ END OF KICKSTART ============================")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVarP(&inspectISOPath, "iso", "i", "", "Image to inspect")
	inspectCmd.MarkFlagRequired("iso")
}
