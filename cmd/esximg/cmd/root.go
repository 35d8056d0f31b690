package cmd

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "esximg",
	Short: "esximg builds customized unattended-install ESXi images",
	Long: `esximg turns a vendor ESXi installer image and a host configuration file
into a customized ISO that performs an unattended installation, and can
inspect the installation script embedded in a previously built image.`,
	// SilenceErrors is used to prevent cobra from printing the error,
	// as we handle it ourselves in the Execute function.
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Print the help message if no subcommand is provided
		return cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}
