package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/derricw/sigbot/version"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print version info",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Version:    %s\n", version.Version)
		fmt.Printf("Commit:     %s\n", version.GitCommit)
		fmt.Printf("Built:      %s\n", version.BuildDate)
		fmt.Printf("Go Version: %s\n", version.GoVersion)
		fmt.Printf("OS / Arch:  %s\n", version.OsArch)
	},
}
