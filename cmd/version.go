/*
Copyright © 2025 Logicos Software

version.go implements the 'version' command.

Version information is embedded at build time via ldflags:

	go build -ldflags "-X pkipipe/cmd.Version=1.0.0 \
	                   -X pkipipe/cmd.GitCommit=$(git rev-parse HEAD) \
	                   -X pkipipe/cmd.BuildTime=$(date -Iseconds) \
	                   -X pkipipe/cmd.GoVersion=$(go version)"
*/
package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

// Version information variables, set via ldflags.
var (
	Version   = "dev"     // Semantic version (e.g., "1.0.0")
	BuildTime = "unknown" // Build timestamp
	GitCommit = "unknown" // Git commit hash
	GoVersion = "unknown" // Go compiler version
)

// versionCmd displays build and version information for pkipipe.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Long:  `Print the version information for pkipipe.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printVersion(cmd.OutOrStdout())
	},
}

func printVersion(w io.Writer) {
	fmt.Fprintln(w, "pkipipe - certificate and key store pipelines")
	fmt.Fprintf(w, "Version:    %s\n", Version)
	fmt.Fprintf(w, "Git Commit: %s\n", GitCommit)
	fmt.Fprintf(w, "Built:      %s\n", BuildTime)
	fmt.Fprintf(w, "Go Version: %s\n", GoVersion)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Copyright © 2024-%d Logicos Software\n", time.Now().Year())
	fmt.Fprintln(w, "Licensed under the MIT License")
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
