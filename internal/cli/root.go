package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "branchward",
	Short: "Apply declarative branch protection policies to a GitHub repository",
	Long: `Branchward reads a YAML governance spec and enforces it as branch
protection rules on a GitHub repository.

Applies are full replacements: the spec is the single source of truth, and
running the same spec twice converges to the same state.

Examples:
	# Show available commands and global flags
	branchward --help

	# Apply a spec to the repository behind the current git remote
	branchward apply --spec governance.yaml

	# Apply a spec to an explicit repository
	branchward apply --spec governance.yaml --repo octo/widgets

	# Inspect a spec without touching the network
	branchward policy show --spec governance.yaml

	# Print build info
	branchward version`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&cfg.Runtime.Verbose, "verbose", false, "Enable verbose logging (prints every GitHub API call and full error details)")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
