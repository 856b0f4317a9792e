package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"branchward/internal/policy"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var policyShowQuiet bool
var policyShowSpecPath string

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect governance specs",
	Long: `Inspect the branch policies declared in a governance spec.

This command group works entirely offline: it parses and validates the spec
file without contacting GitHub. Use it to review what an apply would enforce
(see "branchward apply --help").

Examples:
  # Show every branch policy in a spec
  branchward policy show --spec governance.yaml
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var policyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the branch policies in a spec",
	Long: `Parse and validate a governance spec, then print each branch entry with its
full desired protection state.

Entries are printed in spec order, which is also the order an apply processes
them in.

Examples:
  branchward policy show --spec governance.yaml

  # Only print branch names
  branchward policy show --spec governance.yaml -q
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if policyShowSpecPath == "" {
			return fmt.Errorf("--spec is required")
		}
		spec, err := policy.Load(policyShowSpecPath)
		if err != nil {
			return err
		}

		for _, e := range spec.Entries {
			if policyShowQuiet {
				fmt.Fprintln(cmd.OutOrStdout(), e.Name)
			} else {
				printEntry(cmd.OutOrStdout(), e)
			}
		}
		return nil
	},
}

func printEntry(w io.Writer, e policy.Entry) {
	bold := color.New(color.Bold)
	fmt.Fprintln(w, "----------------------------------------")
	bold.Fprintf(w, "BRANCH: %s\n", e.Name)
	fmt.Fprintln(w, "----------------------------------------")
	if e.Required {
		fmt.Fprintln(w, "Required: yes (absence fails the run)")
	} else {
		fmt.Fprintln(w, "Required: no (absence skips the entry)")
	}

	p := e.Policy
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Status checks:          %s (strict: %t)\n", formatContexts(p.RequiredStatusChecks.Contexts), p.RequiredStatusChecks.Strict)
	fmt.Fprintf(w, "  Approving reviews:      %d\n", p.RequiredApprovingReviewCount)
	fmt.Fprintf(w, "  Dismiss stale reviews:  %t\n", p.DismissStaleReviews)
	fmt.Fprintf(w, "  Code owner reviews:     %t\n", p.RequireCodeOwnerReviews)
	fmt.Fprintf(w, "  Last push approval:     %t\n", p.RequireLastPushApproval)
	fmt.Fprintf(w, "  Conversation resolution: %t\n", p.RequiredConversationResolution)
	fmt.Fprintf(w, "  Enforce admins:         %t\n", p.EnforceAdmins)
	fmt.Fprintf(w, "  Allow force pushes:     %t\n", p.AllowForcePushes)
	fmt.Fprintf(w, "  Allow deletions:        %t\n", p.AllowDeletions)
	fmt.Fprintf(w, "  Linear history:         %t\n", p.RequiredLinearHistory)
	fmt.Fprintf(w, "  Lock branch:            %t\n", p.LockBranch)
	if r := p.Restrictions; r != nil {
		fmt.Fprintln(w, "  Push restrictions:")
		fmt.Fprintf(w, "    Users: %s\n", formatContexts(r.Users))
		fmt.Fprintf(w, "    Teams: %s\n", formatContexts(r.Teams))
		fmt.Fprintf(w, "    Apps:  %s\n", formatContexts(r.Apps))
	} else {
		fmt.Fprintln(w, "  Push restrictions:      none")
	}
	fmt.Fprintln(w)
}

func formatContexts(vals []string) string {
	if len(vals) == 0 {
		return "none"
	}
	sorted := append([]string(nil), vals...)
	sort.Strings(sorted)
	return strings.Join(sorted, ", ")
}

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyShowCmd)
	policyShowCmd.Flags().StringVar(&policyShowSpecPath, "spec", "", "Path to the YAML governance spec (required)")
	policyShowCmd.Flags().BoolVarP(&policyShowQuiet, "quiet", "q", false, "Only print branch names")
}
