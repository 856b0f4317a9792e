package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"branchward/internal/config"
	"branchward/internal/engine"
	"branchward/internal/flags"
	gh "branchward/internal/github"
	"branchward/internal/policy"
	"branchward/internal/resolve"

	"github.com/spf13/cobra"
)

var cfg = config.New()

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a governance spec to one repository's branches",
	Long: `Apply the branch protection policies declared in a YAML governance spec
to one GitHub repository.

Each spec entry names a branch and its full desired protection state. For
every entry, branchward checks the branch exists, writes the policy as a full
replacement, reads the live state back, and reports the outcome. Absent
branches are skipped unless the entry is marked required.

Authentication:
  Branchward uses a GitHub access token. Sources, in order:
  1) --token flag
  2) GITHUB_TOKEN environment variable
  3) GitHub CLI (gh) authentication via gh auth token
  4) HashiCorp Vault (when VAULT_ADDR is set)

Target repository:
  Use --repo OWNER/REPO (or a GitHub URL), or run inside a clone and let
  branchward read the URL of the git remote named by --remote (default:
  origin).

Output:
	Console output is controlled by --console-format (default: text).
	Structured outputs can be written via:
	- --out / --out-format: write an aggregate JSON array or NDJSON stream to a file
	- --report: write a Markdown report to a file
	- --no-console: suppress the console sink (use with --out/--report)

	NDJSON mode emits one JSON object per line. Objects are lifecycle Events with
	a "type" field (run.started, branch.started, branch.result, run.finished).

Exit codes:
	0 = every branch applied, matched, or skipped
	1 = at least one branch mismatched or failed
	2 = fatal error (authentication, resolution, or validation; no branches ran)

Examples:
  # Apply to the repo behind the current clone's origin remote
  export GITHUB_TOKEN="<your_token>"
  branchward apply --spec governance.yaml

  # Preview drift without writing anything
  branchward apply --spec governance.yaml --repo octo/widgets --dry-run

  # Only the named branches, machine-readable output
  branchward apply --spec governance.yaml --branch main,develop --no-console --out results.ndjson
`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 && cmd.Flags().NFlag() == 0 {
			_ = cmd.Help()
			return
		}

		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(engine.ExitFatal)
		}

		spec, err := policy.Load(cfg.Target.SpecPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(engine.ExitFatal)
		}
		spec, err = spec.Select(cfg.Target.Branches)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(engine.ExitFatal)
		}

		// Interrupts cancel the run; the engine observes cancellation at
		// branch boundaries so every started branch records an outcome.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		session, err := gh.Authenticate(ctx, cfg.Target.Token,
			gh.WithVerbose(cfg.Runtime.Verbose, nil),
			gh.WithBudget(gh.NewRequestBudget()))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(engine.ExitFatal)
		}

		repo, err := resolve.Repository(ctx, cfg.Target.Repo, "", cfg.Target.Remote)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(engine.ExitFatal)
		}
		if !cfg.Output.NoConsole {
			fmt.Fprintf(os.Stderr, "Authenticated as %s (token from %s)\n", session.Login, session.TokenSource)
			fmt.Fprintf(os.Stderr, "Target repository: %s (%d branch entries)\n", repo, len(spec.Entries))
		}

		eng := engine.NewEngine(session.Client)
		os.Exit(eng.Run(ctx, cfg, repo, spec))
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)

	// Targeting
	applyCmd.Flags().StringVar(&cfg.Target.Repo, flags.FlagRepo, "", "Target repository as OWNER/REPO or a GitHub URL (default: resolved from the git remote)")
	applyCmd.Flags().StringVar(&cfg.Target.Remote, flags.FlagRemote, "origin", "Git remote consulted when --repo is not set")
	applyCmd.Flags().StringVar(&cfg.Target.SpecPath, flags.FlagSpec, "", "Path to the YAML governance spec (required)")
	applyCmd.Flags().StringSliceVar(&cfg.Target.Branches, flags.FlagBranch, nil, "Restrict the run to these spec entries (repeatable; comma-separated accepted)")
	applyCmd.Flags().StringVar(&cfg.Target.Token, flags.FlagToken, "", "GitHub access token (default: GITHUB_TOKEN, gh CLI, or Vault)")

	// Apply behavior
	applyCmd.Flags().BoolVar(&cfg.Apply.DryRun, flags.FlagDryRun, false, "Check existence and diff against live state without writing")
	applyCmd.Flags().BoolVar(&cfg.Apply.VerifyOnly, flags.FlagVerifyOnly, false, "Skip the apply step; only verify live state against the spec")

	// Output
	applyCmd.Flags().StringVar(&cfg.Output.ConsoleFormat, flags.FlagConsoleFormat, "text", "Console output format: text|json|ndjson (default: text)")
	applyCmd.Flags().StringVar(&cfg.Output.Out, flags.FlagOut, "", "Write structured output to this path")
	applyCmd.Flags().StringVar(&cfg.Output.OutFormat, flags.FlagOutFormat, "", "Structured output format for --out: json|ndjson (default: inferred from file extension)")
	applyCmd.Flags().StringVar(&cfg.Output.Report, flags.FlagReport, "", "Write a Markdown report to this path")
	applyCmd.Flags().BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --out/--report)")

	// Runtime
	applyCmd.Flags().IntVar(&cfg.Runtime.Concurrency, flags.FlagConcurrency, cfg.Runtime.Concurrency, "Branches processed in parallel (default: 1)")
	applyCmd.Flags().DurationVar(&cfg.Runtime.Timeout, flags.FlagTimeout, cfg.Runtime.Timeout, "Timeout for each individual API call (default: 30s)")
}
