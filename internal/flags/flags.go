package flags

// Package flags defines canonical CLI flag names shared across the CLI and
// engine. Keeping these as constants helps avoid drift between Cobra flag
// wiring and other code paths that reference flags (e.g. error messages).
// IMPORTANT: These are flag *names* without leading dashes.
const (
	// Targeting
	FlagRepo   = "repo"
	FlagRemote = "remote"
	FlagSpec   = "spec"
	FlagBranch = "branch"
	FlagToken  = "token"

	// Apply behavior
	FlagDryRun     = "dry-run"
	FlagVerifyOnly = "verify-only"

	// Output
	FlagConsoleFormat = "console-format"
	FlagOut           = "out"
	FlagOutFormat     = "out-format"
	FlagReport        = "report"
	FlagNoConsole     = "no-console"

	// Runtime
	FlagConcurrency = "concurrency"
	FlagTimeout     = "timeout"
)
