package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields that affect run
	// behavior, keep the CLI flags in internal/cli/apply.go in sync.
	Target  Target
	Apply   Apply
	Output  Output
	Runtime Runtime
}

type Target struct {
	// Repo is the explicit repository selector as OWNER/REPO or a GitHub URL
	// (see --repo). If empty, the repository is resolved from the git remote.
	Repo string

	// Remote is the git remote consulted when Repo is empty (see --remote).
	Remote string

	// SpecPath is the YAML governance spec file (see --spec).
	SpecPath string

	// Branches restricts the run to these spec entries (see --branch).
	// Values may be provided as repeated flags and/or comma-separated lists.
	Branches []string

	// Token is an explicit GitHub access token (see --token). If empty, the
	// token is resolved from GITHUB_TOKEN, the gh CLI, or Vault.
	Token string
}

type Apply struct {
	// DryRun performs existence checks and diffs against live state but never
	// writes (see --dry-run).
	DryRun bool

	// VerifyOnly skips the apply step and only checks existence + verifies
	// live state against the spec (see --verify-only).
	VerifyOnly bool
}

type Output struct {
	// ConsoleFormat controls the human-facing console sink format (see --console-format).
	// Allowed values: text, json, ndjson.
	ConsoleFormat string

	// Out writes structured output to this path (see --out).
	Out string

	// OutFormat selects the format for --out (see --out-format).
	// Allowed values: json, ndjson. If empty, it is inferred from the --out file extension.
	OutFormat string

	// Report writes a Markdown report to this path (see --report).
	Report string

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool
}

type Runtime struct {
	// Concurrency controls how many branches are processed in parallel
	// (see --concurrency). Must be >= 1. The report stays in spec order
	// regardless.
	Concurrency int

	// Timeout bounds each individual platform API call (see --timeout).
	// Must be > 0. There are no automatic retries.
	Timeout time.Duration

	// Verbose enables per-request API logging on stderr.
	Verbose bool
}

func New() *Config {
	return &Config{
		Target: Target{
			Remote: "origin",
		},
		Output: Output{
			ConsoleFormat: "text",
		},
		Runtime: Runtime{
			Concurrency: 1,
			Timeout:     30 * time.Second,
		},
	}
}

func (c *Config) Validate() error {
	c.Target.Branches = splitCommaList(c.Target.Branches)

	if c.Target.SpecPath == "" {
		return errors.New("--spec is required")
	}

	if c.Apply.DryRun && c.Apply.VerifyOnly {
		return errors.New("--dry-run and --verify-only are mutually exclusive (both skip the write)")
	}

	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		c.Output.ConsoleFormat = "text"
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "json" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, json, ndjson)", c.Output.ConsoleFormat)
	}

	if c.Runtime.Concurrency <= 0 {
		return errors.New("--concurrency must be >= 1")
	}
	if c.Runtime.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}

	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			ext := strings.ToLower(filepath.Ext(c.Output.Out))
			switch ext {
			case ".json":
				c.Output.OutFormat = "json"
			case ".ndjson", ".jsonl":
				c.Output.OutFormat = "ndjson"
			default:
				if ext == "" {
					return errors.New("cannot infer output format from file extension (missing extension); use --out-format")
				}
				return fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
			}
		} else if c.Output.OutFormat != "json" && c.Output.OutFormat != "ndjson" {
			return fmt.Errorf("unsupported output format: %s", c.Output.OutFormat)
		}
	}

	return nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
