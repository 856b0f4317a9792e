package engine

import (
	"context"
	"fmt"
	"os"

	"branchward/internal/config"
	gh "branchward/internal/github"
	"branchward/internal/output"
	"branchward/internal/policy"
	"branchward/internal/resolve"
)

// Exit code contract:
//
//	0 = every branch applied, matched, or skipped
//	1 = at least one branch mismatched or failed
//	2 = fatal error (authentication, resolution, or validation; no branches ran)
const (
	ExitOK    = 0
	ExitDrift = 1
	ExitFatal = 2
)

type Engine struct {
	Client *gh.Client
}

func NewEngine(client *gh.Client) *Engine {
	return &Engine{Client: client}
}

func setupOutputManager(cfg *config.Config) (*output.Manager, error) {
	outMgr := output.NewManager()

	if !cfg.Output.NoConsole {
		if err := outMgr.AddSink(output.NewConsoleSink(nil, cfg.Output.ConsoleFormat)); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(fs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	if cfg.Output.Report != "" {
		rs, err := output.NewReportSink(cfg.Output.Report)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(rs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	return outMgr, nil
}

// Run applies (or verifies) the governance spec against one repository and
// returns the process exit code.
func (e *Engine) Run(ctx context.Context, cfg *config.Config, repo resolve.RepositoryRef, spec policy.GovernanceSpec) int {
	outMgr, err := setupOutputManager(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output sinks: %v\n", err)
		return ExitFatal
	}
	defer outMgr.Close()

	_ = outMgr.Write(output.Event{Type: "run.started", Repo: repo.String(), Branches: len(spec.Entries)})

	results := e.runBranches(ctx, cfg, repo, spec, outMgr)

	// Results are written in spec order regardless of completion order.
	for i := range results {
		_ = outMgr.Write(results[i])
	}

	code := ExitOK
	for _, r := range results {
		if r.Failed() {
			code = ExitDrift
			break
		}
	}

	_ = outMgr.Write(output.Event{Type: "run.finished", Repo: repo.String(), ExitCode: code})

	if !cfg.Output.NoConsole {
		fmt.Fprintln(os.Stderr, output.Summary(results))
	}
	return code
}
