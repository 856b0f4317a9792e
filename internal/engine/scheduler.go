package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"branchward/internal/config"
	"branchward/internal/output"
	"branchward/internal/policy"
	"branchward/internal/resolve"
)

// runBranches processes every spec entry with bounded concurrency.
//
// Semantics:
//   - Exactly one result per entry, positioned at the entry's spec index, so
//     reporting order never depends on completion order.
//   - Cancellation is honored at branch boundaries: entries that have not
//     started when the context is canceled finish as SKIPPED; an in-flight
//     branch runs its current API call to completion (or timeout).
func (e *Engine) runBranches(ctx context.Context, cfg *config.Config, repo resolve.RepositoryRef, spec policy.GovernanceSpec, outMgr *output.Manager) []policy.BranchResult {
	results := make([]policy.BranchResult, len(spec.Entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Runtime.Concurrency)

	for i, entry := range spec.Entries {
		g.Go(func() error {
			if gctx.Err() != nil {
				results[i] = policy.BranchResult{
					Branch:  entry.Name,
					Repo:    repo.String(),
					Status:  policy.StatusSkipped,
					Message: "run canceled",
				}
				return nil
			}
			_ = outMgr.Write(output.Event{Type: "branch.started", Repo: repo.String(), Branch: entry.Name})
			results[i] = e.processBranch(gctx, cfg, repo, entry)
			return nil
		})
	}

	// Branch outcomes are carried in results, never as errors, so Wait only
	// synchronizes.
	_ = g.Wait()
	return results
}
