package engine

import (
	"context"
	"fmt"
	"net/http"

	"branchward/internal/config"
	"branchward/internal/policy"
	"branchward/internal/resolve"
)

// processBranch runs one branch through the full state machine: existence
// check, then apply/verify according to the run mode. It always returns a
// terminal result; errors are folded into StatusFailed rather than aborting
// the run.
func (e *Engine) processBranch(ctx context.Context, cfg *config.Config, repo resolve.RepositoryRef, entry policy.Entry) policy.BranchResult {
	res := policy.BranchResult{Branch: entry.Name, Repo: repo.String()}

	// Cancellation takes effect at branch boundaries. Once a branch has
	// started, its remaining calls run to completion (each still bounded by
	// the per-call timeout) so no branch is left half-configured without a
	// recorded outcome.
	ctx = context.WithoutCancel(ctx)

	exists, err := e.branchExists(ctx, cfg, repo, entry.Name)
	if err != nil {
		res.Status = policy.StatusFailed
		res.Message = err.Error()
		return res
	}
	if !exists {
		if entry.Required {
			res.Status = policy.StatusFailed
			res.Message = "required branch not found"
		} else {
			res.Status = policy.StatusSkipped
			res.Message = "branch not found"
		}
		return res
	}

	switch {
	case cfg.Apply.VerifyOnly:
		return e.verifyBranch(ctx, cfg, repo, entry, res, "")
	case cfg.Apply.DryRun:
		return e.verifyBranch(ctx, cfg, repo, entry, res, "dry run: changes not applied")
	default:
		return e.applyBranch(ctx, cfg, repo, entry, res)
	}
}

// branchExists distinguishes "branch absent" (a policy decision) from "call
// failed" (an error).
func (e *Engine) branchExists(ctx context.Context, cfg *config.Config, repo resolve.RepositoryRef, branch string) (bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, cfg.Runtime.Timeout)
	defer cancel()

	_, resp, err := e.Client.Client.Repositories.GetBranch(callCtx, repo.Owner, repo.Name, branch, 0)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, classifyAPIError(branch, "check branch", resp, err)
	}
	return true, nil
}

// readProtection returns the live protection state, or nil when the branch
// carries no protection rule at all (404 on the protection endpoint).
func (e *Engine) readProtection(ctx context.Context, cfg *config.Config, repo resolve.RepositoryRef, branch string) (*policy.ProtectionPolicy, error) {
	callCtx, cancel := context.WithTimeout(ctx, cfg.Runtime.Timeout)
	defer cancel()

	prot, resp, err := e.Client.Client.Repositories.GetBranchProtection(callCtx, repo.Owner, repo.Name, branch)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, classifyAPIError(branch, "read protection", resp, err)
	}
	p := policy.FromProtection(prot)
	return &p, nil
}

// verifyBranch compares live state against intent without writing. It serves
// both --verify-only and --dry-run; mismatchMsg annotates drift in dry-run
// mode.
func (e *Engine) verifyBranch(ctx context.Context, cfg *config.Config, repo resolve.RepositoryRef, entry policy.Entry, res policy.BranchResult, mismatchMsg string) policy.BranchResult {
	live, err := e.readProtection(ctx, cfg, repo, entry.Name)
	if err != nil {
		res.Status = policy.StatusFailed
		res.Message = err.Error()
		return res
	}

	if live == nil {
		res.Status = policy.StatusMismatched
		res.Message = "branch is unprotected"
		if mismatchMsg != "" {
			res.Message += " (" + mismatchMsg + ")"
		}
		res.Diffs = policy.Diff(entry.Policy, policy.ProtectionPolicy{})
		return res
	}

	res.Observed = live
	diffs := policy.Diff(entry.Policy, *live)
	if len(diffs) == 0 {
		res.Status = policy.StatusMatched
		return res
	}
	res.Status = policy.StatusMismatched
	res.Message = mismatchMsg
	res.Diffs = diffs
	return res
}

// applyBranch writes the full desired protection state, then reads it back
// and diffs. The write is a full replace, so applying an already-compliant
// branch is a safe no-op on the platform side.
func (e *Engine) applyBranch(ctx context.Context, cfg *config.Config, repo resolve.RepositoryRef, entry policy.Entry, res policy.BranchResult) policy.BranchResult {
	callCtx, cancel := context.WithTimeout(ctx, cfg.Runtime.Timeout)
	_, resp, err := e.Client.Client.Repositories.UpdateBranchProtection(callCtx, repo.Owner, repo.Name, entry.Name, entry.Policy.ProtectionRequest())
	cancel()
	if err != nil {
		res.Status = policy.StatusFailed
		res.Message = classifyAPIError(entry.Name, "apply protection", resp, err).Error()
		return res
	}

	live, err := e.readProtection(ctx, cfg, repo, entry.Name)
	if err != nil {
		// The write succeeded; report that while flagging the failed read-back.
		res.Status = policy.StatusApplied
		res.Message = fmt.Sprintf("applied; verification unavailable: %v", err)
		return res
	}
	if live == nil {
		res.Status = policy.StatusApplied
		res.Message = "applied; verification unavailable: protection not readable"
		return res
	}

	res.Observed = live
	diffs := policy.Diff(entry.Policy, *live)
	if len(diffs) == 0 {
		res.Status = policy.StatusApplied
		return res
	}
	res.Status = policy.StatusMismatched
	res.Message = "live state diverged after apply"
	res.Diffs = diffs
	return res
}
