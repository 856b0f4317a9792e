package policy

import (
	"fmt"
	"strings"

	"github.com/google/go-github/v81/github"
)

// ProtectionPolicy is the full desired protection state for one branch.
//
// A policy is always applied with full-replace semantics: every field is sent
// on every apply, so a field left at its zero value actively clears the
// corresponding setting on the platform. That is what makes repeated applies
// idempotent regardless of prior state.
type ProtectionPolicy struct {
	RequiredStatusChecks          StatusChecks  `yaml:"required_status_checks"`
	RequiredApprovingReviewCount  int           `yaml:"required_approving_review_count"`
	DismissStaleReviews           bool          `yaml:"dismiss_stale_reviews"`
	RequireCodeOwnerReviews       bool          `yaml:"require_code_owner_reviews"`
	RequireLastPushApproval       bool          `yaml:"require_last_push_approval"`
	RequiredConversationResolution bool         `yaml:"required_conversation_resolution"`
	EnforceAdmins                 bool          `yaml:"enforce_admins"`
	AllowForcePushes              bool          `yaml:"allow_force_pushes"`
	AllowDeletions                bool          `yaml:"allow_deletions"`
	RequiredLinearHistory         bool          `yaml:"required_linear_history"`
	LockBranch                    bool          `yaml:"lock_branch"`
	Restrictions                  *Restrictions `yaml:"restrictions,omitempty"`
}

// StatusChecks names the status-check contexts a branch requires before merge.
// Contexts are opaque identifiers; the platform is the source of truth for
// whether they correspond to real checks.
type StatusChecks struct {
	Strict   bool     `yaml:"strict"`
	Contexts []string `yaml:"contexts"`
}

// Restrictions limits who may push to the branch. A nil *Restrictions on the
// policy means unrestricted.
type Restrictions struct {
	Users []string `yaml:"users"`
	Teams []string `yaml:"teams"`
	Apps  []string `yaml:"apps"`
}

// ValidationError reports a malformed policy or spec. It is raised at
// construction time, before any network activity.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid policy: %s", e.Detail)
	}
	return fmt.Sprintf("invalid policy: %s: %s", e.Field, e.Detail)
}

// Validate rejects policies that can never be accepted by the platform.
func (p ProtectionPolicy) Validate() error {
	if p.RequiredApprovingReviewCount < 0 {
		return &ValidationError{
			Field:  "required_approving_review_count",
			Detail: fmt.Sprintf("must be >= 0, got %d", p.RequiredApprovingReviewCount),
		}
	}
	for _, ctxName := range p.RequiredStatusChecks.Contexts {
		if strings.TrimSpace(ctxName) == "" {
			return &ValidationError{
				Field:  "required_status_checks.contexts",
				Detail: "context names must be non-empty",
			}
		}
	}
	return nil
}

// ProtectionRequest maps the policy to the platform's update-protection call.
// Every field is populated so the call replaces the entire protection state.
func (p ProtectionPolicy) ProtectionRequest() *github.ProtectionRequest {
	checks := make([]*github.RequiredStatusCheck, 0, len(p.RequiredStatusChecks.Contexts))
	for _, ctxName := range p.RequiredStatusChecks.Contexts {
		checks = append(checks, &github.RequiredStatusCheck{Context: ctxName})
	}

	req := &github.ProtectionRequest{
		RequiredStatusChecks: &github.RequiredStatusChecks{
			Strict: p.RequiredStatusChecks.Strict,
			Checks: &checks,
		},
		RequiredPullRequestReviews: &github.PullRequestReviewsEnforcementRequest{
			DismissStaleReviews:          p.DismissStaleReviews,
			RequireCodeOwnerReviews:      p.RequireCodeOwnerReviews,
			RequiredApprovingReviewCount: p.RequiredApprovingReviewCount,
			RequireLastPushApproval:      github.Ptr(p.RequireLastPushApproval),
		},
		EnforceAdmins:                  p.EnforceAdmins,
		RequireLinearHistory:           github.Ptr(p.RequiredLinearHistory),
		AllowForcePushes:               github.Ptr(p.AllowForcePushes),
		AllowDeletions:                 github.Ptr(p.AllowDeletions),
		RequiredConversationResolution: github.Ptr(p.RequiredConversationResolution),
		LockBranch:                     github.Ptr(p.LockBranch),
	}

	if p.Restrictions != nil {
		req.Restrictions = &github.BranchRestrictionsRequest{
			// The platform requires users and teams to be present (possibly
			// empty) whenever restrictions are set at all.
			Users: nonNil(p.Restrictions.Users),
			Teams: nonNil(p.Restrictions.Teams),
			Apps:  p.Restrictions.Apps,
		}
	}

	return req
}

// FromProtection converts the live protection state read back from the
// platform into policy form so it can be diffed against intent.
func FromProtection(pr *github.Protection) ProtectionPolicy {
	var p ProtectionPolicy
	if pr == nil {
		return p
	}

	if sc := pr.RequiredStatusChecks; sc != nil {
		p.RequiredStatusChecks.Strict = sc.Strict
		p.RequiredStatusChecks.Contexts = liveContexts(sc)
	}
	if rv := pr.RequiredPullRequestReviews; rv != nil {
		p.RequiredApprovingReviewCount = rv.RequiredApprovingReviewCount
		p.DismissStaleReviews = rv.DismissStaleReviews
		p.RequireCodeOwnerReviews = rv.RequireCodeOwnerReviews
		p.RequireLastPushApproval = rv.RequireLastPushApproval
	}
	if pr.EnforceAdmins != nil {
		p.EnforceAdmins = pr.EnforceAdmins.Enabled
	}
	if pr.AllowForcePushes != nil {
		p.AllowForcePushes = pr.AllowForcePushes.Enabled
	}
	if pr.AllowDeletions != nil {
		p.AllowDeletions = pr.AllowDeletions.Enabled
	}
	if pr.RequireLinearHistory != nil {
		p.RequiredLinearHistory = pr.RequireLinearHistory.Enabled
	}
	if pr.RequiredConversationResolution != nil {
		p.RequiredConversationResolution = pr.RequiredConversationResolution.Enabled
	}
	if pr.LockBranch != nil {
		// LockBranch.Enabled is *bool, unlike the sibling wrapper types.
		p.LockBranch = pr.LockBranch.GetEnabled()
	}
	if r := pr.Restrictions; r != nil {
		res := &Restrictions{}
		for _, u := range r.Users {
			res.Users = append(res.Users, u.GetLogin())
		}
		for _, t := range r.Teams {
			res.Teams = append(res.Teams, t.GetSlug())
		}
		for _, a := range r.Apps {
			res.Apps = append(res.Apps, a.GetSlug())
		}
		p.Restrictions = res
	}
	return p
}

// liveContexts extracts context names from a read-back status check block.
// The platform returns both the legacy contexts list and the checks list;
// prefer contexts, fall back to checks.
func liveContexts(sc *github.RequiredStatusChecks) []string {
	if sc.Contexts != nil {
		return append([]string(nil), (*sc.Contexts)...)
	}
	if sc.Checks == nil {
		return nil
	}
	out := make([]string, 0, len(*sc.Checks))
	for _, c := range *sc.Checks {
		if c != nil {
			out = append(out, c.Context)
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
