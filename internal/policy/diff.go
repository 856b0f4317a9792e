package policy

import (
	"fmt"
	"sort"
	"strings"
)

// FieldDiff records one field that diverges between intent and live state.
type FieldDiff struct {
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// Diff compares a desired policy against the observed live policy and returns
// per-field divergences keyed by spec field name. An empty map means the
// branch matches intent.
//
// Comparison rules: status-check contexts and restriction members are
// compared as sets, since the platform reorders them on read-back; every
// other field is exact-match.
func Diff(expected, actual ProtectionPolicy) map[string]FieldDiff {
	diffs := make(map[string]FieldDiff)

	boolField := func(name string, want, got bool) {
		if want != got {
			diffs[name] = FieldDiff{Expected: fmt.Sprintf("%t", want), Actual: fmt.Sprintf("%t", got)}
		}
	}

	if !sameSet(expected.RequiredStatusChecks.Contexts, actual.RequiredStatusChecks.Contexts) {
		diffs["required_status_checks.contexts"] = FieldDiff{
			Expected: formatSet(expected.RequiredStatusChecks.Contexts),
			Actual:   formatSet(actual.RequiredStatusChecks.Contexts),
		}
	}
	boolField("required_status_checks.strict", expected.RequiredStatusChecks.Strict, actual.RequiredStatusChecks.Strict)

	if expected.RequiredApprovingReviewCount != actual.RequiredApprovingReviewCount {
		diffs["required_approving_review_count"] = FieldDiff{
			Expected: fmt.Sprintf("%d", expected.RequiredApprovingReviewCount),
			Actual:   fmt.Sprintf("%d", actual.RequiredApprovingReviewCount),
		}
	}

	boolField("dismiss_stale_reviews", expected.DismissStaleReviews, actual.DismissStaleReviews)
	boolField("require_code_owner_reviews", expected.RequireCodeOwnerReviews, actual.RequireCodeOwnerReviews)
	boolField("require_last_push_approval", expected.RequireLastPushApproval, actual.RequireLastPushApproval)
	boolField("required_conversation_resolution", expected.RequiredConversationResolution, actual.RequiredConversationResolution)
	boolField("enforce_admins", expected.EnforceAdmins, actual.EnforceAdmins)
	boolField("allow_force_pushes", expected.AllowForcePushes, actual.AllowForcePushes)
	boolField("allow_deletions", expected.AllowDeletions, actual.AllowDeletions)
	boolField("required_linear_history", expected.RequiredLinearHistory, actual.RequiredLinearHistory)
	boolField("lock_branch", expected.LockBranch, actual.LockBranch)

	diffRestrictions(diffs, expected.Restrictions, actual.Restrictions)

	return diffs
}

func diffRestrictions(diffs map[string]FieldDiff, want, got *Restrictions) {
	switch {
	case want == nil && got == nil:
		return
	case want == nil:
		diffs["restrictions"] = FieldDiff{Expected: "unrestricted", Actual: "restricted"}
		return
	case got == nil:
		diffs["restrictions"] = FieldDiff{Expected: "restricted", Actual: "unrestricted"}
		return
	}

	if !sameSet(want.Users, got.Users) {
		diffs["restrictions.users"] = FieldDiff{Expected: formatSet(want.Users), Actual: formatSet(got.Users)}
	}
	if !sameSet(want.Teams, got.Teams) {
		diffs["restrictions.teams"] = FieldDiff{Expected: formatSet(want.Teams), Actual: formatSet(got.Teams)}
	}
	if !sameSet(want.Apps, got.Apps) {
		diffs["restrictions.apps"] = FieldDiff{Expected: formatSet(want.Apps), Actual: formatSet(got.Apps)}
	}
}

func sameSet(a, b []string) bool {
	return setOf(a).equal(setOf(b))
}

type stringSet map[string]struct{}

func setOf(vals []string) stringSet {
	s := make(stringSet, len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

func (s stringSet) equal(other stringSet) bool {
	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if _, ok := other[k]; !ok {
			return false
		}
	}
	return true
}

func formatSet(vals []string) string {
	if len(vals) == 0 {
		return "[]"
	}
	sorted := append([]string(nil), vals...)
	sort.Strings(sorted)
	return "[" + strings.Join(sorted, ", ") + "]"
}
