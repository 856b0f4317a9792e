package policy

// Status is the terminal state of one branch in a run.
type Status string

const (
	// StatusApplied means the policy was written; the read-back either
	// confirmed the live state or was unavailable (noted in the message).
	StatusApplied Status = "APPLIED"
	// StatusMatched means a read-only run found the live state already
	// matching intent.
	StatusMatched Status = "MATCHED"
	// StatusMismatched means the live state diverges from intent.
	StatusMismatched Status = "MISMATCHED"
	// StatusSkipped means the branch was not processed (absent optional
	// branch, or run canceled before this branch started).
	StatusSkipped Status = "SKIPPED"
	// StatusFailed means an API or authorization error prevented a terminal
	// Applied/Matched/Mismatched outcome for this branch.
	StatusFailed Status = "FAILED"
)

// BranchResult is the outcome record for one (branch, policy) pair. Exactly
// one is produced per spec entry per run; none are silently dropped.
type BranchResult struct {
	Branch   string               `json:"branch"`
	Repo     string               `json:"repo,omitempty"`
	Status   Status               `json:"status"`
	Message  string               `json:"message,omitempty"`
	Diffs    map[string]FieldDiff `json:"diffs,omitempty"`
	// Observed is the live policy state read back from the platform, when a
	// read succeeded.
	Observed *ProtectionPolicy `json:"observed,omitempty"`
}

// Failed reports whether this result should drive a non-zero exit code.
func (r BranchResult) Failed() bool {
	return r.Status == StatusFailed || r.Status == StatusMismatched
}
