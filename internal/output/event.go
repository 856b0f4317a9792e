package output

import "branchward/internal/policy"

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line), including:
// - run.started
// - branch.started
// - branch.result
// - run.finished
//
// JSON mode remains an aggregate of policy.BranchResult values.
type Event struct {
	Type   string `json:"type"`
	Repo   string `json:"repo,omitempty"`
	Branch string `json:"branch,omitempty"`
	*policy.BranchResult
	Branches int `json:"branches,omitempty"`
	ExitCode int `json:"exit_code,omitempty"`
}

func eventFromResult(r policy.BranchResult) Event {
	return Event{Type: "branch.result", Repo: r.Repo, Branch: r.Branch, BranchResult: &r}
}
