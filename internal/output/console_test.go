package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"branchward/internal/policy"

	"github.com/fatih/color"
)

func init() {
	// Keep assertions on text output stable regardless of terminal detection.
	color.NoColor = true
}

func TestConsoleSink_Text(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSink(&buf, "text")

	if err := s.Write(policy.BranchResult{Branch: "main", Status: policy.StatusApplied}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Write(policy.BranchResult{
		Branch:  "develop",
		Status:  policy.StatusSkipped,
		Message: "branch not found",
	}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Write(Event{Type: "run.started"}); err != nil {
		t.Fatalf("Write event: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "[APPLIED] main") {
		t.Errorf("missing applied line, got:\n%s", out)
	}
	if !strings.Contains(out, "[SKIPPED] develop - branch not found") {
		t.Errorf("missing skipped line, got:\n%s", out)
	}
	if strings.Contains(out, "run.started") {
		t.Errorf("text mode must ignore events, got:\n%s", out)
	}
}

func TestConsoleSink_Text_Diffs(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSink(&buf, "text")

	_ = s.Write(policy.BranchResult{
		Branch: "main",
		Status: policy.StatusMismatched,
		Diffs: map[string]policy.FieldDiff{
			"required_approving_review_count": {Expected: "1", Actual: "0"},
			"enforce_admins":                  {Expected: "true", Actual: "false"},
		},
	})
	_ = s.Close()

	out := buf.String()
	if !strings.Contains(out, "required_approving_review_count: expected 1, actual 0") {
		t.Errorf("missing diff line, got:\n%s", out)
	}
	// Diff lines are sorted by field name.
	if strings.Index(out, "enforce_admins") > strings.Index(out, "required_approving_review_count") {
		t.Errorf("diff lines not sorted, got:\n%s", out)
	}
}

func TestConsoleSink_JSONAggregate(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSink(&buf, "json")

	_ = s.Write(policy.BranchResult{Branch: "main", Status: policy.StatusMatched})
	_ = s.Write(Event{Type: "run.started"})
	if buf.Len() != 0 {
		t.Fatal("json mode must not write before Close")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var results []policy.BranchResult
	if err := json.Unmarshal(buf.Bytes(), &results); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, buf.String())
	}
	if len(results) != 1 || results[0].Branch != "main" {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestConsoleSink_NDJSON(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSink(&buf, "ndjson")

	_ = s.Write(Event{Type: "run.started", Branches: 2})
	_ = s.Write(policy.BranchResult{Branch: "main", Status: policy.StatusApplied})
	_ = s.Write(Event{Type: "run.finished", ExitCode: 0})
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 NDJSON lines, got %d:\n%s", len(lines), buf.String())
	}

	var first Event
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("unmarshal first line: %v", err)
	}
	if first.Type != "run.started" || first.Branches != 2 {
		t.Errorf("unexpected first event: %+v", first)
	}

	var mid map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &mid); err != nil {
		t.Fatalf("unmarshal result line: %v", err)
	}
	if mid["type"] != "branch.result" {
		t.Errorf("expected branch.result, got %v", mid["type"])
	}
}

func TestConsoleSink_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSink(&buf, "yaml")
	if err := s.Write(policy.BranchResult{Branch: "main"}); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestSummary(t *testing.T) {
	got := Summary([]policy.BranchResult{
		{Status: policy.StatusApplied},
		{Status: policy.StatusApplied},
		{Status: policy.StatusSkipped},
	})
	if got != "2 applied, 1 skipped" {
		t.Errorf("unexpected summary: %q", got)
	}

	if got := Summary(nil); got != "no branches processed" {
		t.Errorf("unexpected empty summary: %q", got)
	}
}
