package output

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"branchward/internal/policy"
)

// ReportSink accumulates branch results and writes a Markdown report on Close.
type ReportSink struct {
	path         string
	file         *os.File
	mu           sync.Mutex
	results      []policy.BranchResult
	repo         string
	exitCode     int
	haveExitCode bool
}

func NewReportSink(path string) (*ReportSink, error) {
	if path == "" {
		return nil, fmt.Errorf("report path required")
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}

	return &ReportSink{
		path: path,
		file: f,
	}, nil
}

func (s *ReportSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch t := v.(type) {
	case policy.BranchResult:
		s.results = append(s.results, t)
		if t.Repo != "" {
			s.repo = t.Repo
		}
	case Event:
		if t.Repo != "" {
			s.repo = t.Repo
		}
		if t.Type == "run.finished" {
			s.exitCode = t.ExitCode
			s.haveExitCode = true
		}
	}
	return nil
}

func (s *ReportSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	b.WriteString("# Branch Protection Report\n\n")
	if s.repo != "" {
		fmt.Fprintf(&b, "Repository: `%s`\n\n", s.repo)
	}
	fmt.Fprintf(&b, "Summary: %s\n\n", Summary(s.results))

	b.WriteString("| Branch | Status | Detail |\n")
	b.WriteString("|--------|--------|--------|\n")
	for _, r := range s.results {
		detail := r.Message
		if len(r.Diffs) > 0 {
			var parts []string
			for _, field := range sortedDiffFields(r.Diffs) {
				d := r.Diffs[field]
				parts = append(parts, fmt.Sprintf("%s: expected %s, actual %s", field, d.Expected, d.Actual))
			}
			if detail != "" {
				detail += "; "
			}
			detail += strings.Join(parts, "; ")
		}
		if detail == "" {
			detail = "-"
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", r.Branch, r.Status, strings.ReplaceAll(detail, "|", "\\|"))
	}

	if s.haveExitCode {
		fmt.Fprintf(&b, "\nExit code: %d\n", s.exitCode)
	}

	if _, err := s.file.WriteString(b.String()); err != nil {
		_ = s.file.Close()
		return err
	}
	return s.file.Close()
}
