package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"branchward/internal/policy"

	"github.com/fatih/color"
)

var statusColors = map[policy.Status]*color.Color{
	policy.StatusApplied:    color.New(color.FgGreen),
	policy.StatusMatched:    color.New(color.FgGreen),
	policy.StatusSkipped:    color.New(color.FgYellow),
	policy.StatusMismatched: color.New(color.FgRed),
	policy.StatusFailed:     color.New(color.FgRed),
}

type ConsoleSink struct {
	writer  io.Writer
	format  string // "text", "json", "ndjson"
	mu      sync.Mutex
	results []policy.BranchResult // For JSON array output
}

func NewConsoleSink(w io.Writer, format string) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}
	return &ConsoleSink{
		writer: w,
		format: format,
	}
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(v)
}

func (s *ConsoleSink) writeLocked(v any) error {
	switch s.format {
	case "json":
		r, ok := v.(policy.BranchResult)
		if !ok {
			// Ignore non-result events in JSON console mode.
			return nil
		}
		s.results = append(s.results, r)
		return nil
	case "ndjson":
		encoder := json.NewEncoder(s.writer)
		switch t := v.(type) {
		case Event:
			if err := encoder.Encode(t); err != nil {
				return err
			}
			return flushIfPossible(s.writer)
		case policy.BranchResult:
			if err := encoder.Encode(eventFromResult(t)); err != nil {
				return err
			}
			return flushIfPossible(s.writer)
		default:
			return nil
		}
	case "text":
		r, ok := v.(policy.BranchResult)
		if !ok {
			// Ignore events in text mode.
			return nil
		}
		return s.writeText(r)
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

func (s *ConsoleSink) writeText(r policy.BranchResult) error {
	status := string(r.Status)
	if c, ok := statusColors[r.Status]; ok {
		status = c.Sprint(status)
	}
	line := fmt.Sprintf("[%s] %s", status, r.Branch)
	if r.Message != "" {
		line += " - " + r.Message
	}
	if _, err := fmt.Fprintln(s.writer, line); err != nil {
		return err
	}
	for _, field := range sortedDiffFields(r.Diffs) {
		d := r.Diffs[field]
		if _, err := fmt.Fprintf(s.writer, "    %s: expected %s, actual %s\n", field, d.Expected, d.Actual); err != nil {
			return err
		}
	}
	return flushIfPossible(s.writer)
}

func sortedDiffFields(diffs map[string]policy.FieldDiff) []string {
	if len(diffs) == 0 {
		return nil
	}
	fields := make([]string, 0, len(diffs))
	for f := range diffs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == "json" {
		encoder := json.NewEncoder(s.writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(s.results); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	}
	if s.format != "text" && s.format != "ndjson" {
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
	return nil
}

// Summary renders a one-line run summary like "2 applied, 1 skipped".
func Summary(results []policy.BranchResult) string {
	counts := make(map[policy.Status]int)
	for _, r := range results {
		counts[r.Status]++
	}
	order := []policy.Status{
		policy.StatusApplied,
		policy.StatusMatched,
		policy.StatusMismatched,
		policy.StatusSkipped,
		policy.StatusFailed,
	}
	var parts []string
	for _, st := range order {
		if n := counts[st]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, strings.ToLower(string(st))))
		}
	}
	if len(parts) == 0 {
		return "no branches processed"
	}
	return strings.Join(parts, ", ")
}
