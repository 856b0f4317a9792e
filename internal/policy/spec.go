package policy

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// BranchTarget names a branch and whether its absence is an error.
type BranchTarget struct {
	Name     string `yaml:"branch"`
	Required bool   `yaml:"required"`
}

// Entry pairs one branch target with its desired protection policy.
type Entry struct {
	BranchTarget `yaml:",inline"`
	Policy       ProtectionPolicy `yaml:"policy"`
}

// GovernanceSpec is the ordered set of branch policies for one repository.
// Insertion order is the application and reporting order.
type GovernanceSpec struct {
	Entries []Entry `yaml:"branches"`
}

// Validate checks structural invariants: non-empty unique branch names and a
// valid policy per entry. It runs before any network activity.
func (s GovernanceSpec) Validate() error {
	if len(s.Entries) == 0 {
		return &ValidationError{Field: "branches", Detail: "at least one branch entry is required"}
	}
	seen := make(map[string]struct{}, len(s.Entries))
	for i, e := range s.Entries {
		if e.Name == "" {
			return &ValidationError{Field: fmt.Sprintf("branches[%d].branch", i), Detail: "branch name must be non-empty"}
		}
		if _, dup := seen[e.Name]; dup {
			return &ValidationError{Field: fmt.Sprintf("branches[%d].branch", i), Detail: fmt.Sprintf("duplicate branch %q", e.Name)}
		}
		seen[e.Name] = struct{}{}
		if err := e.Policy.Validate(); err != nil {
			return fmt.Errorf("branch %q: %w", e.Name, err)
		}
	}
	return nil
}

// Select returns the subset of entries whose branch name is in names,
// preserving spec order. Unknown names are an error so a typo on the command
// line cannot silently no-op.
func (s GovernanceSpec) Select(names []string) (GovernanceSpec, error) {
	if len(names) == 0 {
		return s, nil
	}
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}
	out := GovernanceSpec{}
	for _, e := range s.Entries {
		if _, ok := want[e.Name]; ok {
			out.Entries = append(out.Entries, e)
			delete(want, e.Name)
		}
	}
	if len(want) > 0 {
		for n := range want {
			return GovernanceSpec{}, &ValidationError{Field: "branch", Detail: fmt.Sprintf("branch %q is not in the spec", n)}
		}
	}
	return out, nil
}

// Load reads and validates a GovernanceSpec from a YAML file.
func Load(path string) (GovernanceSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return GovernanceSpec{}, fmt.Errorf("open spec file: %w", err)
	}
	defer f.Close()
	spec, err := Parse(f)
	if err != nil {
		return GovernanceSpec{}, fmt.Errorf("spec file %s: %w", path, err)
	}
	return spec, nil
}

// Parse decodes a GovernanceSpec from YAML. Unknown fields are rejected so a
// misspelled policy field fails loudly instead of being silently ignored.
func Parse(r io.Reader) (GovernanceSpec, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return GovernanceSpec{}, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var spec GovernanceSpec
	if err := dec.Decode(&spec); err != nil {
		if errors.Is(err, io.EOF) {
			return GovernanceSpec{}, &ValidationError{Detail: "spec is empty"}
		}
		return GovernanceSpec{}, fmt.Errorf("decode spec: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return GovernanceSpec{}, err
	}
	return spec, nil
}
