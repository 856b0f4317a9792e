package resolve

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"testing"
)

func TestParseSelector(t *testing.T) {
	tests := []struct {
		in      string
		want    RepositoryRef
		wantErr bool
	}{
		{in: "octo/widgets", want: RepositoryRef{Owner: "octo", Name: "widgets"}},
		{in: " octo/widgets ", want: RepositoryRef{Owner: "octo", Name: "widgets"}},
		{in: "https://github.com/octo/widgets", want: RepositoryRef{Owner: "octo", Name: "widgets"}},
		{in: "git@github.com:octo/widgets.git", want: RepositoryRef{Owner: "octo", Name: "widgets"}},
		{in: "github.com/octo/widgets", want: RepositoryRef{Owner: "octo", Name: "widgets"}},
		{in: "", wantErr: true},
		{in: "justaname", wantErr: true},
		{in: "a/b/c", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSelector(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSelector(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseRemoteURL(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    RepositoryRef
		wantErr bool
	}{
		{name: "ssh scp form", in: "git@github.com:octo/widgets.git", want: RepositoryRef{Owner: "octo", Name: "widgets"}},
		{name: "ssh url form", in: "ssh://git@github.com/octo/widgets.git", want: RepositoryRef{Owner: "octo", Name: "widgets"}},
		{name: "https with .git", in: "https://github.com/octo/widgets.git", want: RepositoryRef{Owner: "octo", Name: "widgets"}},
		{name: "https without .git", in: "https://github.com/octo/widgets", want: RepositoryRef{Owner: "octo", Name: "widgets"}},
		{name: "www host", in: "https://www.github.com/octo/widgets", want: RepositoryRef{Owner: "octo", Name: "widgets"}},
		{name: "gitlab rejected", in: "https://gitlab.com/octo/widgets", wantErr: true},
		{name: "ssh other host rejected", in: "git@gitlab.com:octo/widgets.git", wantErr: true},
		{name: "missing repo", in: "https://github.com/octo", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRemoteURL(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				var rerr *ResolutionError
				if !errors.As(err, &rerr) {
					t.Fatalf("expected *ResolutionError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRemoteURL(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRepository_ExplicitWins(t *testing.T) {
	got, err := Repository(context.Background(), "octo/widgets", t.TempDir(), "origin")
	if err != nil {
		t.Fatalf("Repository: %v", err)
	}
	if got.Owner != "octo" || got.Name != "widgets" {
		t.Errorf("unexpected ref: %+v", got)
	}
}

func TestRepository_FromGitRemote(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test shells out to git")
	}
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	run("init", "--quiet")
	run("remote", "add", "origin", "git@github.com:octo/widgets.git")

	got, err := Repository(context.Background(), "", dir, "origin")
	if err != nil {
		t.Fatalf("Repository: %v", err)
	}
	if got.Owner != "octo" || got.Name != "widgets" {
		t.Errorf("unexpected ref: %+v", got)
	}

	// A remote that is not configured is a resolution error, not a panic.
	if _, err := Repository(context.Background(), "", dir, "upstream"); err == nil {
		t.Error("expected error for missing remote")
	}
}

func TestRepository_NoRemote(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	_, err := Repository(context.Background(), "", t.TempDir(), "origin")
	if err == nil {
		t.Fatal("expected error outside a git repository")
	}
	var rerr *ResolutionError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *ResolutionError, got %T: %v", err, err)
	}
}
