// Package resolve determines the target repository identity, either from an
// explicit OWNER/REPO selector or from the git remote configuration of a
// working directory.
package resolve

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"strings"
	"time"
)

// RepositoryRef identifies one GitHub repository.
type RepositoryRef struct {
	Owner string
	Name  string
}

func (r RepositoryRef) String() string {
	return r.Owner + "/" + r.Name
}

// ResolutionError is fatal: without a repository identity there is nothing to
// configure.
type ResolutionError struct {
	Input  string
	Detail string
}

func (e *ResolutionError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("cannot resolve repository: %s", e.Detail)
	}
	return fmt.Sprintf("cannot resolve repository from %q: %s", e.Input, e.Detail)
}

// Repository resolves the target repository. An explicit selector
// (OWNER/REPO or a GitHub URL) wins; otherwise the named git remote of the
// working directory dir is read and parsed.
func Repository(ctx context.Context, explicit, dir, remoteName string) (RepositoryRef, error) {
	if strings.TrimSpace(explicit) != "" {
		return ParseSelector(explicit)
	}

	raw, err := remoteURL(ctx, dir, remoteName)
	if err != nil {
		return RepositoryRef{}, &ResolutionError{
			Input:  remoteName,
			Detail: fmt.Sprintf("no usable git remote: %v", err),
		}
	}
	return ParseRemoteURL(raw)
}

// ParseSelector accepts OWNER/REPO or any GitHub URL form.
func ParseSelector(raw string) (RepositoryRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return RepositoryRef{}, &ResolutionError{Detail: "empty repository selector"}
	}

	if strings.Contains(raw, "://") || strings.HasPrefix(raw, "git@") ||
		strings.HasPrefix(raw, "github.com/") || strings.HasPrefix(raw, "www.github.com/") {
		return ParseRemoteURL(raw)
	}

	parts := strings.Split(raw, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RepositoryRef{}, &ResolutionError{Input: raw, Detail: "expected OWNER/REPO"}
	}
	return RepositoryRef{Owner: parts[0], Name: strings.TrimSuffix(parts[1], ".git")}, nil
}

// ParseRemoteURL extracts owner and repo from the URL forms git remotes use:
//
//	git@github.com:owner/repo.git
//	ssh://git@github.com/owner/repo.git
//	https://github.com/owner/repo(.git)
//	github.com/owner/repo
func ParseRemoteURL(raw string) (RepositoryRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return RepositoryRef{}, &ResolutionError{Detail: "empty remote URL"}
	}

	// SCP-like SSH form.
	if strings.HasPrefix(raw, "git@") {
		host, path, ok := strings.Cut(strings.TrimPrefix(raw, "git@"), ":")
		if !ok || !isGitHubHost(host) {
			return RepositoryRef{}, &ResolutionError{Input: raw, Detail: "remote does not point at github.com"}
		}
		return refFromPath(raw, path)
	}

	if strings.HasPrefix(raw, "github.com/") || strings.HasPrefix(raw, "www.github.com/") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return RepositoryRef{}, &ResolutionError{Input: raw, Detail: "unparsable remote URL"}
	}
	if !isGitHubHost(u.Hostname()) {
		return RepositoryRef{}, &ResolutionError{Input: raw, Detail: "remote does not point at github.com"}
	}
	return refFromPath(raw, u.Path)
}

func refFromPath(input, path string) (RepositoryRef, error) {
	parts := strings.FieldsFunc(strings.Trim(path, "/"), func(r rune) bool { return r == '/' })
	if len(parts) < 2 {
		return RepositoryRef{}, &ResolutionError{Input: input, Detail: "URL path does not contain OWNER/REPO"}
	}
	name := strings.TrimSuffix(parts[1], ".git")
	if parts[0] == "" || name == "" {
		return RepositoryRef{}, &ResolutionError{Input: input, Detail: "URL path does not contain OWNER/REPO"}
	}
	return RepositoryRef{Owner: parts[0], Name: name}, nil
}

func isGitHubHost(host string) bool {
	host = strings.ToLower(host)
	return host == "github.com" || host == "www.github.com"
}

func remoteURL(ctx context.Context, dir, remoteName string) (string, error) {
	if remoteName == "" {
		remoteName = "origin"
	}

	// Bounded so a hung credential helper or filesystem can't stall startup.
	cmdCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	cmd := exec.CommandContext(cmdCtx, "git", "remote", "get-url", remoteName)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.Output()
	if err != nil {
		if cmdCtx.Err() != nil {
			return "", cmdCtx.Err()
		}
		return "", fmt.Errorf("git remote get-url %s: %w", remoteName, err)
	}
	return strings.TrimSpace(string(out)), nil
}
