package github

import (
	"context"
	"fmt"
	"strings"
)

// AuthError is fatal: no branch operations proceed without a valid session.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Session is the process-scoped authentication context. It is created once at
// startup, validated against the platform, and never mutated afterwards. It
// holds only a credential-backed client, so no explicit teardown is needed.
type Session struct {
	Client      *Client
	Login       string
	TokenSource AuthTokenSource
}

// Authenticate resolves a token, builds an authenticated client, and proves
// the credentials work with a single self-lookup call. Any failure here is
// fatal to the run.
func Authenticate(ctx context.Context, provided string, opts ...Option) (*Session, error) {
	token, source, err := ResolveAuthToken(ctx, provided)
	if err != nil {
		return nil, &AuthError{Reason: "resolving credentials", Err: err}
	}
	if strings.TrimSpace(token) == "" {
		return nil, &AuthError{Reason: "no valid credentials (set GITHUB_TOKEN, run 'gh auth login', or configure Vault)"}
	}

	client, err := NewClient(ctx, token, opts...)
	if err != nil {
		return nil, &AuthError{Reason: "creating client", Err: err}
	}

	user, _, err := client.Client.Users.Get(ctx, "")
	if err != nil {
		return nil, &AuthError{Reason: fmt.Sprintf("token from %s was rejected by the platform", source), Err: err}
	}

	return &Session{
		Client:      client,
		Login:       user.GetLogin(),
		TokenSource: source,
	}, nil
}
