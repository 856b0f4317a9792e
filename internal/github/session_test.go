package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAuthenticate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"login":"octocat"}`)
	}))
	t.Cleanup(server.Close)

	sess, err := Authenticate(context.Background(), "test-token", WithBaseURL(server.URL+"/"))
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if sess.Login != "octocat" {
		t.Errorf("want login octocat, got %q", sess.Login)
	}
	if sess.TokenSource != AuthTokenSourceExplicit {
		t.Errorf("want explicit source, got %q", sess.TokenSource)
	}
	if sess.Client == nil {
		t.Error("session client must be set")
	}
}

func TestAuthenticate_RejectedToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"Bad credentials"}`)
	}))
	t.Cleanup(server.Close)

	_, err := Authenticate(context.Background(), "bad-token", WithBaseURL(server.URL+"/"))
	if err == nil {
		t.Fatal("expected error")
	}
	var aerr *AuthError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected *AuthError, got %T: %v", err, err)
	}
	if !strings.Contains(aerr.Reason, "rejected") {
		t.Errorf("unexpected reason: %q", aerr.Reason)
	}
}

func TestAuthenticate_NoCredentials(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("VAULT_ADDR", "")
	t.Setenv("PATH", t.TempDir())

	_, err := Authenticate(context.Background(), "")
	if err == nil {
		t.Fatal("expected error")
	}
	var aerr *AuthError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected *AuthError, got %T: %v", err, err)
	}
	if !strings.Contains(aerr.Reason, "no valid credentials") {
		t.Errorf("unexpected reason: %q", aerr.Reason)
	}
}
