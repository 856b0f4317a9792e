// Package vault reads the GitHub access token from a HashiCorp Vault KV v2
// store. It is an optional credential source: callers only consult it when
// VAULT_ADDR is set in the environment.
package vault

import (
	"context"
	"fmt"

	vault "github.com/hashicorp/vault/api"
)

const (
	// secretPath is the KV v2 path (under the "secret" mount) that holds
	// branchward's credentials.
	secretPath = "branchward/auth"
	tokenKey   = "github_token"
)

// GitHubToken retrieves the GitHub token from Vault. Configuration comes from
// the standard Vault environment variables (VAULT_ADDR, VAULT_TOKEN, ...).
func GitHubToken(ctx context.Context) (string, error) {
	config := vault.DefaultConfig()
	if config == nil {
		return "", fmt.Errorf("failed to create default vault config")
	}

	client, err := vault.NewClient(config)
	if err != nil {
		return "", fmt.Errorf("failed to create vault client: %w", err)
	}

	secret, err := client.KVv2("secret").Get(ctx, secretPath)
	if err != nil {
		return "", fmt.Errorf("failed to read secret at %s: %w", secretPath, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("no data found at %s", secretPath)
	}

	tok, ok := secret.Data[tokenKey].(string)
	if !ok || tok == "" {
		return "", fmt.Errorf("secret %s has no %s value", secretPath, tokenKey)
	}
	return tok, nil
}
