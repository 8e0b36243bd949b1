// Package credentials resolves the generation service key at startup.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode"
)

var (
	// ErrCredential is the parent of every credential lookup failure.
	ErrCredential = errors.New("credential unavailable")
	// ErrSecretNotFound means the vault has no such secret.
	ErrSecretNotFound = fmt.Errorf("%w: secret not found", ErrCredential)
)

// SecretProvider fetches one secret from a named vault.
type SecretProvider interface {
	GetSecret(ctx context.Context, vaultID, secretID string) (string, error)
}

// EnvProvider reads secrets from environment variables named
// <VAULT>_<SECRET>, upper-cased with non-alphanumerics turned into '_'.
type EnvProvider struct {
	lookup func(string) (string, bool)
}

// NewEnvProvider creates a provider backed by the process environment.
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{lookup: os.LookupEnv}
}

// EnvName returns the variable EnvProvider reads for vaultID and secretID.
func EnvName(vaultID, secretID string) string {
	clean := func(s string) string {
		return strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return unicode.ToUpper(r)
			}
			return '_'
		}, s)
	}
	return clean(vaultID) + "_" + clean(secretID)
}

func (e *EnvProvider) GetSecret(ctx context.Context, vaultID, secretID string) (string, error) {
	name := EnvName(vaultID, secretID)
	v, ok := e.lookup(name)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s is not set", ErrSecretNotFound, name)
	}
	return v, nil
}

// ResolveAPIKey returns literal when set. Otherwise it asks provider once.
func ResolveAPIKey(ctx context.Context, literal string, provider SecretProvider, vaultID, secretID string, logger *slog.Logger) (string, error) {
	if literal != "" {
		logger.Debug("Using literal API key")
		return literal, nil
	}
	if provider == nil {
		return "", fmt.Errorf("%w: no api key and no secret provider", ErrCredential)
	}
	key, err := provider.GetSecret(ctx, vaultID, secretID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch secret %s from %s: %w", secretID, vaultID, err)
	}
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("%w: secret %s in %s is empty", ErrCredential, secretID, vaultID)
	}
	logger.Debug("API key fetched from secret provider", "vault", vaultID, "secret", secretID)
	return key, nil
}
