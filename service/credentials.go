package service

import (
	"context"
	"encoding/hex"
	"log"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// AttemptFunc performs one generative call with a single credential
type AttemptFunc func(ctx context.Context, credential string) (string, error)

// ParseCredentials splits a comma-separated credential list, dropping blank entries
func ParseCredentials(raw string) []string {
	var creds []string
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			creds = append(creds, c)
		}
	}
	return creds
}

// TryInOrder calls attempt with each credential in turn and returns the first
// success. Failures are logged and the next credential is tried. With no
// credentials it fails with ErrMissingCredentials without calling attempt;
// when every credential fails the last error is returned.
func TryInOrder(ctx context.Context, credentials []string, attempt AttemptFunc) (string, error) {
	if len(credentials) == 0 {
		return "", ErrMissingCredentials
	}

	var lastErr error
	for _, cred := range credentials {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := attempt(ctx, cred)
		if err == nil {
			return text, nil
		}
		log.Printf("Warning: credential %s failed: %v", Fingerprint(cred), err)
		lastErr = err
	}

	if lastErr == nil {
		return "", ErrAllCredentialsFailed
	}
	return "", lastErr
}

// Fingerprint identifies a credential in logs without revealing it
func Fingerprint(credential string) string {
	sum := blake2b.Sum256([]byte(credential))
	return "key:" + hex.EncodeToString(sum[:4])
}
