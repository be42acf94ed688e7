// Package auth authenticates operator API keys. Keys are stored only as
// HMAC-SHA256 hashes keyed by a server-side pepper.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"slices"

	"github.com/go-faster/errors"
)

// Scopes granted to API keys.
const (
	ScopeRead  = "shipping:read"
	ScopeWrite = "shipping:write"
)

var (
	// ErrKeyNotFound is returned by a Repository for unknown or inactive keys.
	ErrKeyNotFound = errors.New("api key not found")
	// ErrUnauthorized is returned by Authenticate for any rejected key.
	ErrUnauthorized = errors.New("unauthorized")
)

// APIKeyInfo holds the identity and permission data for a validated API key.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	Name    string
	Scopes  []string
}

// HasScope reports whether the key was granted scope. Write implies read.
func (i *APIKeyInfo) HasScope(scope string) bool {
	if slices.Contains(i.Scopes, scope) {
		return true
	}
	return scope == ScopeRead && slices.Contains(i.Scopes, ScopeWrite)
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}

// Authenticator validates raw API keys against a Repository.
type Authenticator struct {
	keys   Repository
	pepper []byte
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(keys Repository, pepper []byte) *Authenticator {
	return &Authenticator{keys: keys, pepper: pepper}
}

// Hash returns the hex HMAC-SHA256 of key under pepper.
func Hash(pepper []byte, key string) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

// Authenticate resolves a raw key. Every failure, including a repository
// error, is reported as ErrUnauthorized wrapped around the cause.
func (a *Authenticator) Authenticate(ctx context.Context, key string) (*APIKeyInfo, error) {
	if key == "" {
		return nil, ErrUnauthorized
	}
	hexHash := Hash(a.pepper, key)

	info, err := a.keys.FindByHash(ctx, hexHash)
	if err != nil {
		return nil, errors.Wrap(ErrUnauthorized, err.Error())
	}

	// The stored row must match the computed hash even if the lookup
	// returned something unexpected.
	stored, err := hex.DecodeString(info.KeyHash)
	if err != nil {
		return nil, ErrUnauthorized
	}
	computed, _ := hex.DecodeString(hexHash)
	if subtle.ConstantTimeCompare(computed, stored) != 1 {
		return nil, ErrUnauthorized
	}
	return info, nil
}
