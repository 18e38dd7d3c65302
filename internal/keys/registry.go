// Package keys turns domain keys into opaque URL-safe tokens and back.
//
// A token is the key path sealed with XChaCha20-Poly1305 under a nonce derived from the path
// itself, so encoding is deterministic and reversible while the token reveals nothing about
// the kind, identity or parent chain to anyone without the secret.
package keys

import (
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"conferencecentral/internal/domain"
)

// parents lists the kind each kind must be a direct child of; "" means root.
var parents = map[domain.Kind]domain.Kind{
	domain.KindProfile:    "",
	domain.KindConference: "",
	domain.KindSpeaker:    "",
	domain.KindSession:    domain.KindConference,
}

// Registry encodes and decodes opaque keys.
type Registry struct {
	aead   cipher.AEAD
	macKey []byte
}

// NewRegistry derives the sealing and nonce keys from secret.
func NewRegistry(secret string) (*Registry, error) {
	if secret == "" {
		return nil, errors.New("key registry: empty secret")
	}
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("conferencecentral keys v1"))
	material := make([]byte, chacha20poly1305.KeySize+32)
	if _, err := io.ReadFull(r, material); err != nil {
		return nil, fmt.Errorf("derive key material: %w", err)
	}
	aead, err := chacha20poly1305.NewX(material[:chacha20poly1305.KeySize])
	if err != nil {
		return nil, fmt.Errorf("init aead: %w", err)
	}
	return &Registry{aead: aead, macKey: material[chacha20poly1305.KeySize:]}, nil
}

// Validate checks the structural rules: known kind, complete identity at every level, and
// the parent chain each kind requires.
func Validate(k *domain.Key) error {
	if k == nil {
		return fmt.Errorf("%w: nil key", domain.ErrValidation)
	}
	for cur := k; cur != nil; cur = cur.Parent {
		want, ok := parents[cur.Kind]
		if !ok {
			return fmt.Errorf("%w: unknown kind %q", domain.ErrValidation, cur.Kind)
		}
		if cur.Incomplete() {
			return fmt.Errorf("%w: incomplete %s key", domain.ErrValidation, cur.Kind)
		}
		if cur.ID != 0 && cur.Name != "" {
			return fmt.Errorf("%w: %s key has both id and name", domain.ErrValidation, cur.Kind)
		}
		switch {
		case want == "" && cur.Parent != nil:
			return fmt.Errorf("%w: %s must be a root key", domain.ErrValidation, cur.Kind)
		case want != "" && (cur.Parent == nil || cur.Parent.Kind != want):
			return fmt.Errorf("%w: %s must be a child of %s", domain.ErrValidation, cur.Kind, want)
		}
	}
	return nil
}

// Encode returns the opaque token for k.
func (r *Registry) Encode(k *domain.Key) (string, error) {
	if err := Validate(k); err != nil {
		return "", err
	}
	path := []byte(k.String())
	mac := hmac.New(sha256.New, r.macKey)
	mac.Write(path)
	nonce := mac.Sum(nil)[:chacha20poly1305.NonceSizeX]
	sealed := r.aead.Seal(nonce, nonce, path, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decode reverses Encode. When expect is non-empty the decoded kind must match it.
func (r *Registry) Decode(token string, expect domain.Kind) (*domain.Key, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: not base64url", domain.ErrMalformedKey)
	}
	if len(raw) < chacha20poly1305.NonceSizeX+r.aead.Overhead() {
		return nil, fmt.Errorf("%w: token too short", domain.ErrMalformedKey)
	}
	nonce, sealed := raw[:chacha20poly1305.NonceSizeX], raw[chacha20poly1305.NonceSizeX:]
	path, err := r.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: authentication failed", domain.ErrMalformedKey)
	}
	k, err := domain.ParseKeyPath(string(path))
	if err != nil {
		return nil, err
	}
	if err := Validate(k); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedKey, err)
	}
	if expect != "" && k.Kind != expect {
		return nil, fmt.Errorf("%w: want %s, got %s", domain.ErrKindMismatch, expect, k.Kind)
	}
	return k, nil
}
