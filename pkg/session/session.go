package session

import (
	"context"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// Persisted keys. These names are shared with the web storefront.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

var (
	ErrNotFound   = errors.New("session key not found")
	ErrEmptyToken = errors.New("token is empty")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Token returns the persisted bearer token, or "" when none is stored
func Token(ctx context.Context, s Storage) (string, error) {
	tok, err := s.Get(ctx, KeyToken)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return tok, err
}

// HasToken reports whether a non-empty token is persisted. Read errors
// count as no token.
func HasToken(ctx context.Context, s Storage) bool {
	tok, err := Token(ctx, s)
	return err == nil && tok != ""
}

// Save writes the token and the JSON form of user. If the user record
// cannot be written the token is removed again so the two keys never
// disagree.
func Save(ctx context.Context, s Storage, token string, user any) error {
	if token == "" {
		return ErrEmptyToken
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	if err := s.Set(ctx, KeyToken, token); err != nil {
		return err
	}
	if err := s.Set(ctx, KeyUser, string(raw)); err != nil {
		_ = s.Delete(ctx, KeyToken)
		return err
	}
	return nil
}

// SaveUser replaces the persisted user record only
func SaveUser(ctx context.Context, s Storage, user any) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return s.Set(ctx, KeyUser, string(raw))
}

// LoadUser decodes the persisted user record into dst. It returns false
// when no record is stored.
func LoadUser(ctx context.Context, s Storage, dst any) (bool, error) {
	raw, err := s.Get(ctx, KeyUser)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.UnmarshalFromString(raw, dst); err != nil {
		return false, fmt.Errorf("decode user: %w", err)
	}
	return true, nil
}

// Clear removes both persisted keys
func Clear(ctx context.Context, s Storage) error {
	return s.Delete(ctx, KeyToken, KeyUser)
}
