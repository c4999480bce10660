package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/albapepper/sideline/internal/metrics"
	"github.com/albapepper/sideline/internal/model"
	"github.com/albapepper/sideline/internal/store"
)

// CredentialStore loads and saves sniffer credentials.
type CredentialStore interface {
	GetCredential(ctx context.Context, snifferID string) (*model.SnifferCredential, error)
	PutCredential(ctx context.Context, c *model.SnifferCredential) error
}

// Decrypter opens stored platform passwords.
type Decrypter interface {
	Decrypt(ciphertext string) (string, error)
}

// Authenticator exchanges a username and password for an access token.
type Authenticator interface {
	PasswordToken(ctx context.Context, username, password string) (string, error)
}

// Authed runs authenticated platform calls on behalf of a sniffer. When the
// platform rejects the stored token, it signs in again with the stored
// password, persists the new token, and retries the call exactly once.
//
// Concurrent refreshes for the same sniffer share one password grant.
type Authed struct {
	creds  CredentialStore
	box    Decrypter
	auth   Authenticator
	logger *slog.Logger
	now    func() time.Time

	refreshes singleflight.Group
}

// NewAuthed creates the credential-refreshing wrapper.
func NewAuthed(creds CredentialStore, box Decrypter, auth Authenticator, logger *slog.Logger) *Authed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authed{creds: creds, box: box, auth: auth, logger: logger, now: time.Now}
}

// Do calls fn with the sniffer's access token, refreshing and retrying once
// if fn fails with ErrUnauthorized.
func (a *Authed) Do(ctx context.Context, snifferID string, fn func(ctx context.Context, token string) error) error {
	token, err := a.Token(ctx, snifferID)
	if err != nil {
		return err
	}

	err = fn(ctx, token)
	if !errors.Is(err, ErrUnauthorized) {
		return err
	}

	a.logger.Info("Access token rejected, re-authenticating", "sniffer", snifferID)
	fresh, err := a.refresh(ctx, snifferID, token)
	if err != nil {
		return err
	}
	return fn(ctx, fresh)
}

// Token returns the sniffer's stored access token, signing in first when none
// is stored.
func (a *Authed) Token(ctx context.Context, snifferID string) (string, error) {
	cred, err := a.load(ctx, snifferID)
	if err != nil {
		return "", err
	}
	if cred.AccessToken != "" {
		return cred.AccessToken, nil
	}
	return a.refresh(ctx, snifferID, "")
}

// refresh replaces stale with a new token. If another caller already stored a
// different token, that one is returned without signing in again.
func (a *Authed) refresh(ctx context.Context, snifferID, stale string) (string, error) {
	v, err, _ := a.refreshes.Do(snifferID, func() (interface{}, error) {
		cred, err := a.load(ctx, snifferID)
		if err != nil {
			return "", err
		}
		if cred.AccessToken != "" && cred.AccessToken != stale {
			metrics.TokenRefreshes.WithLabelValues("reused").Inc()
			return cred.AccessToken, nil
		}

		if cred.EncryptedPassword == "" || cred.PlatformUsername == "" {
			metrics.TokenRefreshes.WithLabelValues("reauth_required").Inc()
			return "", fmt.Errorf("%w: sniffer %s has no stored password", ErrReauthRequired, snifferID)
		}
		password, err := a.box.Decrypt(cred.EncryptedPassword)
		if err != nil {
			metrics.TokenRefreshes.WithLabelValues("reauth_required").Inc()
			return "", fmt.Errorf("%w: decrypt password for sniffer %s: %v", ErrReauthRequired, snifferID, err)
		}

		token, err := a.auth.PasswordToken(ctx, cred.PlatformUsername, password)
		if err != nil {
			outcome := "error"
			if errors.Is(err, ErrReauthRequired) {
				outcome = "reauth_required"
			}
			metrics.TokenRefreshes.WithLabelValues(outcome).Inc()
			return "", fmt.Errorf("re-authenticate sniffer %s: %w", snifferID, err)
		}

		cred.AccessToken = token
		cred.TokenRefreshedAt = a.now().UTC()
		if err := a.creds.PutCredential(ctx, cred); err != nil {
			metrics.TokenRefreshes.WithLabelValues("error").Inc()
			return "", fmt.Errorf("persist token for sniffer %s: %w", snifferID, err)
		}

		metrics.TokenRefreshes.WithLabelValues("success").Inc()
		a.logger.Info("Access token refreshed", "sniffer", snifferID)
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (a *Authed) load(ctx context.Context, snifferID string) (*model.SnifferCredential, error) {
	cred, err := a.creds.GetCredential(ctx, snifferID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: no stored credential for sniffer %s", ErrReauthRequired, snifferID)
	}
	if err != nil {
		return nil, fmt.Errorf("load credential %s: %w", snifferID, err)
	}
	return cred, nil
}
