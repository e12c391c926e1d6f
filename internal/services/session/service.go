package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"time"

	"github.com/pondside/pondside/internal/dependencies/clock"
	"github.com/pondside/pondside/internal/model"
	"github.com/pondside/pondside/internal/storage"
)

// tokenBytes is the entropy of an issued token (before base64url encoding).
const tokenBytes = 32

// Service issues, validates, and revokes opaque bearer tokens bound to a
// player. Tokens are persisted so sessions survive a server restart.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger

	tokenTTL time.Duration
}

// Config holds configuration for the session service
type Config struct {
	TokenTTL time.Duration
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		TokenTTL: 7 * 24 * time.Hour,
	}
}

// New creates a new session Service
func New(storage storage.Storage, clock clock.Clock, cfg Config, logger *slog.Logger) *Service {
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = DefaultConfig().TokenTTL
	}
	return &Service{
		storage:  storage,
		clock:    clock,
		logger:   logger.With(slog.String("component", "session")),
		tokenTTL: cfg.TokenTTL,
	}
}

// Issue creates a session for the player and returns the token. The token
// is returned exactly once and is never logged.
func (s *Service) Issue(ctx context.Context, name model.PlayerName) (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	now := s.clock.Now()
	session := &model.Session{
		Token:      token,
		PlayerName: name,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.tokenTTL),
	}
	if err := s.storage.SaveSession(ctx, session); err != nil {
		return "", err
	}

	s.logger.Info("session issued", slog.String("player", string(name)))
	return token, nil
}

// Validate returns the player a token is bound to, or ErrInvalidSession.
// Expired tokens are indistinguishable from unknown ones to the caller;
// an expired row is deleted lazily on the way out. There is no renewal.
func (s *Service) Validate(ctx context.Context, token string) (model.PlayerName, error) {
	session, err := s.storage.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, model.ErrInvalidSession) {
			return "", model.ErrInvalidSession
		}
		return "", err
	}

	if session.Expired(s.clock.Now()) {
		if err := s.storage.DeleteSession(ctx, token); err != nil {
			s.logger.Warn("failed to delete expired session", slog.String("error", err.Error()))
		}
		return "", model.ErrInvalidSession
	}
	return session.PlayerName, nil
}

// Revoke deletes a session; revoking an unknown token is a no-op.
func (s *Service) Revoke(ctx context.Context, token string) error {
	return s.storage.DeleteSession(ctx, token)
}

// SweepExpired deletes all sessions past expiry and returns the count.
// Safe to run concurrently with Issue and Validate.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	deleted, err := s.storage.DeleteExpiredSessions(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("expired sessions swept", slog.Int("count", deleted))
	}
	return deleted, nil
}

// RunSweeper runs SweepExpired on the given interval until ctx is done.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepExpired(ctx); err != nil {
				s.logger.Error("session sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}
