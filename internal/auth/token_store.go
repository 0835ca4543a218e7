package auth

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"kernex-dashboard/internal/logger"
)

// TokenStore holds the operator's control-plane access token.
type TokenStore interface {
	Token() (string, bool)
	SetToken(token string, expiresIn time.Duration)
	ClearToken()
}

// MemoryTokenStore keeps the token for the lifetime of the process. The
// expiry comes from the JWT "exp" claim when the token carries one, else
// from the expires_in the control plane reported.
type MemoryTokenStore struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time
	now       func() time.Time
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{now: time.Now}
}

func (s *MemoryTokenStore) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" || s.expiredLocked() {
		return "", false
	}
	return s.token, true
}

func (s *MemoryTokenStore) SetToken(token string, expiresIn time.Duration) {
	expiresAt := time.Time{}
	if exp, ok := jwtExpiry(token); ok {
		expiresAt = exp
	} else if expiresIn > 0 {
		expiresAt = s.now().Add(expiresIn)
	}

	s.mu.Lock()
	s.token = token
	s.expiresAt = expiresAt
	s.mu.Unlock()
}

func (s *MemoryTokenStore) ClearToken() {
	s.mu.Lock()
	s.token = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()
}

// ExpiresAt returns the zero time for tokens without a known expiry.
func (s *MemoryTokenStore) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

func (s *MemoryTokenStore) expiredLocked() bool {
	return !s.expiresAt.IsZero() && !s.now().Before(s.expiresAt)
}

// StartExpirySweep drops the stored token once it has expired so that
// requests stop sending a bearer header the control plane will reject.
func (s *MemoryTokenStore) StartExpirySweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Token expiry sweep started",
		zap.Duration("interval", interval),
	)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Token expiry sweep stopped")
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *MemoryTokenStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.expiredLocked() {
		s.token = ""
		s.expiresAt = time.Time{}
		logger.Debug("Expired access token cleared")
	}
}

// jwtExpiry reads the exp claim without verifying the signature; the
// dashboard never holds the control plane's signing key.
func jwtExpiry(raw string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
