package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/gasdrop-backend/pkg/config"
	redisclient "github.com/angelmondragon/gasdrop-backend/pkg/redis"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

const refreshTokenBytes = 32

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	AccessSessionKey(accessID string) string
	SessionCacheKey(accessID string) string
}

// Manager handles refresh token creation, storage, and rotation, plus the
// cached session blob stored next to each refresh token.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
	now   func() time.Time
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// cachedBlob is the stored shape: the caller's payload and an optional
// absolute expiry after which the blob counts as absent.
type cachedBlob struct {
	Payload   json.RawMessage `json:"payload"`
	ExpiresAt *time.Time      `json:"expiresAt,omitempty"`
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.RefreshTokenTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("refresh token ttl must be positive")
	}
	accessTTL := time.Duration(cfg.ExpirationMinutes) * time.Minute
	if ttl <= accessTTL {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, accessTTL)
	}

	return &Manager{
		store: client,
		keyer: client,
		ttl:   ttl,
		now:   time.Now,
	}, nil
}

// Generate creates a refresh token for the provided access ID and stores it in Redis.
func (m *Manager) Generate(ctx context.Context, accessID string) (string, error) {
	if strings.TrimSpace(accessID) == "" {
		return "", fmt.Errorf("access id is required")
	}
	token, err := generateRefreshToken()
	if err != nil {
		return "", err
	}
	if err := m.store.Set(ctx, m.keyer.AccessSessionKey(accessID), token, m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Rotate validates the provided refresh token, invalidates the prior session
// (token and cached blob) and issues a new access id and refresh token.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if strings.TrimSpace(oldAccessID) == "" || strings.TrimSpace(provided) == "" {
		return "", "", ErrInvalidRefreshToken
	}

	key := m.keyer.AccessSessionKey(oldAccessID)
	stored, err := m.store.Get(ctx, key)
	if err != nil {
		return "", "", wrapNotFound(err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(provided)) != 1 {
		return "", "", ErrInvalidRefreshToken
	}

	newAccessID := NewAccessID()
	newToken, err := generateRefreshToken()
	if err != nil {
		return "", "", err
	}
	if err := m.store.Set(ctx, m.keyer.AccessSessionKey(newAccessID), newToken, m.ttl); err != nil {
		return "", "", err
	}

	if err := m.store.Del(ctx, key, m.keyer.SessionCacheKey(oldAccessID)); err != nil {
		return "", "", err
	}

	return newAccessID, newToken, nil
}

// Revoke deletes the refresh mapping and cached session tied to the access identifier.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	return m.store.Del(ctx, m.keyer.AccessSessionKey(accessID), m.keyer.SessionCacheKey(accessID))
}

// Put serializes payload into the session cache for accessID. When expiresAt
// is set the entry stops loading at that instant, even if Redis still holds it.
func (m *Manager) Put(ctx context.Context, accessID string, payload any, expiresAt *time.Time) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode session payload: %w", err)
	}

	ttl := m.ttl
	if expiresAt != nil {
		remaining := expiresAt.Sub(m.now())
		if remaining <= 0 {
			return m.Clear(ctx, accessID)
		}
		if remaining < ttl {
			ttl = remaining
		}
	}

	blob, err := json.Marshal(cachedBlob{Payload: raw, ExpiresAt: expiresAt})
	if err != nil {
		return fmt.Errorf("encode session blob: %w", err)
	}
	return m.store.Set(ctx, m.keyer.SessionCacheKey(accessID), string(blob), ttl)
}

// Load decodes the cached payload for accessID into dest. It reports false
// when nothing is cached; an expired entry is cleared and reported absent.
func (m *Manager) Load(ctx context.Context, accessID string, dest any) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, fmt.Errorf("access id is required")
	}
	raw, err := m.store.Get(ctx, m.keyer.SessionCacheKey(accessID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, err
	}

	var blob cachedBlob
	if err := json.Unmarshal([]byte(raw), &blob); err != nil {
		return false, m.Clear(ctx, accessID)
	}
	if blob.ExpiresAt != nil && !m.now().Before(*blob.ExpiresAt) {
		return false, m.Clear(ctx, accessID)
	}
	if err := json.Unmarshal(blob.Payload, dest); err != nil {
		return false, fmt.Errorf("decode session payload: %w", err)
	}
	return true, nil
}

// Clear drops the cached session for accessID.
func (m *Manager) Clear(ctx context.Context, accessID string) error {
	return m.store.Del(ctx, m.keyer.SessionCacheKey(accessID))
}

// NewAccessID produces a stable identifier used as the JWT jti/Redis key.
func NewAccessID() string {
	return uuid.NewString()
}

func generateRefreshToken() (string, error) {
	bytes := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

func wrapNotFound(err error) error {
	if errors.Is(err, redislib.Nil) || errors.Is(err, ErrInvalidRefreshToken) {
		return ErrInvalidRefreshToken
	}
	return err
}

// HasSession reports whether the provided access ID still has an active refresh session.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, fmt.Errorf("access id is required")
	}
	key := m.keyer.AccessSessionKey(accessID)
	if _, err := m.store.Get(ctx, key); err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
