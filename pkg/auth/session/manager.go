package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/restaurant-storefront/pkg/config"
	redisclient "github.com/angelmondragon/restaurant-storefront/pkg/redis"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("session not found")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	AccessSessionKey(accessID string) string
}

// Record is the server-side half of a storefront login. The backend token never leaves the service.
type Record struct {
	UserID       uuid.UUID `json:"user_id"`
	BackendToken string    `json:"backend_token"`
	Email        string    `json:"email,omitempty"`
	Name         string    `json:"name,omitempty"`
	Provider     string    `json:"provider,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Manager stores login sessions in Redis keyed by the JWT jti.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	Get(ctx context.Context, accessID string) (*Record, error)
}

// NewManager constructs a session manager backed by Redis; sessions live as long as the access token.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.TTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Manager{store: client, keyer: client, ttl: ttl}, nil
}

// Create persists record under accessID.
func (m *Manager) Create(ctx context.Context, accessID string, record Record) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	if strings.TrimSpace(record.BackendToken) == "" {
		return fmt.Errorf("backend token is required")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	return m.store.Set(ctx, m.keyer.AccessSessionKey(accessID), string(payload), m.ttl)
}

// Get loads the record for accessID or ErrSessionNotFound.
func (m *Manager) Get(ctx context.Context, accessID string) (*Record, error) {
	if strings.TrimSpace(accessID) == "" {
		return nil, ErrSessionNotFound
	}
	raw, err := m.store.Get(ctx, m.keyer.AccessSessionKey(accessID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	var record Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &record, nil
}

// Update rewrites the record for accessID, refreshing its TTL.
func (m *Manager) Update(ctx context.Context, accessID string, mutate func(*Record)) error {
	record, err := m.Get(ctx, accessID)
	if err != nil {
		return err
	}
	mutate(record)
	return m.Create(ctx, accessID, *record)
}

// Revoke deletes the session tied to the access identifier.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	return m.store.Del(ctx, m.keyer.AccessSessionKey(accessID))
}

// HasSession reports whether the provided access ID still has an active session.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if _, err := m.Get(ctx, accessID); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// NewAccessID produces a stable identifier used as the JWT jti/Redis key.
func NewAccessID() string {
	return uuid.NewString()
}
