package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore handles authenticated sessions in Redis. Each session is
// an independent token entry with its own TTL, so concurrent rider and
// driver sessions never clobber each other.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

const sessionKeyPrefix = "session:"

// Session identifies the actor behind a token.
type Session struct {
	ActorID string `json:"actor_id"`
	Role    string `json:"role"`
}

// Issue creates a session for the given actor and returns its token.
func (s *SessionStore) Issue(ctx context.Context, actorID, role string) (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	data, err := json.Marshal(Session{ActorID: actorID, Role: role})
	if err != nil {
		return "", err
	}

	if err := s.client.Set(ctx, sessionKeyPrefix+token, data, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve returns the session behind a token, or nil when the token is
// unknown or expired.
func (s *SessionStore) Resolve(ctx context.Context, token string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+token).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Revoke deletes a session token. Revoking an unknown token is a no-op.
func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	return s.client.Del(ctx, sessionKeyPrefix+token).Err()
}
