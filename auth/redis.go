package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix   = "session:"
	defaultRedisTTL  = 24 * time.Hour
	redisDialTimeout = 5 * time.Second
)

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: redisDialTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

// RedisSessions keeps the username server-side. The cookie only carries a
// signed random session id, and logging out deletes the server entry.
type RedisSessions struct {
	client *redis.Client
	signer signer
	jar    cookieJar
	ttl    time.Duration
}

// NewRedisSessions returns a Redis-backed session store. Entries expire after
// maxAge, or after a day when maxAge is zero.
func NewRedisSessions(client *redis.Client, secret []byte, maxAge time.Duration, secure bool) *RedisSessions {
	ttl := maxAge
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	return &RedisSessions{
		client: client,
		signer: signer{secret: secret},
		jar:    cookieJar{maxAge: maxAge, secure: secure},
		ttl:    ttl,
	}
}

// Create stores session:<id> -> username and sets the signed id cookie.
func (s *RedisSessions) Create(ctx context.Context, w http.ResponseWriter, username string) error {
	sid := uuid.NewString()
	if err := s.client.Set(ctx, redisKeyPrefix+sid, username, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	s.jar.set(w, s.signer.encode(sid))
	return nil
}

// Parse resolves the session id in the cookie to a username.
func (s *RedisSessions) Parse(r *http.Request) (string, bool) {
	sid, ok := s.sessionID(r)
	if !ok {
		return "", false
	}
	name, err := s.client.Get(r.Context(), redisKeyPrefix+sid).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.ErrorContext(r.Context(), "session lookup failed", "error", err)
		}
		return "", false
	}
	return name, true
}

// Clear deletes the server-side entry and expires the cookie.
func (s *RedisSessions) Clear(w http.ResponseWriter, r *http.Request) {
	if sid, ok := s.sessionID(r); ok {
		if err := s.client.Del(r.Context(), redisKeyPrefix+sid).Err(); err != nil {
			slog.ErrorContext(r.Context(), "session delete failed", "error", err)
		}
	}
	s.jar.clear(w)
}

func (s *RedisSessions) sessionID(r *http.Request) (string, bool) {
	value, ok := readCookie(r)
	if !ok {
		return "", false
	}
	sid, ok := s.signer.decode(value)
	if !ok {
		return "", false
	}
	if _, err := uuid.Parse(sid); err != nil {
		return "", false
	}
	return sid, true
}
