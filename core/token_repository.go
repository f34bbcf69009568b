package core

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/redis/go-redis/v9"
)

const tokenKeyPrefix = "token:"

// tokenBytes is the entropy per token. 256 bits keeps the collision
// probability cryptographically negligible for any realistic number
// of issued tokens.
const tokenBytes = 32

// redisKV is the narrow command surface the token store needs.
// *redis.Client satisfies it.
type redisKV interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisTokenStore implements TokenStore on Redis. Mappings are plain
// SET/GET entries with no TTL; a written token stays valid until
// overwritten.
type RedisTokenStore struct {
	redis redisKV
}

func NewRedisTokenStore(client redisKV) *RedisTokenStore {
	return &RedisTokenStore{redis: client}
}

// GenerateToken returns 32 random bytes, base64url-encoded.
func (s *RedisTokenStore) GenerateToken() Token {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		// Without secure entropy the process must not mint tokens;
		// a predictable fallback would hand out guessable sessions.
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// SaveToken writes token -> username, overwriting any prior mapping
// for that token. False on any storage failure.
func (s *RedisTokenStore) SaveToken(ctx context.Context, token Token, username string) bool {
	return s.redis.Set(ctx, tokenKey(token), username, 0).Err() == nil
}

// UsernameByToken resolves a token. redis.Nil (unknown token) and
// connectivity failures collapse to the same not-found answer.
func (s *RedisTokenStore) UsernameByToken(ctx context.Context, token Token) (string, bool) {
	username, err := s.redis.Get(ctx, tokenKey(token)).Result()
	if err != nil {
		return "", false
	}
	return username, true
}

func tokenKey(token Token) string {
	return tokenKeyPrefix + token
}
