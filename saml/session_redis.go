package saml

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const redisSessionPrefix = "signin:saml:session:"

var _ SessionRepo = (*RedisSessionRepo)(nil)

// RedisSessionRepo persists correlation sessions with a TTL matching their
// absolute expiry. The expiry check on read stays in place regardless - the
// TTL is an optimization, not the contract.
type RedisSessionRepo struct {
	client  *redis.Client
	nowTime func() time.Time
}

func NewRedisSessionRepo(client *redis.Client) *RedisSessionRepo {
	return &RedisSessionRepo{
		client:  client,
		nowTime: time.Now,
	}
}

func (sr *RedisSessionRepo) Insert(session *Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "[RedisSessionRepo.Insert] marshal")
	}
	ttl := session.ExpiresAt.Sub(sr.nowTime())
	if ttl <= 0 {
		return errors.New("[RedisSessionRepo.Insert] session already expired")
	}
	if err := sr.client.Set(context.Background(), redisSessionPrefix+session.ID, raw, ttl).Err(); err != nil {
		return errors.Wrap(err, "[RedisSessionRepo.Insert] Set")
	}
	return nil
}

func (sr *RedisSessionRepo) Get(id string) (*Session, error) {
	raw, err := sr.client.Get(context.Background(), redisSessionPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, errors.Wrap(err, "[RedisSessionRepo.Get] Get")
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, errors.Wrap(err, "[RedisSessionRepo.Get] unmarshal")
	}
	if !sr.nowTime().Before(session.ExpiresAt) {
		_ = sr.Delete(id)
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

func (sr *RedisSessionRepo) Delete(id string) error {
	if err := sr.client.Del(context.Background(), redisSessionPrefix+id).Err(); err != nil {
		return errors.Wrap(err, "[RedisSessionRepo.Delete] Del")
	}
	return nil
}
