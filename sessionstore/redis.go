package sessionstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix  = "signin:session:"
	sessionLifetime = 24 * time.Hour
)

var _ Store = (*RedisStore)(nil)

// RedisStore persists session blobs as Redis hashes, one field per session
// key. HSet on individual fields gives the merge contract for free.
type RedisStore struct {
	client     *redis.Client
	signer     *TokenSigner
	redirectTo string
}

func NewRedisStore(client *redis.Client, signer *TokenSigner, redirectTo string) *RedisStore {
	return &RedisStore{
		client:     client,
		signer:     signer,
		redirectTo: redirectTo,
	}
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (map[string]json.RawMessage, error) {
	fields, err := s.client.HGetAll(ctx, redisKeyPrefix+sessionID).Result()
	if err != nil {
		return nil, errors.Wrap(err, "[RedisStore.Load] HGetAll")
	}
	out := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		out[k] = json.RawMessage(v)
	}
	return out, nil
}

func (s *RedisStore) MergeAndSave(ctx context.Context, sessionID string, partial map[string]json.RawMessage) error {
	if len(partial) == 0 {
		return nil
	}
	key := redisKeyPrefix + sessionID
	values := make([]any, 0, len(partial)*2)
	for k, v := range partial {
		values = append(values, k, string(v))
	}
	if err := s.client.HSet(ctx, key, values...).Err(); err != nil {
		return errors.Wrap(err, "[RedisStore.MergeAndSave] HSet")
	}
	if err := s.client.Expire(ctx, key, sessionLifetime).Err(); err != nil {
		return errors.Wrap(err, "[RedisStore.MergeAndSave] Expire")
	}
	return nil
}

func (s *RedisStore) FinalizeLogin(ctx context.Context, sessionID, accountID string) (string, error) {
	token, err := s.signer.Mint(accountID)
	if err != nil {
		return "", errors.Wrap(err, "[RedisStore.FinalizeLogin] signer.Mint")
	}

	raw, err := json.Marshal(AuthState{
		AccountID:    accountID,
		SubjectToken: token,
		FinalizedAt:  NowTimeFunc().Unix(),
	})
	if err != nil {
		return "", errors.Wrap(err, "[RedisStore.FinalizeLogin] marshal auth state")
	}

	key := redisKeyPrefix + sessionID
	if err := s.client.HDel(ctx, key, KeyInteraction).Err(); err != nil {
		return "", errors.Wrap(err, "[RedisStore.FinalizeLogin] HDel interaction")
	}
	if err := s.client.HSet(ctx, key, KeyAuth, string(raw)).Err(); err != nil {
		return "", errors.Wrap(err, "[RedisStore.FinalizeLogin] HSet auth")
	}
	if err := s.client.Expire(ctx, key, sessionLifetime).Err(); err != nil {
		return "", errors.Wrap(err, "[RedisStore.FinalizeLogin] Expire")
	}
	return s.redirectTo, nil
}
