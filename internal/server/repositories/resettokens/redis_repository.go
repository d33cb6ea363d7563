package resettokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
)

const keyPrefix = "pwreset:"

// gcGrace keeps an entry around past its logical expiry so that redeeming a
// recently expired token reports "expired" rather than "not found". After the
// grace window redis garbage-collects the key.
const gcGrace = 24 * time.Hour

type RedisRepository struct {
	client *redis.Client
}

func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

func (r *RedisRepository) Get(ctx context.Context, token string) (*models.ResetToken, error) {
	data, err := r.client.Get(ctx, keyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}

	record := &models.ResetToken{}
	if err := json.Unmarshal(data, record); err != nil {
		return nil, fmt.Errorf("corrupt reset token record: %w", err)
	}

	return record, nil
}

func (r *RedisRepository) Put(ctx context.Context, token *models.ResetToken) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}

	ttl := time.Until(token.ExpiresAt) + gcGrace
	if err := r.client.Set(ctx, keyPrefix+token.Token, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}

	return nil
}

func (r *RedisRepository) MarkUsed(ctx context.Context, token string) error {
	record, err := r.Get(ctx, token)
	if err != nil {
		return err
	}

	record.Used = true
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	// KEEPTTL preserves the remaining GC window.
	if err := r.client.Set(ctx, keyPrefix+token, data, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}

	return nil
}
