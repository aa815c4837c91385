package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ShevArtV/miniShop2/internal/domain/model"
	"github.com/redis/go-redis/v9"
)

const maxTxRetries = 5

var ErrConflict = errors.New("session cart: too many concurrent updates")

// RedisStore はセッションのカートを "cart:session:<id>" にJSONで保存する。
// 更新は WATCH/MULTI で行い、競合したらやり直す。
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Load(ctx context.Context, sessionID string) (model.Cart, error) {
	return r.read(ctx, r.client, cacheKey(sessionID))
}

func (r *RedisStore) Update(ctx context.Context, sessionID string, fn func(model.Cart) (model.Cart, error)) (model.Cart, error) {
	key := cacheKey(sessionID)

	var result model.Cart
	txf := func(tx *redis.Tx) error {
		cur, err := r.read(ctx, tx, key)
		if err != nil {
			return err
		}
		next, err := fn(cur)
		if err != nil {
			result = cur
			return err
		}

		var data []byte
		if next.Len() > 0 {
			if data, err = json.Marshal(next); err != nil {
				return fmt.Errorf("marshal cart failed: %w", err)
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if data == nil {
				pipe.Del(ctx, key)
				return nil
			}
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		result = next
		return nil
	}

	for i := 0; i < maxTxRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return result, err
	}
	return model.Cart{}, ErrConflict
}

func (r *RedisStore) read(ctx context.Context, c getter, key string) (model.Cart, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Cart{}, nil
	}
	if err != nil {
		return model.Cart{}, fmt.Errorf("redis get failed: %w", err)
	}

	var cart model.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return model.Cart{}, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return cart, nil
}

// *redis.Client と *redis.Tx の共通部分
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func cacheKey(sessionID string) string {
	return fmt.Sprintf("cart:session:%s", sessionID)
}
