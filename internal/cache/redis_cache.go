package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/RIDLEYsan/studio-classification-app/internal/models"
)

const (
	redisKeyPrefix = "studio-classifier:result:"
	redisOpTimeout = 2 * time.Second
)

// RedisResultCache shares recent API results between server replicas
type RedisResultCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisResultCache connects to addr and verifies the connection
func NewRedisResultCache(ctx context.Context, addr string, ttl time.Duration, logger *zap.Logger) (*RedisResultCache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return &RedisResultCache{rdb: rdb, ttl: ttl, logger: logger}, nil
}

// Set stores the response; redis errors are logged, a cache miss later is harmless
func (rc *RedisResultCache) Set(requestID string, resp *models.ClassifyResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		rc.logger.Warn("Failed to encode cached result", zap.String("request_id", requestID), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := rc.rdb.Set(ctx, redisKeyPrefix+requestID, data, rc.ttl).Err(); err != nil {
		rc.logger.Warn("Failed to cache result in redis", zap.String("request_id", requestID), zap.Error(err))
	}
}

func (rc *RedisResultCache) Get(requestID string) (*models.ClassifyResponse, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	data, err := rc.rdb.Get(ctx, redisKeyPrefix+requestID).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			rc.logger.Warn("Failed to read cached result from redis", zap.String("request_id", requestID), zap.Error(err))
		}
		return nil, false
	}

	var resp models.ClassifyResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		rc.logger.Warn("Discarding undecodable cached result", zap.String("request_id", requestID), zap.Error(err))
		return nil, false
	}
	return &resp, true
}

func (rc *RedisResultCache) Close() {
	if err := rc.rdb.Close(); err != nil {
		rc.logger.Warn("Failed to close redis client", zap.Error(err))
	}
}
