package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/RIDLEYsan/studio-classification-app/internal/models"
)

func setupTestRedis(t *testing.T) *miniredis.Miniredis {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return mr
}

func TestRedisResultCacheSetGet(t *testing.T) {
	mr := setupTestRedis(t)

	rc, err := NewRedisResultCache(context.Background(), mr.Addr(), time.Minute, zap.NewNop())
	require.NoError(t, err)
	defer rc.Close()

	rc.Set("req-1", &models.ClassifyResponse{
		RequestID: "req-1",
		Result:    models.ClassificationResult{Folder: "house", Category: "ハウススタジオ", Status: models.StatusClassified},
	})

	got, ok := rc.Get("req-1")
	require.True(t, ok)
	assert.Equal(t, "ハウススタジオ", got.Result.Category)
	assert.True(t, mr.Exists(redisKeyPrefix+"req-1"))

	_, ok = rc.Get("missing")
	assert.False(t, ok)
}

func TestRedisResultCacheExpiry(t *testing.T) {
	mr := setupTestRedis(t)

	rc, err := NewRedisResultCache(context.Background(), mr.Addr(), time.Minute, nil)
	require.NoError(t, err)
	defer rc.Close()

	rc.Set("req-1", &models.ClassifyResponse{RequestID: "req-1"})
	mr.FastForward(2 * time.Minute)

	_, ok := rc.Get("req-1")
	assert.False(t, ok)
}

func TestRedisResultCacheCorruptEntry(t *testing.T) {
	mr := setupTestRedis(t)
	require.NoError(t, mr.Set(redisKeyPrefix+"bad", "{not json"))

	rc, err := NewRedisResultCache(context.Background(), mr.Addr(), time.Minute, nil)
	require.NoError(t, err)
	defer rc.Close()

	_, ok := rc.Get("bad")
	assert.False(t, ok)
}

func TestNewRedisResultCacheUnreachable(t *testing.T) {
	mr := setupTestRedis(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisResultCache(context.Background(), addr, time.Minute, nil)
	assert.Error(t, err)
}
