//go:build integration

package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"weekend-planner/backend/config"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	c, err := NewClient(&config.RedisConfig{Addr: addr}, zap.NewNop())
	if err != nil {
		t.Skipf("Redis 不可用: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestBlacklist(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	jti := uuid.NewString()

	if err := c.BlacklistToken(ctx, jti, time.Minute); err != nil {
		t.Fatalf("BlacklistToken 失败: %v", err)
	}
	ok, err := c.IsBlacklisted(ctx, jti)
	if err != nil || !ok {
		t.Fatalf("期望已加入黑名单，ok=%v err=%v", ok, err)
	}

	// 过期 token 不写入
	other := uuid.NewString()
	_ = c.BlacklistToken(ctx, other, 0)
	if ok, _ := c.IsBlacklisted(ctx, other); ok {
		t.Error("TTL<=0 不应写入黑名单")
	}
}

func TestCheckRateLimit(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	key := "rate_limit:test:" + uuid.NewString()

	for i := 0; i < 3; i++ {
		allowed, err := c.CheckRateLimit(ctx, key, 3, time.Minute)
		if err != nil || !allowed {
			t.Fatalf("第 %d 次请求应放行，allowed=%v err=%v", i+1, allowed, err)
		}
	}
	allowed, err := c.CheckRateLimit(ctx, key, 3, time.Minute)
	if err != nil {
		t.Fatalf("CheckRateLimit 失败: %v", err)
	}
	if allowed {
		t.Error("超过限额后应拒绝")
	}
}

func TestNewClient_Disabled(t *testing.T) {
	c, err := NewClient(&config.RedisConfig{}, zap.NewNop())
	if err != nil || c != nil {
		t.Fatalf("未配置地址时应返回 nil, nil，得到 %v, %v", c, err)
	}
}
