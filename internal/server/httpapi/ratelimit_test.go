package httpapi

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/bookshelf/internal/logging"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemoryRateLimiter_RefillsOverWindow(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rl := newMemoryRateLimiter(clock.now)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d := rl.Allow(ctx, "k", 3, time.Minute)
		require.True(t, d.allowed, "request %d", i)
		assert.Equal(t, 2-i, d.remaining)
	}
	d := rl.Allow(ctx, "k", 3, time.Minute)
	assert.False(t, d.allowed)
	assert.Equal(t, 0, d.remaining)
	assert.True(t, d.reset.After(clock.t))

	// one token every 20s
	clock.advance(20 * time.Second)
	assert.True(t, rl.Allow(ctx, "k", 3, time.Minute).allowed)
	assert.False(t, rl.Allow(ctx, "k", 3, time.Minute).allowed)

	assert.True(t, rl.Allow(ctx, "other", 3, time.Minute).allowed)
}

func TestMemoryRateLimiter_ZeroLimitAllows(t *testing.T) {
	rl := newMemoryRateLimiter(time.Now)
	for i := 0; i < 10; i++ {
		assert.True(t, rl.Allow(context.Background(), "k", 0, time.Minute).allowed)
	}
}

func TestMemoryRateLimiter_CleanupDropsIdleKeys(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rl := newMemoryRateLimiter(clock.now)
	ctx := context.Background()

	rl.Allow(ctx, "idle", 1, time.Minute)
	clock.advance(rateLimiterIdleTTL)
	rl.Allow(ctx, "fresh", 1, time.Minute)
	clock.advance(time.Second)

	rl.cleanup(clock.now())
	_, idle := rl.entries["idle"]
	_, fresh := rl.entries["fresh"]
	assert.False(t, idle)
	assert.True(t, fresh)

	rl.Close()
	rl.Close()
}

type fakeRedis struct {
	counts    map[string]int64
	ttls      map[string]time.Duration
	incrErr   error
	expireErr error
	closed    bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{counts: map[string]int64{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Incr(ctx context.Context, key string) *redis.IntCmd {
	if f.incrErr != nil {
		cmd := redis.NewIntCmd(ctx)
		cmd.SetErr(f.incrErr)
		return cmd
	}
	f.counts[key]++
	return redis.NewIntResult(f.counts[key], nil)
}

func (f *fakeRedis) Expire(_ context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	if f.expireErr != nil {
		return redis.NewBoolResult(false, f.expireErr)
	}
	f.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) TTL(_ context.Context, key string) *redis.DurationCmd {
	ttl, ok := f.ttls[key]
	if !ok {
		return redis.NewDurationResult(-1, nil)
	}
	return redis.NewDurationResult(ttl, nil)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func TestRedisRateLimiter_FixedWindow(t *testing.T) {
	client := newFakeRedis()
	rl := newRedisRateLimiter(client, logging.Nop{})
	ctx := context.Background()

	d := rl.Allow(ctx, "user:u1", 2, time.Minute)
	require.True(t, d.allowed)
	assert.Equal(t, 1, d.remaining)
	assert.Equal(t, time.Minute, client.ttls["bookshelf:ratelimit:user:u1"])

	assert.True(t, rl.Allow(ctx, "user:u1", 2, time.Minute).allowed)

	d = rl.Allow(ctx, "user:u1", 2, time.Minute)
	assert.False(t, d.allowed)
	assert.Equal(t, 0, d.remaining)
	assert.False(t, d.reset.IsZero())

	assert.True(t, rl.Allow(ctx, "user:u2", 2, time.Minute).allowed)

	rl.Close()
	assert.True(t, client.closed)
}

func TestRedisRateLimiter_FailsOpen(t *testing.T) {
	client := newFakeRedis()
	client.incrErr = errors.New("connection refused")
	rl := newRedisRateLimiter(client, logging.Nop{})

	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow(context.Background(), "ip:1.2.3.4", 1, time.Minute).allowed)
	}
}

func TestRedisRateLimiter_ExpireErrorStillCounts(t *testing.T) {
	client := newFakeRedis()
	client.expireErr = errors.New("timeout")
	rl := newRedisRateLimiter(client, logging.Nop{})
	ctx := context.Background()

	d := rl.Allow(ctx, "k", 1, time.Minute)
	assert.True(t, d.allowed)
	assert.False(t, d.reset.IsZero())
	assert.False(t, rl.Allow(ctx, "k", 1, time.Minute).allowed)
}

func TestClientIP(t *testing.T) {
	proxies, err := parseTrustedProxies([]string{"10.0.0.0/8", " 192.0.2.10 ", ""})
	require.NoError(t, err)

	tests := []struct {
		name      string
		proxies   trustedProxies
		remote    string
		forwarded []string
		want      string
	}{
		{name: "peer address", remote: "10.0.0.1:5555", want: "10.0.0.1"},
		{name: "no port", remote: "no-port", want: "no-port"},
		{name: "ipv6 peer", remote: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "forwarded ignored without trusted proxies", remote: "203.0.113.7:1234", forwarded: []string{"198.51.100.1"}, want: "203.0.113.7"},
		{name: "forwarded ignored from untrusted peer", proxies: proxies, remote: "203.0.113.7:1234", forwarded: []string{"198.51.100.1"}, want: "203.0.113.7"},
		{name: "trusted peer names client", proxies: proxies, remote: "10.0.0.1:5555", forwarded: []string{"198.51.100.1"}, want: "198.51.100.1"},
		{name: "rightmost untrusted hop wins", proxies: proxies, remote: "10.0.0.1:5555", forwarded: []string{"1.2.3.4, 198.51.100.1, 10.9.9.9"}, want: "198.51.100.1"},
		{name: "hops across headers", proxies: proxies, remote: "192.0.2.10:80", forwarded: []string{"1.2.3.4", "198.51.100.2"}, want: "198.51.100.2"},
		{name: "malformed hop falls back to peer", proxies: proxies, remote: "10.0.0.1:5555", forwarded: []string{"198.51.100.1, junk"}, want: "10.0.0.1"},
		{name: "only proxies in chain", proxies: proxies, remote: "10.0.0.1:5555", forwarded: []string{"10.0.0.2"}, want: "10.0.0.1"},
		{name: "trusted peer without header", proxies: proxies, remote: "10.0.0.1:5555", want: "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for _, v := range tt.forwarded {
				req.Header.Add("X-Forwarded-For", v)
			}
			assert.Equal(t, tt.want, tt.proxies.clientIP(req))
		})
	}
}

func TestParseTrustedProxies(t *testing.T) {
	p, err := parseTrustedProxies([]string{"10.1.2.3/8", "::ffff:192.0.2.10"})
	require.NoError(t, err)
	require.Len(t, p, 2)
	assert.Equal(t, "10.0.0.0/8", p[0].String())
	assert.Equal(t, "192.0.2.10/32", p[1].String())

	_, err = parseTrustedProxies([]string{"not-an-ip"})
	assert.Error(t, err)
	_, err = parseTrustedProxies([]string{"10.0.0.0/99"})
	assert.Error(t, err)
}
