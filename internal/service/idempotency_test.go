package service

import (
	"bytes"
	"errors"
	"testing"
)

type fakeCache struct {
	data map[string]string
	err  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string)}
}

func (c *fakeCache) Get(key string) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	return c.data[key], nil
}

func (c *fakeCache) SetEx(key, value string, ttlSeconds int) error {
	if c.err != nil {
		return c.err
	}
	c.data[key] = value
	return nil
}

func TestIdempotencyGuardRoundTrip(t *testing.T) {
	g := NewIdempotencyGuard(newFakeCache(), 60)

	if _, _, ok := g.Lookup(1, "k1"); ok {
		t.Fatal("Lookup before Store should miss")
	}

	body := []byte(`{"message":"ok","order_id":"123-4567890-1234567"}`)
	g.Store(1, "k1", 201, body)

	gotBody, gotStatus, ok := g.Lookup(1, "k1")
	if !ok {
		t.Fatal("Lookup after Store should hit")
	}
	if gotStatus != 201 {
		t.Fatalf("status = %d, want 201", gotStatus)
	}
	if !bytes.Equal(gotBody, body) {
		t.Fatalf("body = %s, want %s", gotBody, body)
	}
}

func TestIdempotencyGuardScopedPerUser(t *testing.T) {
	g := NewIdempotencyGuard(newFakeCache(), 60)
	g.Store(1, "shared-key", 201, []byte(`{}`))

	if _, _, ok := g.Lookup(2, "shared-key"); ok {
		t.Fatal("another user's key must not hit the cache")
	}
}

func TestIdempotencyGuardEmptyKeyIsNewRequest(t *testing.T) {
	c := newFakeCache()
	g := NewIdempotencyGuard(c, 60)

	g.Store(1, "", 201, []byte(`{}`))
	if len(c.data) != 0 {
		t.Fatal("empty key must not be stored")
	}
	if _, _, ok := g.Lookup(1, ""); ok {
		t.Fatal("empty key must never hit")
	}
}

func TestIdempotencyGuardCacheFailureFallsOpen(t *testing.T) {
	c := newFakeCache()
	c.err = errors.New("connection refused")
	g := NewIdempotencyGuard(c, 60)

	// 缓存不可用时当作未命中放行，而不是拒绝下单
	if _, _, ok := g.Lookup(1, "k1"); ok {
		t.Fatal("cache failure must be treated as a miss")
	}
	g.Store(1, "k1", 201, []byte(`{}`)) // must not panic
}

func TestIdempotencyGuardCorruptedEntryIsMiss(t *testing.T) {
	c := newFakeCache()
	g := NewIdempotencyGuard(c, 60)
	c.data["idempotency:order:1:k1"] = "not-json"

	if _, _, ok := g.Lookup(1, "k1"); ok {
		t.Fatal("corrupted entry must be treated as a miss")
	}
}
