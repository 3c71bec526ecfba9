package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestClient(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedisClient(&Config{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c, mr
}

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestJSONRoundTripAndTTL(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	var got payload
	hit, err := c.GetJSON(ctx, "k", &got)
	if err != nil || hit {
		t.Fatalf("expected clean miss, got hit=%v err=%v", hit, err)
	}

	if err := c.SetJSON(ctx, "k", payload{Name: "rice", Count: 3}, time.Minute); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}
	hit, err = c.GetJSON(ctx, "k", &got)
	if err != nil || !hit {
		t.Fatalf("expected hit, got hit=%v err=%v", hit, err)
	}
	if got.Name != "rice" || got.Count != 3 {
		t.Errorf("unexpected value %+v", got)
	}

	mr.FastForward(2 * time.Minute)
	hit, _ = c.GetJSON(ctx, "k", &got)
	if hit {
		t.Error("value should have expired")
	}
}

func TestDeleteByPattern(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	for _, k := range []string{"products:list:a:1", "products:list:a:2", "products:list:b:1"} {
		if err := c.SetJSON(ctx, k, 1, 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.DeleteByPattern(ctx, "products:list:a:*"); err != nil {
		t.Fatalf("DeleteByPattern: %v", err)
	}
	if mr.Exists("products:list:a:1") || mr.Exists("products:list:a:2") {
		t.Error("association a keys should be gone")
	}
	if !mr.Exists("products:list:b:1") {
		t.Error("association b key should remain")
	}
}

func TestNilClientIsDisabled(t *testing.T) {
	var c *RedisClient
	ctx := context.Background()
	if err := c.SetJSON(ctx, "k", 1, time.Minute); err != nil {
		t.Errorf("SetJSON on nil: %v", err)
	}
	var v int
	if hit, err := c.GetJSON(ctx, "k", &v); hit || err != nil {
		t.Errorf("GetJSON on nil: hit=%v err=%v", hit, err)
	}
	if err := c.DeleteByPattern(ctx, "*"); err != nil {
		t.Errorf("DeleteByPattern on nil: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close on nil: %v", err)
	}
}
