package cache

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryCache_SetGetDelete(t *testing.T) {
	c := NewInMemoryCache()
	ctx := context.Background()

	if _, err := c.Get(ctx, "missing"); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("Expected v, got %q", got)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := c.Get(ctx, "k"); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestInMemoryCache_TTLExpiry(t *testing.T) {
	c := NewInMemoryCache()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := c.Get(ctx, "k"); err != ErrNotFound {
		t.Errorf("Expected expiry, got %v", err)
	}
}

func TestJSONHelpers(t *testing.T) {
	c := NewInMemoryCache()
	ctx := context.Background()

	type item struct {
		Name string `json:"name"`
	}
	if err := SetJSON(ctx, c, "k", []item{{Name: "a"}}, time.Minute); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}

	var out []item
	if err := GetJSON(ctx, c, "k", &out); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if len(out) != 1 || out[0].Name != "a" {
		t.Errorf("Unexpected round trip: %+v", out)
	}
}

func TestResourcesKey(t *testing.T) {
	if got := ResourcesKey(""); got != "resources:all" {
		t.Errorf("Unexpected key %q", got)
	}
	if got := ResourcesKey("t1"); got != "resources:tenant:t1" {
		t.Errorf("Unexpected key %q", got)
	}
}
