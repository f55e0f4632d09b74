package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/brandpulse/internal/model"
)

func TestKey(t *testing.T) {
	a := Key("http", "https://www.reddit.com/r/cycling/new.json")
	b := Key("http", "https://www.reddit.com/r/cycling/new.json")
	c := Key("http", "https://www.reddit.com/r/cycling/hot.json")

	if a != b {
		t.Errorf("expected stable key, got %s and %s", a, b)
	}
	if a == c {
		t.Error("expected different urls to produce different keys")
	}
	if !strings.HasPrefix(a, "brandpulse:v1:http:") {
		t.Errorf("unexpected key prefix %s", a)
	}
	if Key("sentiment", "ab", "c") == Key("sentiment", "a", "bc") {
		t.Error("expected part boundaries to affect the key")
	}
}

func TestNew(t *testing.T) {
	if _, ok := New(model.CacheConfig{Enabled: false}).(Nop); !ok {
		t.Error("expected Nop cache when disabled")
	}
	if _, ok := New(model.CacheConfig{Enabled: true}).(*MemoryCache); !ok {
		t.Error("expected memory cache without a directory")
	}
	if _, ok := New(model.CacheConfig{Enabled: true, Dir: t.TempDir()}).(*LayeredCache); !ok {
		t.Error("expected layered cache with a directory")
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok := c.Get("k")
	if !ok || string(got) != "v" {
		t.Errorf("expected v, got %q (%v)", got, ok)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}

	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after delete")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("k", []byte("v"), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expected entry to expire")
	}
}

func TestDiskCache_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := Key("http", "https://www.reddit.com/comments/abc.json")

	if err := c.Set(key, []byte(`[{"kind":"Listing"}]`), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok := c.Get(key)
	if !ok || string(got) != `[{"kind":"Listing"}]` {
		t.Errorf("unexpected value %q (%v)", got, ok)
	}

	if _, err := os.Stat(filepath.Join(dir, "http")); err != nil {
		t.Errorf("expected namespace directory, got %v", err)
	}
}

func TestDiskCache_Expired(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	key := Key("http", "x")
	_ = c.Set(key, []byte("v"), time.Millisecond)
	time.Sleep(10 * time.Millisecond)

	if _, ok := c.Get(key); ok {
		t.Error("expected expired entry to miss")
	}
	if _, err := os.Stat(c.path(key)); !os.IsNotExist(err) {
		t.Errorf("expected expired file to be removed, got %v", err)
	}
}

func TestDiskCache_Corrupt(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	key := Key("http", "corrupt")
	path := c.path(key)
	_ = os.MkdirAll(filepath.Dir(path), 0755)
	_ = os.WriteFile(path, []byte("{not json"), 0644)

	if _, ok := c.Get(key); ok {
		t.Error("expected corrupt entry to miss")
	}
}

func TestDiskCache_DeleteMissing(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	if err := c.Delete(Key("http", "never-set")); err != nil {
		t.Errorf("expected nil error deleting absent key, got %v", err)
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	key := Key("sentiment", "lexicon", "", "great bike")

	disk := NewDiskCache(dir, time.Hour)
	_ = disk.Set(key, []byte(`{"label":"positive","score":0.9}`), 0)

	layered := NewLayeredCache(time.Minute, dir, time.Hour)
	if _, ok := layered.Get(key); !ok {
		t.Fatal("expected disk hit through layered cache")
	}
	if _, ok := layered.memory.Get(key); !ok {
		t.Error("expected disk hit to be promoted to memory")
	}

	_ = layered.Clear()
	if _, ok := layered.Get(key); ok {
		t.Error("expected miss after clear")
	}
}
