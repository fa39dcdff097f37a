package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "BACKEND_URL", "STORAGE_DRIVER", "PROFILE_SYNC_MINUTES", "SEARCH_DEBOUNCE_MS", "ALLOW_REGISTRATION"} {
		t.Setenv(k, "")
	}
	c := Load()
	if c.Port != "8080" || c.StorageDriver != "sqlite" || c.AllowRegistration {
		t.Fatalf("config = %+v", c)
	}
	if c.ProfileSync != 15*time.Minute || c.SearchDebounce != 300*time.Millisecond {
		t.Fatalf("durations = %v %v", c.ProfileSync, c.SearchDebounce)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BACKEND_URL", "https://api.shop.vn/")
	t.Setenv("STORAGE_DRIVER", "Redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SEARCH_DEBOUNCE_MS", "not-a-number")
	t.Setenv("ALLOW_REGISTRATION", "true")

	c := Load()
	if c.BackendURL != "https://api.shop.vn" || c.StorageDriver != "redis" || c.RedisDB != 3 || !c.AllowRegistration {
		t.Fatalf("config = %+v", c)
	}
	if c.SearchDebounce != 300*time.Millisecond {
		t.Fatalf("bad value should fall back, got %v", c.SearchDebounce)
	}
}
