package config

import (
	"encoding/base64"
	"testing"
	"time"
)

func TestLoad_MemoryDefaults(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "memory")

	cnf, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cnf.Database.Driver != DriverMemory {
		t.Errorf("Driver = %q, want %q", cnf.Database.Driver, DriverMemory)
	}
	if cnf.Feed.AdInterval != 2 {
		t.Errorf("AdInterval = %d, want 2", cnf.Feed.AdInterval)
	}
	if cnf.Http.Addr != ":8080" {
		t.Errorf("Http.Addr = %q, want :8080", cnf.Http.Addr)
	}
	if cnf.Firebase.WriteTimeout != 30*time.Second {
		t.Errorf("WriteTimeout = %v, want 30s", cnf.Firebase.WriteTimeout)
	}
	if cnf.DemoUser.UserId != "user_demo_123" {
		t.Errorf("DemoUser.UserId = %q", cnf.DemoUser.UserId)
	}
	if len(cnf.Http.AllowOrigins) != 1 || cnf.Http.AllowOrigins[0] != "*" {
		t.Errorf("AllowOrigins = %v, want [*]", cnf.Http.AllowOrigins)
	}
	if cnf.Redis.Enabled() {
		t.Error("Redis should be disabled without REDIS_ADDR")
	}
}

func TestLoad_DecodesPrivateKey(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "firestore")
	t.Setenv("FIREBASE_PROJECT_ID", "demo")
	t.Setenv("FIREBASE_CLIENT_EMAIL", "svc@demo.iam.gserviceaccount.com")
	t.Setenv("FIREBASE_PRIVATE_KEY", base64.StdEncoding.EncodeToString([]byte(`line1\nline2`)))

	cnf, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cnf.Firebase.PrivateKey != "line1\nline2" {
		t.Errorf("PrivateKey = %q, want decoded key with real newlines", cnf.Firebase.PrivateKey)
	}
	if !cnf.Firebase.HasCredentials() {
		t.Error("HasCredentials() = false, want true")
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"DATABASE_DRIVER": "mysql"}},
		{"firestore without project", map[string]string{"DATABASE_DRIVER": "firestore"}},
		{"rtdb without url", map[string]string{"DATABASE_DRIVER": "rtdb"}},
		{"negative ad interval", map[string]string{"DATABASE_DRIVER": "memory", "FEED_AD_INTERVAL": "-1"}},
		{"bad private key", map[string]string{"DATABASE_DRIVER": "memory", "FIREBASE_PRIVATE_KEY": "%%%"}},
		{"bad interactions root", map[string]string{"DATABASE_DRIVER": "memory", "INTERACTIONS_ROOT": "app.v1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("Load() expected an error")
			}
		})
	}
}

func TestLoad_PageSizeBounds(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "memory")
	t.Setenv("FEED_PAGE_SIZE", "80")
	t.Setenv("FEED_MAX_PAGE_SIZE", "50")

	cnf, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cnf.Feed.MaxPageSize != 80 {
		t.Errorf("MaxPageSize = %d, want it raised to the page size 80", cnf.Feed.MaxPageSize)
	}
}

func TestLoad_InteractionsRoot(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"rtdb defaults to the app layout", map[string]string{"DATABASE_DRIVER": "rtdb", "FIREBASE_DATABASE_URL": "https://demo.firebaseio.com"}, "interactions"},
		{"memory follows rtdb", map[string]string{"DATABASE_DRIVER": "memory"}, "interactions"},
		{"firestore has no prefix", map[string]string{"DATABASE_DRIVER": "firestore", "FIREBASE_PROJECT_ID": "demo"}, ""},
		{"slash disables the prefix", map[string]string{"DATABASE_DRIVER": "rtdb", "FIREBASE_DATABASE_URL": "https://demo.firebaseio.com", "INTERACTIONS_ROOT": "/"}, ""},
		{"explicit nested root", map[string]string{"DATABASE_DRIVER": "memory", "INTERACTIONS_ROOT": "/shop/interactions/"}, "shop/interactions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cnf, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cnf.Database.InteractionsRoot != tt.want {
				t.Errorf("InteractionsRoot = %q, want %q", cnf.Database.InteractionsRoot, tt.want)
			}
		})
	}
}
