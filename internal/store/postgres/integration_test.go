//go:build integration

package postgres

import (
	"context"
	"os"
	"testing"
	"time"
)

// Run with: DATABASE_URL=postgres://... go test -tags=integration ./internal/store/postgres

func TestIntegration_PostgresStore(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Close()

	key := "it-" + time.Now().Format("150405.000000")
	if _, found, err := s.Get(ctx, key); err != nil || found {
		t.Fatalf("expected missing key, got found=%v err=%v", found, err)
	}
	if err := s.Put(ctx, key, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, key, []byte(`{"a":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, found, err := s.Get(ctx, key)
	if err != nil || !found || string(got) != `{"a":2}` {
		t.Fatalf("unexpected value %q found=%v err=%v", got, found, err)
	}
}
