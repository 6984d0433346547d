package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func TestStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "spendtrack.db")

	s, err := New(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, found, err := s.Get(ctx, "transactions"); err != nil || found {
		t.Fatalf("expected missing key, got found=%v err=%v", found, err)
	}
	if err := s.Put(ctx, "transactions", []byte(`[1]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, "transactions", []byte(`[1,2]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, found, err := reopened.Get(ctx, "transactions")
	if err != nil || !found || string(got) != `[1,2]` {
		t.Fatalf("unexpected value %q found=%v err=%v", got, found, err)
	}
}
