package securestore

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokens.enc")
	s, err := New(path, "test-device-secret")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return s, path
}

func TestStore_SetGetRemove(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	if _, ok, err := s.Get(ctx, "refreshToken"); err != nil || ok {
		t.Fatalf("expected absent key, got ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, "refreshToken", "R1"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	v, ok, err := s.Get(ctx, "refreshToken")
	if err != nil || !ok || v != "R1" {
		t.Fatalf("get returned %q ok=%v err=%v", v, ok, err)
	}

	if err := s.Remove(ctx, "refreshToken"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "refreshToken"); ok {
		t.Fatalf("key should be gone after remove")
	}

	// removing again is a no-op
	if err := s.Remove(ctx, "refreshToken"); err != nil {
		t.Fatalf("second remove should not fail: %v", err)
	}
}

func TestStore_ValuesSurviveReopen(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t)

	if err := s.Set(ctx, "refreshToken", "R1"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	reopened, err := New(path, "test-device-secret")
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	v, ok, err := reopened.Get(ctx, "refreshToken")
	if err != nil || !ok || v != "R1" {
		t.Fatalf("reopened store returned %q ok=%v err=%v", v, ok, err)
	}
}

func TestStore_FileIsNotPlaintext(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t)

	if err := s.Set(ctx, "refreshToken", "very-secret-value"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if bytes.Contains(raw, []byte("very-secret-value")) {
		t.Fatalf("refresh token stored in plaintext")
	}
}

func TestStore_WrongSecretFailsToDecrypt(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t)

	if err := s.Set(ctx, "refreshToken", "R1"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	other, err := New(path, "a-different-secret")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if _, _, err := other.Get(ctx, "refreshToken"); err == nil {
		t.Fatalf("expected decryption failure with the wrong secret")
	}
}
