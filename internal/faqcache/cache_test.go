package faqcache

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/deskhive/deskhive/internal/store"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(s, nil)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Reset  Password???", "reset password"},
		{"  how do I reset my password? ", "how do i reset my password"},
		{"VPN --- not working!!", "vpn not working"},
		{"UPPER lower 123", "upper lower 123"},
		{"", ""},
		{"???", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDigestDeterministic(t *testing.T) {
	a := Digest(Normalize("Reset Password?"))
	b := Digest(Normalize("reset   password"))
	if a != b {
		t.Errorf("equivalent questions should share a digest: %s != %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(a))
	}
	if Digest("other") == a {
		t.Error("distinct inputs should not collide")
	}
}

func TestLookupMissThenHit(t *testing.T) {
	c := newTestCache(t)

	entry, err := c.Lookup("How do I reset my password?")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if entry != nil {
		t.Fatal("expected miss on empty cache")
	}

	if err := c.Store("How do I reset my password?", "Use the self-service portal."); err != nil {
		t.Fatalf("Store: %v", err)
	}

	// Different phrasing, same normalized form.
	entry, err = c.Lookup("how do i reset my password")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if entry == nil {
		t.Fatal("expected hit")
	}
	if entry.Answer != "Use the self-service portal." {
		t.Errorf("answer = %q", entry.Answer)
	}
	if entry.HitCount != 1 {
		t.Errorf("hit count = %d, want 1", entry.HitCount)
	}

	entry, _ = c.Lookup("how do i reset my password")
	if entry.HitCount != 2 {
		t.Errorf("hit count = %d, want 2", entry.HitCount)
	}
}

func TestStoreIdempotent(t *testing.T) {
	c := newTestCache(t)

	c.Store("VPN not working", "Reconnect to the gateway.")
	c.Lookup("VPN not working")
	c.Store("VPN not working", "Restart the VPN client.")

	entry, err := c.Lookup("VPN not working")
	if err != nil || entry == nil {
		t.Fatalf("Lookup: %+v, %v", entry, err)
	}
	if entry.Answer != "Restart the VPN client." {
		t.Errorf("answer = %q, want last writer", entry.Answer)
	}
	if entry.HitCount != 2 {
		t.Errorf("hit count = %d, want 2 (not doubled by re-store)", entry.HitCount)
	}
}

func TestStoreConcurrentWritersOneEntry(t *testing.T) {
	c := newTestCache(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if err := c.Store("printer offline", fmt.Sprintf("Power-cycle the printer (writer %d).", n)); err != nil {
				t.Errorf("Store: %v", err)
			}
		}(i)
	}
	wg.Wait()

	entry, err := c.Lookup("printer offline")
	if err != nil || entry == nil {
		t.Fatalf("Lookup: %+v, %v", entry, err)
	}
	if entry.Answer == "" {
		t.Error("racing writers must leave one complete answer")
	}
	if entry.HitCount != 1 {
		t.Errorf("hit count = %d, want 1", entry.HitCount)
	}
}

func TestStoreIgnoresEmpty(t *testing.T) {
	c := newTestCache(t)

	if err := c.Store("   ", "answer"); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := c.Store("question", "  "); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if entry, _ := c.Lookup("question"); entry != nil {
		t.Error("empty answer should not be cached")
	}
}
