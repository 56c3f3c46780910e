package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"trimgram/internal/instagram"
)

func TestMemorySessionStorePut(t *testing.T) {
	t.Run("insert and get", func(t *testing.T) {
		store := NewMemorySessionStore()
		client := &instagram.Mock{}
		store.Put("tok-1", client, 42, time.Minute)

		entry, ok := store.Get("tok-1")
		if !ok {
			t.Fatalf("expected session to be found")
		}
		if entry.UserID != 42 {
			t.Fatalf("expected user 42, got %d", entry.UserID)
		}
		if entry.Client != instagram.API(client) {
			t.Fatalf("expected bound client to round-trip")
		}
		if !entry.ExpiresAt.After(entry.CreatedAt) {
			t.Fatalf("expected expires_at after created_at")
		}
	})

	t.Run("second put evicts first session", func(t *testing.T) {
		store := NewMemorySessionStore()
		store.Put("tok-1", &instagram.Mock{}, 1, time.Minute)
		store.Put("tok-2", &instagram.Mock{}, 2, time.Minute)

		if _, ok := store.Get("tok-1"); ok {
			t.Fatalf("expected first session to be evicted")
		}
		if _, ok := store.Get("tok-2"); !ok {
			t.Fatalf("expected second session to be live")
		}
		if got := store.Count(); got != 1 {
			t.Fatalf("expected exactly one live session, got %d", got)
		}
	})

	t.Run("at most one entry after many puts", func(t *testing.T) {
		store := NewMemorySessionStore()
		for i := 0; i < 25; i++ {
			store.Put(fmt.Sprintf("tok-%d", i), &instagram.Mock{}, int64(i), time.Minute)
		}
		if got := store.Count(); got != 1 {
			t.Fatalf("expected one session, got %d", got)
		}
	})
}

func TestMemorySessionStoreExpiry(t *testing.T) {
	t.Run("expired get reports absent and removes entry", func(t *testing.T) {
		store := NewMemorySessionStore()
		store.Put("tok-1", &instagram.Mock{}, 1, -time.Second)

		if _, ok := store.Get("tok-1"); ok {
			t.Fatalf("expected expired session to be absent")
		}
		// Idempotente: la segunda lectura tampoco encuentra nada.
		if _, ok := store.Get("tok-1"); ok {
			t.Fatalf("expected repeated get to stay absent")
		}
		if got := store.Count(); got != 0 {
			t.Fatalf("expected zero sessions, got %d", got)
		}
	})

	t.Run("sweep removes expired entries", func(t *testing.T) {
		store := NewMemorySessionStore()
		store.Put("tok-1", &instagram.Mock{}, 1, -time.Second)
		store.SweepExpired()
		if got := store.Count(); got != 0 {
			t.Fatalf("expected zero sessions after sweep, got %d", got)
		}
	})
}

func TestMemorySessionStoreDelete(t *testing.T) {
	store := NewMemorySessionStore()
	store.Put("tok-1", &instagram.Mock{}, 1, time.Minute)

	store.Delete("tok-1")
	if _, ok := store.Get("tok-1"); ok {
		t.Fatalf("expected deleted session to be absent")
	}
	// Borrar un token ausente no falla.
	store.Delete("tok-1")
	store.Delete("never-existed")
}

func TestMemorySessionStoreConcurrency(t *testing.T) {
	store := NewMemorySessionStore()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token := fmt.Sprintf("tok-%d", i)
			store.Put(token, &instagram.Mock{}, int64(i), time.Minute)
			store.Get(token)
			store.Count()
			store.Delete(token)
		}(i)
	}
	wg.Wait()
	if got := store.Count(); got > 1 {
		t.Fatalf("expected at most one session after races, got %d", got)
	}
}
