package web

import (
	"testing"
	"time"
)

func TestFlashPopIsOneTime(t *testing.T) {
	store := NewFlashStore(nil, time.Minute)
	cookie := store.Put(map[string]string{"success": "1", "login": "ab12cd34"})

	values := store.Pop(cookie.Value)
	if values == nil || values["success"] != "1" || values["login"] != "ab12cd34" {
		t.Fatalf("unexpected flash values: %v", values)
	}

	if again := store.Pop(cookie.Value); again != nil {
		t.Errorf("expected second pop to find nothing, got %v", again)
	}
}

func TestFlashExpires(t *testing.T) {
	store := NewFlashStore(nil, 10*time.Millisecond)
	cookie := store.Put(map[string]string{"k": "v"})

	time.Sleep(30 * time.Millisecond)
	if values := store.Pop(cookie.Value); values != nil {
		t.Errorf("expected expired flash to be gone, got %v", values)
	}
}

func TestFlashRejectsTamperedCookie(t *testing.T) {
	store := NewFlashStore(nil, time.Minute)
	cookie := store.Put(map[string]string{"k": "v"})

	if values := store.Pop(cookie.Value + "x"); values != nil {
		t.Errorf("expected tampered cookie to be rejected, got %v", values)
	}
	// A cookie signed by a different store must not decode either.
	other := NewFlashStore(nil, time.Minute)
	if values := other.Pop(cookie.Value); values != nil {
		t.Errorf("expected foreign cookie to be rejected, got %v", values)
	}
}

func TestFlashSweep(t *testing.T) {
	store := NewFlashStore(nil, 10*time.Millisecond)
	store.Put(map[string]string{"a": "1"})
	store.Put(map[string]string{"b": "2"})

	time.Sleep(30 * time.Millisecond)
	if removed := store.Sweep(); removed != 2 {
		t.Errorf("expected 2 swept entries, got %d", removed)
	}
	if removed := store.Sweep(); removed != 0 {
		t.Errorf("expected nothing left to sweep, got %d", removed)
	}
}
