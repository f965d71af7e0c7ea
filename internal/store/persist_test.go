package store

import (
	"testing"
)

func TestBoltPersisterRoundTrip(t *testing.T) {
	dir := t.TempDir()

	persister, err := OpenBoltPersister(dir)
	if err != nil {
		t.Fatalf("open persister: %v", err)
	}

	s := NewStore(persister)
	s.AddPhoto("selfie", "selfie.jpg")
	s.CreateAvatar("a", "b")
	local := s.AddClothingItem("shirt", "My tee", "tee.png", true)
	s.AddClothingItem("shirt", "Catalog tee", "remote.png", false)
	first := s.AppendHistory("image", "tryon-1.png", "")
	second := s.AppendHistory("video", "loop-1.mp4", "frame-1.png")

	if err := persister.Close(); err != nil {
		t.Fatalf("close persister: %v", err)
	}

	// Reopen as a fresh session.
	reopened, err := OpenBoltPersister(dir)
	if err != nil {
		t.Fatalf("reopen persister: %v", err)
	}
	defer reopened.Close()

	state, err := reopened.Load()
	if err != nil {
		t.Fatalf("load state: %v", err)
	}

	// Only history and user-added garments survive; photos, avatars, and
	// catalog items do not.
	if len(state.GenerationHistory) != 2 {
		t.Fatalf("expected 2 history items, got %d", len(state.GenerationHistory))
	}
	if state.GenerationHistory[0].ID != second.ID || state.GenerationHistory[1].ID != first.ID {
		t.Fatal("expected history order preserved, newest first")
	}
	if state.GenerationHistory[0].ThumbnailURI != "frame-1.png" {
		t.Fatalf("expected thumbnail preserved, got %q", state.GenerationHistory[0].ThumbnailURI)
	}
	if len(state.LocalClothing) != 1 {
		t.Fatalf("expected 1 local garment, got %d", len(state.LocalClothing))
	}
	if state.LocalClothing[0].ID != local.ID {
		t.Fatal("unexpected persisted garment")
	}

	restored := NewStore(nil)
	restored.Restore(state)
	if len(restored.History()) != 2 {
		t.Fatal("expected restored history")
	}
	if _, ok := restored.ClothingItem(local.ID); !ok {
		t.Fatal("expected restored garment to keep its identity")
	}
}

func TestBoltPersisterEmptyLoad(t *testing.T) {
	persister, err := OpenBoltPersister(t.TempDir())
	if err != nil {
		t.Fatalf("open persister: %v", err)
	}
	defer persister.Close()

	state, err := persister.Load()
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	if len(state.GenerationHistory) != 0 || len(state.LocalClothing) != 0 {
		t.Fatalf("expected empty state, got %+v", state)
	}
}
