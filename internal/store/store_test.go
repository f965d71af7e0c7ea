package store

import (
	"fmt"
	"testing"

	"github.com/Prompt-Haus/OpenVTO/internal/entity"
)

func TestHistoryCapEvictsOldest(t *testing.T) {
	s := NewStore(nil)

	for i := 0; i < entity.HistoryLimit; i++ {
		s.AppendHistory("image", fmt.Sprintf("output-%d", i), "")
	}
	if got := len(s.History()); got != entity.HistoryLimit {
		t.Fatalf("expected %d items, got %d", entity.HistoryLimit, got)
	}

	newest := s.AppendHistory("video", "output-newest", "thumb")
	history := s.History()
	if len(history) != entity.HistoryLimit {
		t.Fatalf("expected cap at %d items, got %d", entity.HistoryLimit, len(history))
	}
	if history[0].ID != newest.ID {
		t.Fatal("expected the newest item at the head")
	}
	if history[len(history)-1].OutputURI == "output-0" {
		t.Fatal("expected the oldest item to be evicted")
	}
	if history[len(history)-1].OutputURI != "output-1" {
		t.Fatalf("unexpected tail item %q", history[len(history)-1].OutputURI)
	}
}

func TestDeletePhotoClearsSelection(t *testing.T) {
	s := NewStore(nil)
	selfie := s.AddPhoto("selfie", "selfie.jpg")
	posture := s.AddPhoto("posture", "posture.jpg")

	if err := s.SelectSelfie(selfie.ID); err != nil {
		t.Fatalf("select selfie: %v", err)
	}
	if err := s.SelectPosture(posture.ID); err != nil {
		t.Fatalf("select posture: %v", err)
	}

	s.DeletePhoto(selfie.ID)
	sel := s.Selection()
	if sel.SelfieID != "" {
		t.Fatal("expected selfie selection cleared after delete")
	}
	if sel.PostureID != posture.ID {
		t.Fatal("expected posture selection untouched")
	}
}

func TestDeleteClothingItemClearsGarmentSlot(t *testing.T) {
	s := NewStore(nil)
	shirt := s.AddClothingItem("shirt", "White tee", "shirt.png", false)
	trousers := s.AddClothingItem("trousers", "Jeans", "jeans.png", false)

	if err := s.SelectGarment("shirt", shirt.ID); err != nil {
		t.Fatalf("select shirt: %v", err)
	}
	if err := s.SelectGarment("trousers", trousers.ID); err != nil {
		t.Fatalf("select trousers: %v", err)
	}

	s.DeleteClothingItem(shirt.ID)
	sel := s.Selection()
	if _, ok := sel.Garments["shirt"]; ok {
		t.Fatal("expected shirt slot cleared after delete")
	}
	if sel.Garments["trousers"] != trousers.ID {
		t.Fatal("expected trousers slot untouched")
	}
	if len(s.SelectedGarments()) != 1 {
		t.Fatalf("expected one resolved garment, got %d", len(s.SelectedGarments()))
	}
}

func TestSelectAvatarRequiresCompleted(t *testing.T) {
	s := NewStore(nil)
	avatar := s.CreateAvatar("selfie-id", "posture-id")

	if err := s.SelectAvatar(avatar.ID); err == nil {
		t.Fatal("expected error selecting a pending avatar")
	}

	if err := s.UpdateAvatarStatus(avatar.ID, entity.StatusCompleted, entity.WithOutput("out.png")); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := s.SelectAvatar(avatar.ID); err != nil {
		t.Fatalf("expected completed avatar to be selectable: %v", err)
	}
	if s.Selection().AvatarID != avatar.ID {
		t.Fatal("expected avatar selection recorded")
	}

	s.DeleteAvatar(avatar.ID)
	if s.Selection().AvatarID != "" {
		t.Fatal("expected avatar selection cleared after delete")
	}
}

func TestUpdateStatusMergesPartially(t *testing.T) {
	s := NewStore(nil)
	avatar := s.CreateAvatar("selfie-id", "posture-id")

	if err := s.UpdateAvatarStatus(avatar.ID, entity.StatusCompleted, entity.WithOutput("out.png")); err != nil {
		t.Fatalf("update status: %v", err)
	}
	// A later update without fields must keep the output.
	if err := s.UpdateAvatarStatus(avatar.ID, entity.StatusProcessing, entity.ArtifactUpdates{}); err != nil {
		t.Fatalf("update status: %v", err)
	}

	current, ok := s.Avatar(avatar.ID)
	if !ok {
		t.Fatal("avatar vanished")
	}
	if current.Status != entity.StatusProcessing {
		t.Fatalf("expected processing, got %s", current.Status)
	}
	if current.OutputURI != "out.png" {
		t.Fatalf("expected output preserved, got %q", current.OutputURI)
	}
	if !current.UpdatedAt.After(avatar.UpdatedAt) && !current.UpdatedAt.Equal(avatar.UpdatedAt) {
		t.Fatal("expected updated timestamp to move forward")
	}

	if err := s.UpdateAvatarStatus("missing-id", entity.StatusFailed, entity.ArtifactUpdates{}); err == nil {
		t.Fatal("expected error for unknown artifact")
	}
}

func TestCompletedAvatarsFilter(t *testing.T) {
	s := NewStore(nil)
	done := s.CreateAvatar("a", "b")
	s.CreateAvatar("c", "d")
	if err := s.UpdateAvatarStatus(done.ID, entity.StatusCompleted, entity.WithOutput("out.png")); err != nil {
		t.Fatalf("update status: %v", err)
	}

	completed := s.CompletedAvatars()
	if len(completed) != 1 {
		t.Fatalf("expected one completed avatar, got %d", len(completed))
	}
	if completed[0].ID != done.ID {
		t.Fatal("unexpected completed avatar")
	}
}

func TestAnimationFirstFrameUpdate(t *testing.T) {
	s := NewStore(nil)
	animation := s.CreateAnimation("tryon-id", "360")

	updates := entity.WithOutput("loop.mp4")
	frame := "frame.png"
	updates.FirstFrameURI = &frame
	if err := s.UpdateAnimationStatus(animation.ID, entity.StatusCompleted, updates); err != nil {
		t.Fatalf("update status: %v", err)
	}

	current, ok := s.Animation(animation.ID)
	if !ok {
		t.Fatal("animation vanished")
	}
	if current.OutputURI != "loop.mp4" || current.FirstFrameURI != "frame.png" {
		t.Fatalf("unexpected animation state %+v", current)
	}
}

func TestRestoreTruncatesAndMarksLocal(t *testing.T) {
	oversized := make([]entity.HistoryItem, entity.HistoryLimit+5)
	for i := range oversized {
		oversized[i] = entity.HistoryItem{ID: fmt.Sprintf("item-%d", i), Kind: "image"}
	}

	s := NewStore(nil)
	s.Restore(PersistedState{
		GenerationHistory: oversized,
		LocalClothing: []entity.ClothingItem{
			{ID: "garment-1", Category: "shirt", Name: "Tee", URI: "tee.png"},
		},
	})

	if got := len(s.History()); got != entity.HistoryLimit {
		t.Fatalf("expected history truncated to %d, got %d", entity.HistoryLimit, got)
	}
	item, ok := s.ClothingItem("garment-1")
	if !ok {
		t.Fatal("expected restored garment")
	}
	if !item.IsLocal {
		t.Fatal("expected restored garment marked local")
	}
}
