package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/Prompt-Haus/OpenVTO/internal/entity"
	"github.com/google/uuid"
)

// Persister saves the durable subset of the store state. Implementations must
// tolerate being called after every mutating operation on that subset.
type Persister interface {
	Save(state PersistedState) error
}

// PersistedState is the part of the store that survives a restart: the bounded
// generation history and user-added catalog items. Everything else is
// session-only and rebuilt or refetched on the next run.
type PersistedState struct {
	GenerationHistory []entity.HistoryItem  `json:"generation_history"`
	LocalClothing     []entity.ClothingItem `json:"local_clothing"`
}

// Selection holds the user's current picks. Garment slots are independent per
// category; any subset may be empty.
type Selection struct {
	SelfieID  string
	PostureID string
	AvatarID  string
	// Garments maps category (e.g. "shirt", "trousers", "jacket") to an item id.
	Garments map[string]string
}

func (s Selection) clone() Selection {
	garments := make(map[string]string, len(s.Garments))
	for category, id := range s.Garments {
		garments[category] = id
	}
	out := s
	out.Garments = garments
	return out
}

// Store is the single mutable shared resource of the client: all entity
// collections, the selection state, and the bounded history. Every mutation
// goes through a method under the lock.
type Store struct {
	mu sync.RWMutex

	photos     map[string]entity.Photo
	clothing   map[string]entity.ClothingItem
	avatars    map[string]entity.Avatar
	tryOns     map[string]entity.TryOnResult
	animations map[string]entity.AnimationResult

	selection Selection
	history   []entity.HistoryItem

	persister Persister
}

// NewStore creates an empty store. persister may be nil for session-only use.
func NewStore(persister Persister) *Store {
	return &Store{
		photos:     make(map[string]entity.Photo),
		clothing:   make(map[string]entity.ClothingItem),
		avatars:    make(map[string]entity.Avatar),
		tryOns:     make(map[string]entity.TryOnResult),
		animations: make(map[string]entity.AnimationResult),
		selection:  Selection{Garments: make(map[string]string)},
		persister:  persister,
	}
}

// Restore seeds the store from a previously persisted state. History order is
// preserved; local catalog items get their original identities back.
func (s *Store) Restore(state PersistedState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(state.GenerationHistory) > entity.HistoryLimit {
		state.GenerationHistory = state.GenerationHistory[:entity.HistoryLimit]
	}
	s.history = append([]entity.HistoryItem(nil), state.GenerationHistory...)
	for _, item := range state.LocalClothing {
		item.IsLocal = true
		s.clothing[item.ID] = item
	}
}

func (s *Store) persistLocked() {
	if s.persister == nil {
		return
	}
	// Best-effort; the in-memory state stays authoritative for the session.
	_ = s.persister.Save(s.snapshotLocked())
}

func (s *Store) snapshotLocked() PersistedState {
	state := PersistedState{
		GenerationHistory: append([]entity.HistoryItem(nil), s.history...),
	}
	for _, item := range s.clothing {
		if item.IsLocal {
			state.LocalClothing = append(state.LocalClothing, item)
		}
	}
	return state
}

// Snapshot returns the durable subset of the current state.
func (s *Store) Snapshot() PersistedState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// --- Photos ---

// AddPhoto registers a source image, kind "selfie" or "posture".
func (s *Store) AddPhoto(kind, uri string) entity.Photo {
	now := time.Now().UTC()
	photo := entity.Photo{
		ID:        uuid.NewString(),
		Kind:      kind,
		URI:       uri,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.photos[photo.ID] = photo
	return photo
}

// Photo looks up one photo by id.
func (s *Store) Photo(id string) (entity.Photo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	photo, ok := s.photos[id]
	return photo, ok
}

// DeletePhoto removes a photo and clears any selection pointing at it.
func (s *Store) DeletePhoto(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.photos, id)
	if s.selection.SelfieID == id {
		s.selection.SelfieID = ""
	}
	if s.selection.PostureID == id {
		s.selection.PostureID = ""
	}
}

// --- Clothing catalog ---

// AddClothingItem registers a garment. Local items are persisted; remote
// catalog items are session-only.
func (s *Store) AddClothingItem(category, name, uri string, isLocal bool) entity.ClothingItem {
	now := time.Now().UTC()
	item := entity.ClothingItem{
		ID:        uuid.NewString(),
		Category:  category,
		Name:      name,
		URI:       uri,
		IsLocal:   isLocal,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clothing[item.ID] = item
	if item.IsLocal {
		s.persistLocked()
	}
	return item
}

// ClothingItem looks up one garment by id.
func (s *Store) ClothingItem(id string) (entity.ClothingItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.clothing[id]
	return item, ok
}

// ClothingItems returns all garments, local and remote.
func (s *Store) ClothingItems() []entity.ClothingItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entity.ClothingItem, 0, len(s.clothing))
	for _, item := range s.clothing {
		items = append(items, item)
	}
	return items
}

// DeleteClothingItem removes a garment and clears any slot that selected it.
func (s *Store) DeleteClothingItem(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.clothing[id]
	if !ok {
		return
	}
	delete(s.clothing, id)
	for category, selected := range s.selection.Garments {
		if selected == id {
			delete(s.selection.Garments, category)
		}
	}
	if item.IsLocal {
		s.persistLocked()
	}
}

// --- Avatars ---

// CreateAvatar registers a pending avatar artifact before any network call.
func (s *Store) CreateAvatar(selfieID, postureID string) entity.Avatar {
	now := time.Now().UTC()
	avatar := entity.Avatar{
		ID:        uuid.NewString(),
		SelfieID:  selfieID,
		PostureID: postureID,
		Status:    entity.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.avatars[avatar.ID] = avatar
	return avatar
}

// Avatar looks up one avatar by id.
func (s *Store) Avatar(id string) (entity.Avatar, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	avatar, ok := s.avatars[id]
	return avatar, ok
}

// UpdateAvatarStatus overwrites status and the updated timestamp and merges the
// optional fields; fields left nil in updates are untouched.
func (s *Store) UpdateAvatarStatus(id string, status entity.ArtifactStatus, updates entity.ArtifactUpdates) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	avatar, ok := s.avatars[id]
	if !ok {
		return fmt.Errorf("avatar %s not found", id)
	}
	avatar.Status = status
	avatar.UpdatedAt = time.Now().UTC()
	if updates.OutputURI != nil {
		avatar.OutputURI = *updates.OutputURI
	}
	if updates.Error != nil {
		avatar.Error = *updates.Error
	}
	s.avatars[id] = avatar
	return nil
}

// CompletedAvatars returns only avatars visible to selection logic.
func (s *Store) CompletedAvatars() []entity.Avatar {
	s.mu.RLock()
	defer s.mu.RUnlock()
	avatars := make([]entity.Avatar, 0, len(s.avatars))
	for _, avatar := range s.avatars {
		if avatar.Status == entity.StatusCompleted {
			avatars = append(avatars, avatar)
		}
	}
	return avatars
}

// DeleteAvatar removes an avatar and clears the selection if it pointed there.
func (s *Store) DeleteAvatar(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.avatars, id)
	if s.selection.AvatarID == id {
		s.selection.AvatarID = ""
	}
}

// --- Try-on results ---

// CreateTryOn registers a pending try-on artifact.
func (s *Store) CreateTryOn(avatarID string, garmentIDs []string) entity.TryOnResult {
	now := time.Now().UTC()
	result := entity.TryOnResult{
		ID:         uuid.NewString(),
		AvatarID:   avatarID,
		GarmentIDs: append([]string(nil), garmentIDs...),
		Status:     entity.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tryOns[result.ID] = result
	return result
}

// TryOn looks up one try-on result by id.
func (s *Store) TryOn(id string) (entity.TryOnResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.tryOns[id]
	return result, ok
}

// UpdateTryOnStatus overwrites status and the updated timestamp and merges the
// optional fields.
func (s *Store) UpdateTryOnStatus(id string, status entity.ArtifactStatus, updates entity.ArtifactUpdates) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, ok := s.tryOns[id]
	if !ok {
		return fmt.Errorf("try-on %s not found", id)
	}
	result.Status = status
	result.UpdatedAt = time.Now().UTC()
	if updates.OutputURI != nil {
		result.OutputURI = *updates.OutputURI
	}
	if updates.Error != nil {
		result.Error = *updates.Error
	}
	s.tryOns[id] = result
	return nil
}

// --- Animations ---

// CreateAnimation registers a pending video-loop artifact.
func (s *Store) CreateAnimation(sourceID, mode string) entity.AnimationResult {
	now := time.Now().UTC()
	result := entity.AnimationResult{
		ID:        uuid.NewString(),
		SourceID:  sourceID,
		Mode:      mode,
		Status:    entity.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.animations[result.ID] = result
	return result
}

// Animation looks up one animation result by id.
func (s *Store) Animation(id string) (entity.AnimationResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.animations[id]
	return result, ok
}

// UpdateAnimationStatus overwrites status and the updated timestamp and merges
// the optional fields.
func (s *Store) UpdateAnimationStatus(id string, status entity.ArtifactStatus, updates entity.ArtifactUpdates) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, ok := s.animations[id]
	if !ok {
		return fmt.Errorf("animation %s not found", id)
	}
	result.Status = status
	result.UpdatedAt = time.Now().UTC()
	if updates.OutputURI != nil {
		result.OutputURI = *updates.OutputURI
	}
	if updates.FirstFrameURI != nil {
		result.FirstFrameURI = *updates.FirstFrameURI
	}
	if updates.Error != nil {
		result.Error = *updates.Error
	}
	s.animations[id] = result
	return nil
}

// --- Selection ---

// SelectSelfie points the selfie selection at an existing photo.
func (s *Store) SelectSelfie(id string) error {
	return s.selectPhoto(id, "selfie")
}

// SelectPosture points the posture selection at an existing photo.
func (s *Store) SelectPosture(id string) error {
	return s.selectPhoto(id, "posture")
}

func (s *Store) selectPhoto(id, kind string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.photos[id]; !ok {
		return fmt.Errorf("photo %s not found", id)
	}
	if kind == "selfie" {
		s.selection.SelfieID = id
	} else {
		s.selection.PostureID = id
	}
	return nil
}

// SelectAvatar points the avatar selection at a completed avatar.
func (s *Store) SelectAvatar(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	avatar, ok := s.avatars[id]
	if !ok {
		return fmt.Errorf("avatar %s not found", id)
	}
	if avatar.Status != entity.StatusCompleted {
		return fmt.Errorf("avatar %s is %s, not completed", id, avatar.Status)
	}
	s.selection.AvatarID = id
	return nil
}

// SelectGarment fills one category slot with an existing garment.
func (s *Store) SelectGarment(category, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clothing[id]; !ok {
		return fmt.Errorf("clothing item %s not found", id)
	}
	s.selection.Garments[category] = id
	return nil
}

// ClearGarment empties one category slot.
func (s *Store) ClearGarment(category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.selection.Garments, category)
}

// Selection returns a copy of the current selection state.
func (s *Store) Selection() Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection.clone()
}

// SelectedGarments resolves the filled category slots into items.
func (s *Store) SelectedGarments() []entity.ClothingItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entity.ClothingItem, 0, len(s.selection.Garments))
	for _, id := range s.selection.Garments {
		if item, ok := s.clothing[id]; ok {
			items = append(items, item)
		}
	}
	return items
}

// --- History ---

// AppendHistory inserts one completed output at the head of the history and
// evicts the oldest entry past the cap.
func (s *Store) AppendHistory(kind, outputURI, thumbnailURI string) entity.HistoryItem {
	item := entity.HistoryItem{
		ID:           uuid.NewString(),
		Kind:         kind,
		OutputURI:    outputURI,
		ThumbnailURI: thumbnailURI,
		CreatedAt:    time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append([]entity.HistoryItem{item}, s.history...)
	if len(s.history) > entity.HistoryLimit {
		s.history = s.history[:entity.HistoryLimit]
	}
	s.persistLocked()
	return item
}

// History returns the most-recent-first history list.
func (s *Store) History() []entity.HistoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.HistoryItem(nil), s.history...)
}
