package entity

import "time"

// HistoryLimit caps the persisted generation history; the oldest entry is
// evicted first when the cap is exceeded.
const HistoryLimit = 50

// Photo is a user-supplied source image (selfie or full-body posture shot).
type Photo struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"` // "selfie" or "posture"
	URI       string    `json:"uri"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ClothingItem is a selectable garment, either fetched from the remote catalog
// or added locally by the user. Only local items persist across sessions.
type ClothingItem struct {
	ID        string    `json:"id"`
	Category  string    `json:"category"`
	Name      string    `json:"name"`
	URI       string    `json:"uri"`
	IsLocal   bool      `json:"is_local"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Avatar is a generated full-body base image used for garment compositing.
type Avatar struct {
	ID        string         `json:"id"`
	SelfieID  string         `json:"selfie_id"`
	PostureID string         `json:"posture_id"`
	Status    ArtifactStatus `json:"status"`
	OutputURI string         `json:"output_uri"`
	Error     string         `json:"error"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TryOnResult is a garment-compositing result on top of a completed avatar.
type TryOnResult struct {
	ID         string         `json:"id"`
	AvatarID   string         `json:"avatar_id"`
	GarmentIDs []string       `json:"garment_ids"`
	Status     ArtifactStatus `json:"status"`
	OutputURI  string         `json:"output_uri"`
	Error      string         `json:"error"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// AnimationResult is a video loop derived from a static try-on image.
type AnimationResult struct {
	ID            string         `json:"id"`
	SourceID      string         `json:"source_id"` // try-on result the loop was derived from
	Mode          string         `json:"mode"`
	Status        ArtifactStatus `json:"status"`
	OutputURI     string         `json:"output_uri"`
	FirstFrameURI string         `json:"first_frame_uri"`
	Error         string         `json:"error"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// HistoryItem is one completed output in the bounded, most-recent-first history.
type HistoryItem struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"` // "image" or "video"
	OutputURI    string    `json:"output_uri"`
	ThumbnailURI string    `json:"thumbnail_uri,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
