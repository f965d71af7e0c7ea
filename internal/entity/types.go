package entity

import (
	"strings"
)

// MediaBlob is an opaque encoded image/video payload together with its declared
// MIME type. The payload is standard base64 without a data-URL scheme prefix.
// Blobs are immutable once created.
type MediaBlob struct {
	Data     string `json:"data"`
	MimeType string `json:"mime_type"`
}

// NewMediaBlob builds a blob from a base64 payload and a MIME type, defaulting
// to image/jpeg when the type is unknown.
func NewMediaBlob(data, mimeType string) MediaBlob {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return MediaBlob{Data: strings.TrimSpace(data), MimeType: mimeType}
}

// IsEmpty reports whether the blob carries no payload.
func (b MediaBlob) IsEmpty() bool {
	return strings.TrimSpace(b.Data) == ""
}

// ArtifactStatus is the lifecycle state of a generated artifact.
type ArtifactStatus string

const (
	StatusIdle       ArtifactStatus = "idle"
	StatusPending    ArtifactStatus = "pending"
	StatusProcessing ArtifactStatus = "processing"
	StatusCompleted  ArtifactStatus = "completed"
	StatusFailed     ArtifactStatus = "failed"
)

// Terminal reports whether no further transitions are allowed from the status.
func (s ArtifactStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// GenerationMeta carries provider-reported diagnostics about one generation call.
type GenerationMeta struct {
	Model     string  `json:"model"`
	Provider  string  `json:"provider"`
	LatencyMS float64 `json:"latency_ms"`
	Seed      *int64  `json:"seed,omitempty"`
}

// Animation modes accepted by the video-loop operation.
const (
	AnimationMode360  = "360"
	AnimationModeIdle = "idle"
)

// Defaults applied to generation parameters when the caller leaves them unset.
const (
	DefaultBackground   = "studio"
	DefaultCompose      = true
	DefaultVideoMode    = AnimationMode360
	DefaultVideoSeconds = 4.0
)

// Bounds accepted for the video-loop duration, in seconds.
const (
	MinVideoSeconds = 4.0
	MaxVideoSeconds = 8.0
)
