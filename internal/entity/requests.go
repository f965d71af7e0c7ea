package entity

import "strings"

// AvatarParams tunes avatar generation.
type AvatarParams struct {
	Background  string
	KeepClothes bool
	Seed        *int64
}

// TryOnParams tunes garment compositing.
type TryOnParams struct {
	// Compose controls whether the clothing images are composited into one
	// reference before generation. Nil means the server default (true).
	Compose *bool
	Seed    *int64
}

// VideoLoopParams tunes video-loop synthesis.
type VideoLoopParams struct {
	Mode    string
	Seconds float64
	Seed    *int64
}

// GenerationResult is the normalized outcome of one remote generation call.
// A failed result never carries output payloads and always carries an error
// message; a successful result always carries at least one output payload.
type GenerationResult struct {
	Success bool

	Image      MediaBlob
	Composite  MediaBlob
	Video      MediaBlob
	FirstFrame MediaBlob

	Width           int
	Height          int
	DurationSeconds float64
	Mode            string

	Meta  *GenerationMeta
	Error string
}

// FailedResult builds a failure outcome, guaranteeing a non-empty message.
func FailedResult(message string) GenerationResult {
	message = strings.TrimSpace(message)
	if message == "" {
		message = "generation failed"
	}
	return GenerationResult{Success: false, Error: message}
}

// Output returns the primary output payload: the video when present, otherwise
// the image.
func (r GenerationResult) Output() MediaBlob {
	if !r.Video.IsEmpty() {
		return r.Video
	}
	return r.Image
}
