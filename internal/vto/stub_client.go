package vto

import (
	"context"
	"fmt"
	"time"

	"github.com/Prompt-Haus/OpenVTO/internal/entity"
)

// StubClient is an offline GenerationClient for development and tests. It
// applies the same local validation as HTTPClient and echoes the primary input
// image back as the generated output.
type StubClient struct {
	// Latency is an optional simulated processing delay per call.
	Latency time.Duration
}

func (s *StubClient) wait(ctx context.Context) error {
	if s.Latency <= 0 {
		return nil
	}
	timer := time.NewTimer(s.Latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *StubClient) meta(started time.Time) *entity.GenerationMeta {
	return &entity.GenerationMeta{
		Model:     "stub-v1",
		Provider:  "stub",
		LatencyMS: float64(time.Since(started).Milliseconds()),
	}
}

func (s *StubClient) RequestAvatar(ctx context.Context, selfie, posture entity.MediaBlob, params entity.AvatarParams) entity.GenerationResult {
	if selfie.IsEmpty() {
		return entity.FailedResult(fmt.Sprintf("%v: selfie is empty", ErrInvalidRequest))
	}
	if posture.IsEmpty() {
		return entity.FailedResult(fmt.Sprintf("%v: posture is empty", ErrInvalidRequest))
	}
	started := time.Now()
	if err := s.wait(ctx); err != nil {
		return entity.FailedResult(err.Error())
	}
	return entity.GenerationResult{
		Success: true,
		Image:   selfie,
		Meta:    s.meta(started),
	}
}

func (s *StubClient) RequestTryOn(ctx context.Context, avatar entity.MediaBlob, garments []entity.MediaBlob, params entity.TryOnParams) entity.GenerationResult {
	if avatar.IsEmpty() {
		return entity.FailedResult(fmt.Sprintf("%v: avatar is empty", ErrInvalidRequest))
	}
	if len(garments) == 0 {
		return entity.FailedResult(fmt.Sprintf("%v: at least one garment is required", ErrInvalidRequest))
	}
	for idx, garment := range garments {
		if garment.IsEmpty() {
			return entity.FailedResult(fmt.Sprintf("%v: garment %d is empty", ErrInvalidRequest, idx))
		}
	}
	started := time.Now()
	if err := s.wait(ctx); err != nil {
		return entity.FailedResult(err.Error())
	}
	result := entity.GenerationResult{
		Success: true,
		Image:   avatar,
		Meta:    s.meta(started),
	}
	compose := entity.DefaultCompose
	if params.Compose != nil {
		compose = *params.Compose
	}
	if compose && len(garments) > 1 {
		result.Composite = garments[0]
	}
	return result
}

func (s *StubClient) RequestVideoLoop(ctx context.Context, image entity.MediaBlob, params entity.VideoLoopParams) entity.GenerationResult {
	if image.IsEmpty() {
		return entity.FailedResult(fmt.Sprintf("%v: image is empty", ErrInvalidRequest))
	}
	started := time.Now()
	if err := s.wait(ctx); err != nil {
		return entity.FailedResult(err.Error())
	}

	mode := params.Mode
	if mode == "" {
		mode = entity.DefaultVideoMode
	}
	seconds := params.Seconds
	if seconds <= 0 {
		seconds = entity.DefaultVideoSeconds
	}
	return entity.GenerationResult{
		Success:         true,
		Video:           entity.MediaBlob{Data: image.Data, MimeType: "video/mp4"},
		FirstFrame:      image,
		DurationSeconds: seconds,
		Mode:            mode,
		Meta:            s.meta(started),
	}
}

var _ GenerationClient = (*StubClient)(nil)
