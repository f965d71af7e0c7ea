package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/Prompt-Haus/OpenVTO/internal/entity"
)

const stubModel = "stub-v1"

// StubProvider is the offline backend: it echoes the primary input image back
// as the generated output so the whole relay path can be exercised without any
// external service or credential.
type StubProvider struct {
	latency time.Duration
}

func NewStubProvider(latencyMS int) *StubProvider {
	return &StubProvider{latency: time.Duration(latencyMS) * time.Millisecond}
}

func (p *StubProvider) Name() string { return "stub" }

func (p *StubProvider) wait(ctx context.Context) error {
	if p.latency <= 0 {
		return nil
	}
	timer := time.NewTimer(p.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// imageDims decodes just the header to report output dimensions.
func imageDims(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

func (p *StubProvider) GenerateAvatar(ctx context.Context, req AvatarRequest) (ImageOutput, error) {
	if err := p.wait(ctx); err != nil {
		return ImageOutput{}, err
	}
	width, height := imageDims(req.Selfie.Data)
	return ImageOutput{
		ImageB64: base64.StdEncoding.EncodeToString(req.Selfie.Data),
		Width:    width,
		Height:   height,
		Model:    stubModel,
		Seed:     req.Seed,
	}, nil
}

func (p *StubProvider) GenerateTryOn(ctx context.Context, req TryOnRequest) (TryOnOutput, error) {
	if err := p.wait(ctx); err != nil {
		return TryOnOutput{}, err
	}
	out := TryOnOutput{
		ImageB64: base64.StdEncoding.EncodeToString(req.Avatar.Data),
		Model:    stubModel,
		Seed:     req.Seed,
	}
	if req.Compose && len(req.Garments) > 0 {
		out.CompositeB64 = base64.StdEncoding.EncodeToString(req.Garments[0].Data)
	}
	return out, nil
}

func (p *StubProvider) GenerateVideoLoop(ctx context.Context, req VideoLoopRequest) (VideoOutput, error) {
	if err := p.wait(ctx); err != nil {
		return VideoOutput{}, err
	}
	mode := req.Mode
	if mode == "" {
		mode = entity.DefaultVideoMode
	}
	seconds := req.Seconds
	if seconds <= 0 {
		seconds = entity.DefaultVideoSeconds
	}
	width, height := imageDims(req.Image.Data)
	encoded := base64.StdEncoding.EncodeToString(req.Image.Data)
	return VideoOutput{
		// The stub has no encoder; the source frame stands in for the video
		// payload so the response shape stays complete.
		VideoB64:        encoded,
		FirstFrameB64:   encoded,
		DurationSeconds: seconds,
		Width:           width,
		Height:          height,
		Mode:            mode,
		Model:           stubModel,
		Seed:            req.Seed,
	}, nil
}

var _ Provider = (*StubProvider)(nil)
