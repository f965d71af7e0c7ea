package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Prompt-Haus/OpenVTO/internal/config"
)

// ErrUnsupported marks an operation the selected provider cannot perform.
var ErrUnsupported = errors.New("provider: operation not supported")

// ImageInput is one decoded multipart upload handed to a provider.
type ImageInput struct {
	Data     []byte
	MimeType string
}

type AvatarRequest struct {
	Selfie      ImageInput
	Posture     ImageInput
	Background  string
	KeepClothes bool
	Seed        *int64
}

type TryOnRequest struct {
	Avatar   ImageInput
	Garments []ImageInput
	Compose  bool
	Seed     *int64
}

type VideoLoopRequest struct {
	Image   ImageInput
	Mode    string
	Seconds float64
	Seed    *int64
}

// ImageOutput is a generated still image, base64 encoded.
type ImageOutput struct {
	ImageB64 string
	Width    int
	Height   int
	Model    string
	Seed     *int64
}

// TryOnOutput adds the optional garment composite preview.
type TryOnOutput struct {
	ImageB64     string
	CompositeB64 string
	Model        string
	Seed         *int64
}

// VideoOutput is a generated looping video plus its extracted first frame.
type VideoOutput struct {
	VideoB64        string
	FirstFrameB64   string
	DurationSeconds float64
	Width           int
	Height          int
	Mode            string
	Model           string
	Seed            *int64
}

// Provider is the relay-side generation backend.
type Provider interface {
	Name() string
	GenerateAvatar(ctx context.Context, req AvatarRequest) (ImageOutput, error)
	GenerateTryOn(ctx context.Context, req TryOnRequest) (TryOnOutput, error)
	GenerateVideoLoop(ctx context.Context, req VideoLoopRequest) (VideoOutput, error)
}

// NewProvider instantiates the backend selected by configuration.
func NewProvider(cfg config.Config) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.ProviderName))
	switch name {
	case "", "stub":
		return NewStubProvider(cfg.StubLatencyMS), nil
	case "gemini":
		return NewGeminiProvider(cfg.GeminiAPIKey, cfg.GeminiImageModel)
	case "volcengine":
		return NewVolcengineProvider(cfg.VolcengineAPIKey, cfg.VolcengineModel)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.ProviderName)
	}
}
