package vto

import (
	"context"
	"net/http"
	"strings"

	"github.com/Prompt-Haus/OpenVTO/internal/entity"
)

// GenerationClient is the single point of contact with the remote generative
// service. Calls never fail past this boundary: every outcome, including local
// validation failures, is reported as a GenerationResult.
type GenerationClient interface {
	RequestAvatar(ctx context.Context, selfie, posture entity.MediaBlob, params entity.AvatarParams) entity.GenerationResult
	RequestTryOn(ctx context.Context, avatar entity.MediaBlob, garments []entity.MediaBlob, params entity.TryOnParams) entity.GenerationResult
	RequestVideoLoop(ctx context.Context, image entity.MediaBlob, params entity.VideoLoopParams) entity.GenerationResult
}

// ClientConfig is the explicit construction-time configuration for HTTPClient.
// There is no ambient mutable state: base URL and credential are fixed at
// construction.
type ClientConfig struct {
	BaseURL string
	// APIKey is sent as the api-key header. An empty key is allowed; the call
	// goes out unauthenticated and the remote service decides.
	APIKey     string
	HTTPClient *http.Client
}

func (c ClientConfig) baseURL() string {
	return strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
}
