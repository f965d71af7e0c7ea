package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

// Gemini uses a Google-style streaming endpoint. The request/response
// contracts stay local to this file so the provider owns all of its glue code.
const geminiStreamEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/%s:streamGenerateContent?alt=sse"

type (
	geminiInlineData struct {
		MimeType string `json:"mimeType,omitempty"`
		Data     string `json:"data,omitempty"`
	}
	geminiPart struct {
		Text       string            `json:"text,omitempty"`
		InlineData *geminiInlineData `json:"inlineData,omitempty"`
	}
	geminiContent struct {
		Role  string       `json:"role,omitempty"`
		Parts []geminiPart `json:"parts"`
	}
	geminiRequest struct {
		Contents []geminiContent `json:"contents"`
	}
)

type (
	geminiCandidate struct {
		FinishReason string        `json:"finishReason,omitempty"`
		Content      geminiContent `json:"content"`
	}
	geminiError struct {
		Message string `json:"message"`
	}
	geminiStreamChunk struct {
		Candidates []geminiCandidate `json:"candidates"`
		Error      *geminiError      `json:"error,omitempty"`
	}
)

// GeminiProvider generates still images with a Google image model over the
// SSE streaming endpoint. Video loops are not supported.
type GeminiProvider struct {
	apiKey string
	model  string
	client *http.Client
}

func NewGeminiProvider(apiKey, model string) (*GeminiProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("provider: missing gemini api key")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("provider: missing gemini model")
	}
	// No client-level timeout: image streams can run for minutes, the caller
	// bounds the call with its context.
	return &GeminiProvider{apiKey: apiKey, model: model, client: &http.Client{Timeout: 0}}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) GenerateAvatar(ctx context.Context, req AvatarRequest) (ImageOutput, error) {
	prompt := avatarPrompt(req.Background, req.KeepClothes)
	data, err := p.generateImage(ctx, prompt, []ImageInput{req.Selfie, req.Posture})
	if err != nil {
		return ImageOutput{}, err
	}
	width, height := imageDims(data)
	return ImageOutput{
		ImageB64: base64.StdEncoding.EncodeToString(data),
		Width:    width,
		Height:   height,
		Model:    p.model,
		Seed:     req.Seed,
	}, nil
}

func (p *GeminiProvider) GenerateTryOn(ctx context.Context, req TryOnRequest) (TryOnOutput, error) {
	prompt := tryOnPrompt(len(req.Garments))
	refs := append([]ImageInput{req.Avatar}, req.Garments...)
	data, err := p.generateImage(ctx, prompt, refs)
	if err != nil {
		return TryOnOutput{}, err
	}
	return TryOnOutput{
		ImageB64: base64.StdEncoding.EncodeToString(data),
		Model:    p.model,
		Seed:     req.Seed,
	}, nil
}

func (p *GeminiProvider) GenerateVideoLoop(ctx context.Context, req VideoLoopRequest) (VideoOutput, error) {
	return VideoOutput{}, fmt.Errorf("%w: gemini image models cannot generate video loops", ErrUnsupported)
}

// generateImage streams one generation and returns the first inline image.
func (p *GeminiProvider) generateImage(ctx context.Context, prompt string, refs []ImageInput) ([]byte, error) {
	parts := []geminiPart{{Text: prompt}}
	for _, ref := range refs {
		if len(ref.Data) == 0 {
			continue
		}
		mimeType := strings.TrimSpace(ref.MimeType)
		if mimeType == "" {
			mimeType = http.DetectContentType(ref.Data)
		}
		parts = append(parts, geminiPart{
			InlineData: &geminiInlineData{
				MimeType: mimeType,
				Data:     base64.StdEncoding.EncodeToString(ref.Data),
			},
		})
	}

	bodyBytes, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini marshal request: %w", err)
	}

	targetURL := fmt.Sprintf(geminiStreamEndpoint, p.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("gemini create request: %w", err)
	}
	// Header keeps the API key out of URLs and logs.
	req.Header.Set("x-goog-api-key", p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(resp.Body)
		logrus.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"body":   buf.String(),
		}).Error("gemini_generate_http_error")
		return nil, fmt.Errorf("gemini http %d: %s", resp.StatusCode, buf.String())
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	var assistantText string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			break
		}

		var chunk geminiStreamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			logrus.WithError(err).Warn("gemini failed to unmarshal stream chunk")
			continue
		}
		if chunk.Error != nil && strings.TrimSpace(chunk.Error.Message) != "" {
			return nil, fmt.Errorf("gemini stream error: %s", chunk.Error.Message)
		}
		for _, cand := range chunk.Candidates {
			for _, part := range cand.Content.Parts {
				if part.Text != "" {
					assistantText = part.Text
				}
				if part.InlineData == nil {
					continue
				}
				data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(part.InlineData.Data))
				if err != nil {
					logrus.WithError(err).Warn("gemini skip undecodable inline image")
					continue
				}
				if len(data) > 0 {
					return data, nil
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("gemini stream read error: %w", err)
	}
	if strings.TrimSpace(assistantText) != "" {
		return nil, fmt.Errorf("gemini response did not include image data: %s", assistantText)
	}
	return nil, errors.New("gemini response did not include image data")
}

func avatarPrompt(background string, keepClothes bool) string {
	if strings.TrimSpace(background) == "" {
		background = "studio"
	}
	clothes := "Dress the person in plain neutral base clothing."
	if keepClothes {
		clothes = "Keep the clothing from the source photos unchanged."
	}
	return fmt.Sprintf(
		"Create a full-body photo of the person from the first image, standing in the pose of the second image, on a clean %s background. %s Photorealistic, even lighting, no text or watermark.",
		background, clothes)
}

func tryOnPrompt(garmentCount int) string {
	return fmt.Sprintf(
		"The first image is a full-body photo of a person. Dress them in the %d garment(s) shown in the following images, keeping face, pose, body shape, and background unchanged. Photorealistic, natural fabric drape, no text or watermark.",
		garmentCount)
}

var _ Provider = (*GeminiProvider)(nil)
