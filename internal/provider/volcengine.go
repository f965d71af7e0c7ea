package provider

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	volcModel "github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"
	"github.com/volcengine/volcengine-go-sdk/volcengine"
)

// VolcengineProvider generates still images with a Seedream model through the
// ark runtime streaming API. Video loops are not supported.
type VolcengineProvider struct {
	client *arkruntime.Client
	model  string
}

func NewVolcengineProvider(apiKey, model string) (*VolcengineProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("provider: missing volcengine api key")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("provider: missing volcengine model")
	}
	return &VolcengineProvider{
		client: arkruntime.NewClientWithApiKey(apiKey),
		model:  model,
	}, nil
}

func (p *VolcengineProvider) Name() string { return "volcengine" }

func (p *VolcengineProvider) GenerateAvatar(ctx context.Context, req AvatarRequest) (ImageOutput, error) {
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

func (p *VolcengineProvider) GenerateTryOn(ctx context.Context, req TryOnRequest) (TryOnOutput, error) {
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

func (p *VolcengineProvider) GenerateVideoLoop(ctx context.Context, req VideoLoopRequest) (VideoOutput, error) {
	return VideoOutput{}, fmt.Errorf("%w: seedream image models cannot generate video loops", ErrUnsupported)
}

// generateImage streams one generation, takes the returned download URL, and
// fetches the image bytes. Download links stay valid for 24 hours, so the
// fetch happens immediately inside the request.
func (p *VolcengineProvider) generateImage(ctx context.Context, prompt string, refs []ImageInput) ([]byte, error) {
	images := make([]string, 0, len(refs))
	for _, ref := range refs {
		if len(ref.Data) == 0 {
			continue
		}
		mimeType := strings.TrimSpace(ref.MimeType)
		if mimeType == "" {
			mimeType = http.DetectContentType(ref.Data)
		}
		images = append(images, fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(ref.Data)))
	}

	var sequentialImageGeneration volcModel.SequentialImageGeneration = "disabled"
	generateReq := volcModel.GenerateImagesRequest{
		Model:                     p.model,
		Prompt:                    prompt,
		Image:                     images,
		Size:                      volcengine.String("2K"),
		ResponseFormat:            volcengine.String(volcModel.GenerateImagesResponseFormatURL),
		Watermark:                 volcengine.Bool(false),
		SequentialImageGeneration: &sequentialImageGeneration,
	}

	stream, err := p.client.GenerateImagesStreaming(ctx, generateReq)
	if err != nil {
		return nil, fmt.Errorf("volcengine start stream: %w", err)
	}
	defer stream.Close()

	var imageURL string
	for {
		recv, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("volcengine stream recv: %w", err)
		}
		switch recv.Type {
		case "image_generation.partial_failed":
			if recv.Error != nil {
				logrus.WithFields(logrus.Fields{
					"code":    recv.Error.Code,
					"message": recv.Error.Message,
				}).Error("volcengine_generation_failed")
				return nil, fmt.Errorf("volcengine generation failed: %s", recv.Error.Message)
			}
		case "image_generation.partial_succeeded":
			if recv.Error == nil && recv.Url != nil {
				imageURL = *recv.Url
			}
		}
	}

	if imageURL == "" {
		return nil, errors.New("volcengine response did not include an image url")
	}
	return downloadImage(ctx, imageURL)
}

func downloadImage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download image http %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("downloaded image is empty")
	}
	return data, nil
}

var _ Provider = (*VolcengineProvider)(nil)
