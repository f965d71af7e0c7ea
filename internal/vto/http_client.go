package vto

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Prompt-Haus/OpenVTO/internal/entity"
	"github.com/Prompt-Haus/OpenVTO/internal/media"
	"github.com/sirupsen/logrus"
)

const apiKeyHeader = "api-key"

// HTTPClient talks to an OpenVTO relay over multipart HTTP.
type HTTPClient struct {
	cfg        ClientConfig
	codec      *media.Codec
	httpClient *http.Client
}

// NewHTTPClient builds a client from an explicit configuration. The codec is
// used to materialize media inputs for multipart upload.
func NewHTTPClient(cfg ClientConfig, codec *media.Codec) *HTTPClient {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Minute}
	}
	return &HTTPClient{cfg: cfg, codec: codec, httpClient: httpClient}
}

type metaResponse struct {
	Model     string  `json:"model"`
	Provider  string  `json:"provider"`
	LatencyMS float64 `json:"latency_ms"`
	Seed      *int64  `json:"seed"`
}

func (m *metaResponse) toMeta() *entity.GenerationMeta {
	if m == nil {
		return nil
	}
	return &entity.GenerationMeta{
		Model:     m.Model,
		Provider:  m.Provider,
		LatencyMS: m.LatencyMS,
		Seed:      m.Seed,
	}
}

type avatarResponse struct {
	ImageB64 string        `json:"image_b64"`
	Width    int           `json:"width"`
	Height   int           `json:"height"`
	Meta     *metaResponse `json:"meta"`
}

type tryOnResponse struct {
	ImageB64             string        `json:"image_b64"`
	ClothingCompositeB64 string        `json:"clothing_composite_b64"`
	Meta                 *metaResponse `json:"meta"`
}

type videoLoopResponse struct {
	VideoB64        string        `json:"video_b64"`
	FirstFrameB64   string        `json:"first_frame_b64"`
	DurationSeconds float64       `json:"duration_seconds"`
	Width           int           `json:"width"`
	Height          int           `json:"height"`
	Mode            string        `json:"mode"`
	Meta            *metaResponse `json:"meta"`
}

// RequestAvatar generates a studio avatar from a selfie and a posture shot.
func (c *HTTPClient) RequestAvatar(ctx context.Context, selfie, posture entity.MediaBlob, params entity.AvatarParams) entity.GenerationResult {
	if selfie.IsEmpty() {
		return entity.FailedResult(fmt.Sprintf("%v: selfie is empty", ErrInvalidRequest))
	}
	if posture.IsEmpty() {
		return entity.FailedResult(fmt.Sprintf("%v: posture is empty", ErrInvalidRequest))
	}

	background := strings.TrimSpace(params.Background)
	if background == "" {
		background = entity.DefaultBackground
	}
	fields := map[string]string{
		"background":   background,
		"keep_clothes": strconv.FormatBool(params.KeepClothes),
	}
	if params.Seed != nil {
		fields["seed"] = strconv.FormatInt(*params.Seed, 10)
	}

	parts, cleanup, err := c.materializeParts(map[string]entity.MediaBlob{
		"selfie":  selfie,
		"posture": posture,
	})
	if err != nil {
		return entity.FailedResult(err.Error())
	}
	defer cleanup()

	var decoded avatarResponse
	if errMsg := c.postGeneration(ctx, "/generate/avatar", parts, fields, &decoded); errMsg != "" {
		return entity.FailedResult(errMsg)
	}
	if strings.TrimSpace(decoded.ImageB64) == "" {
		return entity.FailedResult("avatar response did not include an image")
	}

	return entity.GenerationResult{
		Success: true,
		Image:   entity.NewMediaBlob(decoded.ImageB64, "image/png"),
		Width:   decoded.Width,
		Height:  decoded.Height,
		Meta:    decoded.Meta.toMeta(),
	}
}

// RequestTryOn composites one or more garments onto an avatar image.
func (c *HTTPClient) RequestTryOn(ctx context.Context, avatar entity.MediaBlob, garments []entity.MediaBlob, params entity.TryOnParams) entity.GenerationResult {
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

	compose := entity.DefaultCompose
	if params.Compose != nil {
		compose = *params.Compose
	}
	fields := map[string]string{
		"compose": strconv.FormatBool(compose),
	}
	if params.Seed != nil {
		fields["seed"] = strconv.FormatInt(*params.Seed, 10)
	}

	blobs := map[string]entity.MediaBlob{"avatar": avatar}
	parts, cleanup, err := c.materializeParts(blobs)
	if err != nil {
		return entity.FailedResult(err.Error())
	}
	defer cleanup()

	garmentParts, garmentCleanup, err := c.materializeRepeated("clothes", garments)
	if err != nil {
		return entity.FailedResult(err.Error())
	}
	defer garmentCleanup()
	parts = append(parts, garmentParts...)

	var decoded tryOnResponse
	if errMsg := c.postGeneration(ctx, "/generate/tryon", parts, fields, &decoded); errMsg != "" {
		return entity.FailedResult(errMsg)
	}
	if strings.TrimSpace(decoded.ImageB64) == "" {
		return entity.FailedResult("try-on response did not include an image")
	}

	result := entity.GenerationResult{
		Success: true,
		Image:   entity.NewMediaBlob(decoded.ImageB64, "image/png"),
		Meta:    decoded.Meta.toMeta(),
	}
	if strings.TrimSpace(decoded.ClothingCompositeB64) != "" {
		result.Composite = entity.NewMediaBlob(decoded.ClothingCompositeB64, "image/png")
	}
	return result
}

// RequestVideoLoop animates a static image into a short looping video.
func (c *HTTPClient) RequestVideoLoop(ctx context.Context, image entity.MediaBlob, params entity.VideoLoopParams) entity.GenerationResult {
	if image.IsEmpty() {
		return entity.FailedResult(fmt.Sprintf("%v: image is empty", ErrInvalidRequest))
	}

	mode := strings.TrimSpace(params.Mode)
	if mode == "" {
		mode = entity.DefaultVideoMode
	}
	seconds := params.Seconds
	if seconds <= 0 {
		seconds = entity.DefaultVideoSeconds
	}
	fields := map[string]string{
		"mode":    mode,
		"seconds": strconv.FormatFloat(seconds, 'f', -1, 64),
	}
	if params.Seed != nil {
		fields["seed"] = strconv.FormatInt(*params.Seed, 10)
	}

	parts, cleanup, err := c.materializeParts(map[string]entity.MediaBlob{"image": image})
	if err != nil {
		return entity.FailedResult(err.Error())
	}
	defer cleanup()

	var decoded videoLoopResponse
	if errMsg := c.postGeneration(ctx, "/generate/videoloop", parts, fields, &decoded); errMsg != "" {
		return entity.FailedResult(errMsg)
	}
	if strings.TrimSpace(decoded.VideoB64) == "" {
		return entity.FailedResult("video-loop response did not include a video")
	}

	return entity.GenerationResult{
		Success:         true,
		Video:           entity.NewMediaBlob(decoded.VideoB64, "video/mp4"),
		FirstFrame:      entity.NewMediaBlob(decoded.FirstFrameB64, "image/png"),
		DurationSeconds: decoded.DurationSeconds,
		Width:           decoded.Width,
		Height:          decoded.Height,
		Mode:            decoded.Mode,
		Meta:            decoded.Meta.toMeta(),
	}
}

// materializeParts writes each blob to a scratch file and builds one typed
// upload part per field. The returned cleanup removes the scratch files.
func (c *HTTPClient) materializeParts(blobs map[string]entity.MediaBlob) ([]UploadPart, func(), error) {
	var paths []string
	cleanup := func() {
		for _, path := range paths {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				logrus.WithError(err).WithField("path", path).Warn("failed to remove upload scratch file")
			}
		}
	}

	parts := make([]UploadPart, 0, len(blobs))
	for field, blob := range blobs {
		path, err := c.codec.Materialize(blob, field)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("materialize %s: %w", field, err)
		}
		paths = append(paths, path)

		part, err := NewFilePart(field, path, blob.MimeType)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		parts = append(parts, part)
	}
	return parts, cleanup, nil
}

// materializeRepeated builds one part per blob, all under the same field name.
func (c *HTTPClient) materializeRepeated(field string, blobs []entity.MediaBlob) ([]UploadPart, func(), error) {
	var paths []string
	cleanup := func() {
		for _, path := range paths {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				logrus.WithError(err).WithField("path", path).Warn("failed to remove upload scratch file")
			}
		}
	}

	parts := make([]UploadPart, 0, len(blobs))
	for idx, blob := range blobs {
		path, err := c.codec.Materialize(blob, fmt.Sprintf("%s_%d", field, idx))
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("materialize %s %d: %w", field, idx, err)
		}
		paths = append(paths, path)

		part, err := NewFilePart(field, path, blob.MimeType)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		parts = append(parts, part)
	}
	return parts, cleanup, nil
}

// postGeneration sends one multipart request and decodes the success body into
// out. It returns a non-empty normalized message on any failure.
func (c *HTTPClient) postGeneration(ctx context.Context, path string, parts []UploadPart, fields map[string]string, out interface{}) string {
	body, contentType, err := encodeMultipart(parts, fields)
	if err != nil {
		return fmt.Sprintf("encode request: %v", err)
	}

	url := c.cfg.baseURL() + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Sprintf("create request: %v", err)
	}
	req.Header.Set("Content-Type", contentType)
	if key := strings.TrimSpace(c.cfg.APIKey); key != "" {
		req.Header.Set(apiKeyHeader, key)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Sprintf("request %s: %v", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("read response of %s: %v", path, err)
	}

	logrus.WithFields(logrus.Fields{
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(started).String(),
	}).Info("generation_request_done")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return normalizeErrorBody(resp.StatusCode, http.StatusText(resp.StatusCode), raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Sprintf("decode response of %s: %v", path, err)
	}
	return ""
}

var _ GenerationClient = (*HTTPClient)(nil)
