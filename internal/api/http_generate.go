package api

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Prompt-Haus/OpenVTO/internal/entity"
	"github.com/Prompt-Haus/OpenVTO/internal/media"
	"github.com/Prompt-Haus/OpenVTO/internal/provider"
	"github.com/Prompt-Haus/OpenVTO/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type generationMeta struct {
	Model     string  `json:"model"`
	Provider  string  `json:"provider"`
	LatencyMS float64 `json:"latency_ms"`
	Seed      *int64  `json:"seed"`
}

func (h *HTTPHandler) meta(model string, latency time.Duration, seed *int64) generationMeta {
	return generationMeta{
		Model:     model,
		Provider:  h.provider.Name(),
		LatencyMS: float64(latency.Milliseconds()),
		Seed:      seed,
	}
}

// GenerateAvatar handles POST /generate/avatar.
func (h *HTTPHandler) GenerateAvatar(c *gin.Context) {
	selfie, ok := h.readImageFile(c, "selfie")
	if !ok {
		return
	}
	posture, ok := h.readImageFile(c, "posture")
	if !ok {
		return
	}

	background := strings.TrimSpace(c.PostForm("background"))
	if background == "" {
		background = entity.DefaultBackground
	}
	keepClothes := parseBoolField(c.PostForm("keep_clothes"), false)
	seed, ok := h.readSeed(c)
	if !ok {
		return
	}

	req := provider.AvatarRequest{
		Selfie:      selfie,
		Posture:     posture,
		Background:  background,
		KeepClothes: keepClothes,
		Seed:        seed,
	}

	started := time.Now()
	out, err := h.provider.GenerateAvatar(c.Request.Context(), req)
	latency := time.Since(started)
	if err != nil {
		h.recordFailure(c.Request.Context(), "avatar", latency, err)
		h.generationError(c, err)
		return
	}

	key := h.saveOutput(c.Request.Context(), storage.CategoryAvatars, out.ImageB64, "png")
	h.recordSuccess(c.Request.Context(), entity.DbGenerationRecord{
		Kind:       "avatar",
		ProviderID: h.provider.Name(),
		ModelID:    out.Model,
		InputAssets: entity.StringArray{
			"selfie", "posture",
		},
		OutputAssets: assetList(key),
		Width:        out.Width,
		Height:       out.Height,
		LatencyMS:    float64(latency.Milliseconds()),
	})

	c.JSON(http.StatusOK, gin.H{
		"image_b64": out.ImageB64,
		"width":     out.Width,
		"height":    out.Height,
		"meta":      h.meta(out.Model, latency, out.Seed),
	})
}

// GenerateTryOn handles POST /generate/tryon.
func (h *HTTPHandler) GenerateTryOn(c *gin.Context) {
	avatar, ok := h.readImageFile(c, "avatar")
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		InvalidField(c, "clothes", "invalid multipart form")
		return
	}
	files := form.File["clothes"]
	if len(files) == 0 {
		MissingField(c, "clothes")
		return
	}
	garments := make([]provider.ImageInput, 0, len(files))
	for _, header := range files {
		input, readErr := readMultipartFile(header)
		if readErr != nil {
			InvalidField(c, "clothes", readErr.Error())
			return
		}
		garments = append(garments, input)
	}

	compose := parseBoolField(c.PostForm("compose"), entity.DefaultCompose)
	seed, ok := h.readSeed(c)
	if !ok {
		return
	}

	req := provider.TryOnRequest{
		Avatar:   avatar,
		Garments: garments,
		Compose:  compose,
		Seed:     seed,
	}

	started := time.Now()
	out, err := h.provider.GenerateTryOn(c.Request.Context(), req)
	latency := time.Since(started)
	if err != nil {
		h.recordFailure(c.Request.Context(), "tryon", latency, err)
		h.generationError(c, err)
		return
	}

	key := h.saveOutput(c.Request.Context(), storage.CategoryTryOn, out.ImageB64, "png")
	h.recordSuccess(c.Request.Context(), entity.DbGenerationRecord{
		Kind:         "tryon",
		ProviderID:   h.provider.Name(),
		ModelID:      out.Model,
		InputAssets:  entity.StringArray{"avatar", "clothes"},
		OutputAssets: assetList(key),
		LatencyMS:    float64(latency.Milliseconds()),
	})

	response := gin.H{
		"image_b64": out.ImageB64,
		"meta":      h.meta(out.Model, latency, out.Seed),
	}
	if out.CompositeB64 != "" {
		response["clothing_composite_b64"] = out.CompositeB64
	}
	c.JSON(http.StatusOK, response)
}

// GenerateVideoLoop handles POST /generate/videoloop.
func (h *HTTPHandler) GenerateVideoLoop(c *gin.Context) {
	image, ok := h.readImageFile(c, "image")
	if !ok {
		return
	}

	mode := strings.TrimSpace(c.PostForm("mode"))
	if mode == "" {
		mode = entity.DefaultVideoMode
	}
	seconds := entity.DefaultVideoSeconds
	if raw := strings.TrimSpace(c.PostForm("seconds")); raw != "" {
		parsed, parseErr := strconv.ParseFloat(raw, 64)
		if parseErr != nil {
			InvalidField(c, "seconds", "must be a number")
			return
		}
		if parsed < entity.MinVideoSeconds || parsed > entity.MaxVideoSeconds {
			InvalidField(c, "seconds", "must be between 4 and 8 seconds")
			return
		}
		seconds = parsed
	}
	seed, ok := h.readSeed(c)
	if !ok {
		return
	}

	req := provider.VideoLoopRequest{
		Image:   image,
		Mode:    mode,
		Seconds: seconds,
		Seed:    seed,
	}

	started := time.Now()
	out, err := h.provider.GenerateVideoLoop(c.Request.Context(), req)
	latency := time.Since(started)
	if err != nil {
		h.recordFailure(c.Request.Context(), "videoloop", latency, err)
		h.generationError(c, err)
		return
	}

	videoKey := h.saveOutput(c.Request.Context(), storage.CategoryVideo, out.VideoB64, "mp4")
	frameKey := h.saveOutput(c.Request.Context(), storage.CategoryVideo, out.FirstFrameB64, "png")
	h.recordSuccess(c.Request.Context(), entity.DbGenerationRecord{
		Kind:            "videoloop",
		ProviderID:      h.provider.Name(),
		ModelID:         out.Model,
		InputAssets:     entity.StringArray{"image"},
		OutputAssets:    assetList(videoKey, frameKey),
		Width:           out.Width,
		Height:          out.Height,
		DurationSeconds: out.DurationSeconds,
		LatencyMS:       float64(latency.Milliseconds()),
	})

	c.JSON(http.StatusOK, gin.H{
		"video_b64":        out.VideoB64,
		"first_frame_b64":  out.FirstFrameB64,
		"duration_seconds": out.DurationSeconds,
		"width":            out.Width,
		"height":           out.Height,
		"mode":             out.Mode,
		"meta":             h.meta(out.Model, latency, out.Seed),
	})
}

// generationError maps provider failures onto the detail envelope.
func (h *HTTPHandler) generationError(c *gin.Context, err error) {
	if errors.Is(err, provider.ErrUnsupported) {
		DetailError(c, http.StatusNotImplemented, err.Error())
		return
	}
	DetailError(c, http.StatusBadGateway, err.Error())
}

// readImageFile pulls one required multipart image and responds with a
// validation error when it is missing or unreadable.
func (h *HTTPHandler) readImageFile(c *gin.Context, field string) (provider.ImageInput, bool) {
	header, err := c.FormFile(field)
	if err != nil {
		MissingField(c, field)
		return provider.ImageInput{}, false
	}
	input, err := readMultipartFile(header)
	if err != nil {
		InvalidField(c, field, err.Error())
		return provider.ImageInput{}, false
	}
	return input, true
}

func readMultipartFile(header *multipart.FileHeader) (provider.ImageInput, error) {
	file, err := header.Open()
	if err != nil {
		return provider.ImageInput{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return provider.ImageInput{}, err
	}
	if len(data) == 0 {
		return provider.ImageInput{}, errors.New("file is empty")
	}

	mimeType := header.Header.Get("Content-Type")
	if strings.TrimSpace(mimeType) == "" {
		mimeType = http.DetectContentType(data)
	}
	return provider.ImageInput{Data: data, MimeType: mimeType}, nil
}

func (h *HTTPHandler) readSeed(c *gin.Context) (*int64, bool) {
	raw := strings.TrimSpace(c.PostForm("seed"))
	if raw == "" {
		return nil, true
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		InvalidField(c, "seed", "must be an integer")
		return nil, false
	}
	return &parsed, true
}

func parseBoolField(raw string, fallback bool) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.ToLower(trimmed))
	if err != nil {
		return fallback
	}
	return parsed
}

// saveOutput persists one generated payload to asset storage. Persistence is
// best-effort: the response already carries the payload inline.
func (h *HTTPHandler) saveOutput(ctx context.Context, category, payloadB64, ext string) string {
	if h.storage == nil || strings.TrimSpace(payloadB64) == "" {
		return ""
	}
	data, _, err := media.DecodePayload(payloadB64)
	if err != nil {
		logrus.WithError(err).WithField("category", category).Warn("failed to decode generated payload for storage")
		return ""
	}
	key, err := h.storage.Save(ctx, data, storage.SaveOptions{Category: category, Extension: ext})
	if err != nil {
		logrus.WithError(err).WithField("category", category).Warn("failed to persist generated output")
		return ""
	}
	return key
}

func assetList(keys ...string) entity.StringArray {
	assets := make(entity.StringArray, 0, len(keys))
	for _, key := range keys {
		if key != "" {
			assets = append(assets, key)
		}
	}
	return assets
}

func (h *HTTPHandler) recordSuccess(ctx context.Context, record entity.DbGenerationRecord) {
	if h.repo == nil {
		return
	}
	if err := h.repo.CreateGenerationRecord(ctx, &record); err != nil {
		logrus.WithError(err).WithField("kind", record.Kind).Warn("failed to store generation record")
	}
}

func (h *HTTPHandler) recordFailure(ctx context.Context, kind string, latency time.Duration, cause error) {
	if h.repo == nil {
		return
	}
	record := entity.DbGenerationRecord{
		Kind:         kind,
		ProviderID:   h.provider.Name(),
		LatencyMS:    float64(latency.Milliseconds()),
		ErrorMessage: cause.Error(),
	}
	if err := h.repo.CreateGenerationRecord(ctx, &record); err != nil {
		logrus.WithError(err).WithField("kind", kind).Warn("failed to store generation record")
	}
}
