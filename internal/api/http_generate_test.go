package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Prompt-Haus/OpenVTO/internal/config"
	"github.com/Prompt-Haus/OpenVTO/internal/provider"
	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T, cfg config.Config) *gin.Engine {
	t.Helper()
	return newTestRouterWithProvider(t, cfg, provider.NewStubProvider(0))
}

func newTestRouterWithProvider(t *testing.T, cfg config.Config, p provider.Provider) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewHTTPHandler(cfg, nil, nil, p)

	r := gin.New()
	generate := r.Group("/generate")
	generate.Use(h.APIKeyMiddleware())
	generate.POST("/avatar", h.GenerateAvatar)
	generate.POST("/tryon", h.GenerateTryOn)
	generate.POST("/videoloop", h.GenerateVideoLoop)

	assets := r.Group("/assets")
	assets.GET("/clothes/categories", h.ListClothingCategories)
	assets.GET("/clothes/:category", h.ListClothingItems)
	assets.GET("/clothes/:category/:index/:view", h.GetClothingImage)
	assets.GET("/people/:id/:kind", h.GetPersonImage)
	assets.GET("/avatars/:id", h.GetAvatarImage)
	return r
}

type multipartRequest struct {
	files  map[string][]byte
	lists  map[string][][]byte
	fields map[string]string
}

func (m multipartRequest) build(t *testing.T, target string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for field, data := range m.files {
		part, err := writer.CreateFormFile(field, field+".png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	for field, items := range m.lists {
		for i, data := range items {
			part, err := writer.CreateFormFile(field, field+".png")
			if err != nil {
				t.Fatalf("create form file %d: %v", i, err)
			}
			if _, err := part.Write(data); err != nil {
				t.Fatalf("write form file %d: %v", i, err)
			}
		}
	}
	for field, value := range m.fields {
		if err := writer.WriteField(field, value); err != nil {
			t.Fatalf("write form field: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeJSON(t *testing.T, body *bytes.Buffer, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", body.String(), err)
	}
}

func TestGenerateAvatarSuccess(t *testing.T) {
	r := newTestRouter(t, config.Config{})
	selfie := []byte("selfie-bytes")

	req := multipartRequest{
		files: map[string][]byte{"selfie": selfie, "posture": []byte("posture-bytes")},
	}.build(t, "/generate/avatar")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ImageB64 string `json:"image_b64"`
		Meta     struct {
			Model    string `json:"model"`
			Provider string `json:"provider"`
		} `json:"meta"`
	}
	decodeJSON(t, rec.Body, &resp)
	if resp.ImageB64 != base64.StdEncoding.EncodeToString(selfie) {
		t.Fatal("expected the stub to echo the selfie")
	}
	if resp.Meta.Provider != "stub" || resp.Meta.Model != "stub-v1" {
		t.Fatalf("unexpected meta %+v", resp.Meta)
	}
}

func TestGenerateAvatarMissingPosture(t *testing.T) {
	r := newTestRouter(t, config.Config{})

	req := multipartRequest{
		files: map[string][]byte{"selfie": []byte("selfie-bytes")},
	}.build(t, "/generate/avatar")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Detail []struct {
			Loc  []interface{} `json:"loc"`
			Msg  string        `json:"msg"`
			Type string        `json:"type"`
		} `json:"detail"`
	}
	decodeJSON(t, rec.Body, &resp)
	if len(resp.Detail) != 1 {
		t.Fatalf("expected one validation entry, got %d", len(resp.Detail))
	}
	entry := resp.Detail[0]
	if len(entry.Loc) != 2 || entry.Loc[0] != "body" || entry.Loc[1] != "posture" {
		t.Fatalf("unexpected loc %v", entry.Loc)
	}
	if entry.Msg != "field required" || entry.Type != "missing" {
		t.Fatalf("unexpected entry %+v", entry)
	}
}

func TestGenerateTryOnRequiresClothes(t *testing.T) {
	r := newTestRouter(t, config.Config{})

	req := multipartRequest{
		files: map[string][]byte{"avatar": []byte("avatar-bytes")},
	}.build(t, "/generate/tryon")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGenerateTryOnComposite(t *testing.T) {
	r := newTestRouter(t, config.Config{})
	shirt := []byte("shirt-bytes")

	req := multipartRequest{
		files: map[string][]byte{"avatar": []byte("avatar-bytes")},
		lists: map[string][][]byte{"clothes": {shirt, []byte("trousers-bytes")}},
	}.build(t, "/generate/tryon")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ImageB64     string `json:"image_b64"`
		CompositeB64 string `json:"clothing_composite_b64"`
	}
	decodeJSON(t, rec.Body, &resp)
	if resp.ImageB64 == "" {
		t.Fatal("expected a try-on image")
	}
	if resp.CompositeB64 != base64.StdEncoding.EncodeToString(shirt) {
		t.Fatal("expected the composite to echo the first garment")
	}
}

func TestGenerateVideoLoopValidatesSeconds(t *testing.T) {
	r := newTestRouter(t, config.Config{})

	tests := []struct {
		seconds  string
		wantCode int
	}{
		{"-3", http.StatusUnprocessableEntity},
		{"3.9", http.StatusUnprocessableEntity},
		{"8.5", http.StatusUnprocessableEntity},
		{"abc", http.StatusUnprocessableEntity},
		{"4", http.StatusOK},
		{"8", http.StatusOK},
	}
	for _, tc := range tests {
		req := multipartRequest{
			files:  map[string][]byte{"image": []byte("frame-bytes")},
			fields: map[string]string{"seconds": tc.seconds},
		}.build(t, "/generate/videoloop")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != tc.wantCode {
			t.Fatalf("seconds=%q: expected %d, got %d: %s", tc.seconds, tc.wantCode, rec.Code, rec.Body.String())
		}
	}
}

type videoIncapableProvider struct {
	*provider.StubProvider
}

func (videoIncapableProvider) GenerateVideoLoop(ctx context.Context, req provider.VideoLoopRequest) (provider.VideoOutput, error) {
	return provider.VideoOutput{}, fmt.Errorf("%w: video loop", provider.ErrUnsupported)
}

func TestGenerateVideoLoopUnsupportedProvider(t *testing.T) {
	r := newTestRouterWithProvider(t, config.Config{}, videoIncapableProvider{provider.NewStubProvider(0)})

	req := multipartRequest{
		files: map[string][]byte{"image": []byte("frame-bytes")},
	}.build(t, "/generate/videoloop")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Detail string `json:"detail"`
	}
	decodeJSON(t, rec.Body, &resp)
	if !strings.Contains(resp.Detail, "not supported") {
		t.Fatalf("unexpected detail %q", resp.Detail)
	}
}

func TestGenerateVideoLoopDefaults(t *testing.T) {
	r := newTestRouter(t, config.Config{})

	req := multipartRequest{
		files: map[string][]byte{"image": []byte("frame-bytes")},
	}.build(t, "/generate/videoloop")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		VideoB64        string  `json:"video_b64"`
		FirstFrameB64   string  `json:"first_frame_b64"`
		DurationSeconds float64 `json:"duration_seconds"`
		Mode            string  `json:"mode"`
	}
	decodeJSON(t, rec.Body, &resp)
	if resp.VideoB64 == "" || resp.FirstFrameB64 == "" {
		t.Fatal("expected video and first frame payloads")
	}
	if resp.DurationSeconds != 4 {
		t.Fatalf("expected default duration 4, got %v", resp.DurationSeconds)
	}
	if resp.Mode != "360" {
		t.Fatalf("expected default mode 360, got %q", resp.Mode)
	}
}

func TestAPIKeyMiddleware(t *testing.T) {
	r := newTestRouter(t, config.Config{RelayAPIKey: "secret"})
	build := func() *http.Request {
		return multipartRequest{
			files: map[string][]byte{"selfie": []byte("a"), "posture": []byte("b")},
		}.build(t, "/generate/avatar")
	}

	// Missing key.
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, build())
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	var resp struct {
		Detail string `json:"detail"`
	}
	decodeJSON(t, rec.Body, &resp)
	if resp.Detail != "api key required" {
		t.Fatalf("unexpected detail %q", resp.Detail)
	}

	// Wrong key.
	req := build()
	req.Header.Set("api-key", "wrong")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	decodeJSON(t, rec.Body, &resp)
	if resp.Detail != "invalid api key" {
		t.Fatalf("unexpected detail %q", resp.Detail)
	}

	// Correct key.
	req = build()
	req.Header.Set("api-key", "secret")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAPIKeyMiddlewareDisabledWhenUnset(t *testing.T) {
	r := newTestRouter(t, config.Config{})

	req := multipartRequest{
		files: map[string][]byte{"selfie": []byte("a"), "posture": []byte("b")},
	}.build(t, "/generate/avatar")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected open access with empty key, got %d", rec.Code)
	}
}
