package vto

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Prompt-Haus/OpenVTO/internal/entity"
	"github.com/Prompt-Haus/OpenVTO/internal/media"
)

func testBlob(t *testing.T, payload string) entity.MediaBlob {
	t.Helper()
	return entity.NewMediaBlob(base64.StdEncoding.EncodeToString([]byte(payload)), "image/png")
}

func newTestClient(t *testing.T, handler http.Handler) (*HTTPClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewHTTPClient(ClientConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
	}, media.NewCodec(t.TempDir()))
	return client, server
}

func TestRequestAvatarSuccess(t *testing.T) {
	var gotPath, gotAPIKey, gotBackground, gotKeepClothes string
	var fileFields []string

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("api-key")
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		gotBackground = r.FormValue("background")
		gotKeepClothes = r.FormValue("keep_clothes")
		for field := range r.MultipartForm.File {
			fileFields = append(fileFields, field)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"image_b64": base64.StdEncoding.EncodeToString([]byte("generated")),
			"width":     768,
			"height":    1024,
			"meta":      map[string]interface{}{"model": "test-model", "provider": "test", "latency_ms": 12.5},
		})
	}))

	result := client.RequestAvatar(context.Background(), testBlob(t, "selfie"), testBlob(t, "posture"), entity.AvatarParams{})
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if gotPath != "/generate/avatar" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotAPIKey != "test-key" {
		t.Fatalf("expected api-key header, got %q", gotAPIKey)
	}
	if gotBackground != "studio" {
		t.Fatalf("expected default background studio, got %q", gotBackground)
	}
	if gotKeepClothes != "false" {
		t.Fatalf("expected default keep_clothes false, got %q", gotKeepClothes)
	}
	for _, want := range []string{"selfie", "posture"} {
		found := false
		for _, field := range fileFields {
			if field == want {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected multipart file field %s, got %v", want, fileFields)
		}
	}
	if result.Image.IsEmpty() {
		t.Fatal("expected a generated image payload")
	}
	if result.Width != 768 || result.Height != 1024 {
		t.Fatalf("unexpected dimensions %dx%d", result.Width, result.Height)
	}
	if result.Meta == nil || result.Meta.Model != "test-model" {
		t.Fatalf("unexpected meta %+v", result.Meta)
	}
}

func TestRequestTryOnSendsRepeatedClothesField(t *testing.T) {
	var clothesCount int
	var gotCompose string

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		clothesCount = len(r.MultipartForm.File["clothes"])
		gotCompose = r.FormValue("compose")

		json.NewEncoder(w).Encode(map[string]interface{}{
			"image_b64": base64.StdEncoding.EncodeToString([]byte("composited")),
		})
	}))

	garments := []entity.MediaBlob{testBlob(t, "shirt"), testBlob(t, "trousers")}
	result := client.RequestTryOn(context.Background(), testBlob(t, "avatar"), garments, entity.TryOnParams{})
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if clothesCount != 2 {
		t.Fatalf("expected 2 clothes parts, got %d", clothesCount)
	}
	if gotCompose != "true" {
		t.Fatalf("expected default compose true, got %q", gotCompose)
	}
}

func TestRequestVideoLoopSendsDefaults(t *testing.T) {
	var gotMode, gotSeconds string

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		gotMode = r.FormValue("mode")
		gotSeconds = r.FormValue("seconds")

		json.NewEncoder(w).Encode(map[string]interface{}{
			"video_b64":        base64.StdEncoding.EncodeToString([]byte("video")),
			"first_frame_b64":  base64.StdEncoding.EncodeToString([]byte("frame")),
			"duration_seconds": 4.0,
			"mode":             "360",
		})
	}))

	result := client.RequestVideoLoop(context.Background(), testBlob(t, "image"), entity.VideoLoopParams{})
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if gotMode != "360" {
		t.Fatalf("expected default mode 360, got %q", gotMode)
	}
	if gotSeconds != "4" {
		t.Fatalf("expected default seconds 4, got %q", gotSeconds)
	}
	if result.Video.MimeType != "video/mp4" {
		t.Fatalf("expected video/mp4, got %s", result.Video.MimeType)
	}
	if result.FirstFrame.IsEmpty() {
		t.Fatal("expected a first frame payload")
	}
}

func TestRequestTryOnValidationSkipsNetwork(t *testing.T) {
	var calls int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	result := client.RequestTryOn(context.Background(), testBlob(t, "avatar"), nil, entity.TryOnParams{})
	if result.Success {
		t.Fatal("expected validation failure")
	}
	if !strings.Contains(result.Error, "at least one garment") {
		t.Fatalf("unexpected error %q", result.Error)
	}
	if calls != 0 {
		t.Fatalf("expected no network call, got %d", calls)
	}

	result = client.RequestAvatar(context.Background(), entity.MediaBlob{}, testBlob(t, "posture"), entity.AvatarParams{})
	if result.Success || !strings.Contains(result.Error, "selfie is empty") {
		t.Fatalf("unexpected result %+v", result)
	}
	if calls != 0 {
		t.Fatalf("expected no network call, got %d", calls)
	}
}

func TestRequestAvatarNormalizesErrorBody(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":[{"loc":["body","posture"],"msg":"field required","type":"missing"}]}`))
	}))

	result := client.RequestAvatar(context.Background(), testBlob(t, "selfie"), testBlob(t, "posture"), entity.AvatarParams{})
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error != "body.posture: field required" {
		t.Fatalf("unexpected normalized error %q", result.Error)
	}
}

func TestRequestAvatarRejectsEmptyImageResponse(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"image_b64": ""})
	}))

	result := client.RequestAvatar(context.Background(), testBlob(t, "selfie"), testBlob(t, "posture"), entity.AvatarParams{})
	if result.Success {
		t.Fatal("expected failure for empty image")
	}
	if !strings.Contains(result.Error, "did not include an image") {
		t.Fatalf("unexpected error %q", result.Error)
	}
}
