package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Prompt-Haus/OpenVTO/internal/config"
)

// seedAssetDir lays out the example catalog structure under a temp dir.
func seedAssetDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string][]byte{
		"clothes/tops/0_front.png":     []byte("top-0-front"),
		"clothes/tops/0_back.png":      []byte("top-0-back"),
		"clothes/tops/1_front.jpg":     []byte("top-1-front"),
		"clothes/trousers/0_front.png": []byte("trousers-0-front"),
		"people/alice_selfie.jpg":      []byte("alice-selfie"),
		"avatars/alice.png":            []byte("alice-avatar"),
	}
	for rel, data := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}
	return dir
}

func TestListClothingCategories(t *testing.T) {
	r := newTestRouter(t, config.Config{AssetsDir: seedAssetDir(t)})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/clothes/categories", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Categories []string `json:"categories"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !reflect.DeepEqual(resp.Categories, []string{"tops", "trousers"}) {
		t.Fatalf("unexpected categories %v", resp.Categories)
	}
}

func TestListClothingCategoriesMissingDir(t *testing.T) {
	r := newTestRouter(t, config.Config{AssetsDir: filepath.Join(t.TempDir(), "nope")})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/clothes/categories", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with empty list, got %d", rec.Code)
	}
	var resp struct {
		Categories []string `json:"categories"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Categories) != 0 {
		t.Fatalf("expected no categories, got %v", resp.Categories)
	}
}

func TestListClothingItems(t *testing.T) {
	r := newTestRouter(t, config.Config{AssetsDir: seedAssetDir(t)})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/clothes/tops", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Category string   `json:"category"`
		Indices  []int    `json:"indices"`
		Views    []string `json:"views"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Category != "tops" {
		t.Fatalf("unexpected category %q", resp.Category)
	}
	if !reflect.DeepEqual(resp.Indices, []int{0, 1}) {
		t.Fatalf("unexpected indices %v", resp.Indices)
	}
	if !reflect.DeepEqual(resp.Views, []string{"back", "front"}) {
		t.Fatalf("unexpected views %v", resp.Views)
	}
}

func TestListClothingItemsUnknownCategory(t *testing.T) {
	r := newTestRouter(t, config.Config{AssetsDir: seedAssetDir(t)})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/clothes/hats", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetClothingImage(t *testing.T) {
	r := newTestRouter(t, config.Config{AssetsDir: seedAssetDir(t)})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/clothes/tops/1/front", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "top-1-front" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/clothes/tops/9/front", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown index, got %d", rec.Code)
	}
}

func TestGetPersonAndAvatarImages(t *testing.T) {
	r := newTestRouter(t, config.Config{AssetsDir: seedAssetDir(t)})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/people/alice/selfie", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "alice-selfie" {
		t.Fatalf("unexpected person response %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/avatars/alice", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "alice-avatar" {
		t.Fatalf("unexpected avatar response %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/avatars/bob", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown avatar, got %d", rec.Code)
	}
}

func TestAssetPathTraversalRejected(t *testing.T) {
	r := newTestRouter(t, config.Config{AssetsDir: seedAssetDir(t)})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/avatars/..", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for traversal attempt, got %d", rec.Code)
	}
}
