package vto

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Prompt-Haus/OpenVTO/internal/entity"
)

// ClothingListing describes one remote catalog category: which item indices
// exist and which views each item offers.
type ClothingListing struct {
	Category string   `json:"category"`
	Indices  []int    `json:"indices"`
	Views    []string `json:"views"`
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
}

// ListClothingCategories returns the remote clothing catalog categories.
func (c *HTTPClient) ListClothingCategories(ctx context.Context) ([]string, error) {
	var decoded categoriesResponse
	if err := c.getJSON(ctx, "/assets/clothes/categories", &decoded); err != nil {
		return nil, err
	}
	return decoded.Categories, nil
}

// ListClothingItems returns the item indices and views of one catalog category.
func (c *HTTPClient) ListClothingItems(ctx context.Context, category string) (ClothingListing, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return ClothingListing{}, fmt.Errorf("%w: category is required", ErrInvalidRequest)
	}
	var decoded ClothingListing
	if err := c.getJSON(ctx, "/assets/clothes/"+url.PathEscape(category), &decoded); err != nil {
		return ClothingListing{}, err
	}
	return decoded, nil
}

// FetchClothingImage downloads one catalog garment image.
func (c *HTTPClient) FetchClothingImage(ctx context.Context, category string, index int, view string) (entity.MediaBlob, error) {
	category = strings.TrimSpace(category)
	view = strings.TrimSpace(view)
	if category == "" || view == "" {
		return entity.MediaBlob{}, fmt.Errorf("%w: category and view are required", ErrInvalidRequest)
	}
	path := "/assets/clothes/" + url.PathEscape(category) + "/" + strconv.Itoa(index) + "/" + url.PathEscape(view)
	return c.getImage(ctx, path)
}

// FetchPersonImage downloads a stored person photo, kind "selfie" or "posture".
func (c *HTTPClient) FetchPersonImage(ctx context.Context, personID, kind string) (entity.MediaBlob, error) {
	personID = strings.TrimSpace(personID)
	kind = strings.TrimSpace(kind)
	if personID == "" || kind == "" {
		return entity.MediaBlob{}, fmt.Errorf("%w: person id and kind are required", ErrInvalidRequest)
	}
	return c.getImage(ctx, "/assets/people/"+url.PathEscape(personID)+"/"+url.PathEscape(kind))
}

// FetchAvatarImage downloads a stored avatar image.
func (c *HTTPClient) FetchAvatarImage(ctx context.Context, avatarID string) (entity.MediaBlob, error) {
	avatarID = strings.TrimSpace(avatarID)
	if avatarID == "" {
		return entity.MediaBlob{}, fmt.Errorf("%w: avatar id is required", ErrInvalidRequest)
	}
	return c.getImage(ctx, "/assets/avatars/"+url.PathEscape(avatarID))
}

func (c *HTTPClient) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.baseURL()+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if key := strings.TrimSpace(c.cfg.APIKey); key != "" {
		req.Header.Set(apiKeyHeader, key)
	}
	return c.httpClient.Do(req)
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, out interface{}) error {
	resp, err := c.get(ctx, path)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response of %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s", path, normalizeErrorBody(resp.StatusCode, http.StatusText(resp.StatusCode), raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response of %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) getImage(ctx context.Context, path string) (entity.MediaBlob, error) {
	resp, err := c.get(ctx, path)
	if err != nil {
		return entity.MediaBlob{}, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return entity.MediaBlob{}, fmt.Errorf("read response of %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return entity.MediaBlob{}, fmt.Errorf("%s: %s", path, normalizeErrorBody(resp.StatusCode, http.StatusText(resp.StatusCode), raw))
	}
	if len(raw) == 0 {
		return entity.MediaBlob{}, fmt.Errorf("%s returned no bytes", path)
	}

	mimeType := strings.TrimSpace(resp.Header.Get("Content-Type"))
	if mimeType == "" {
		mimeType = http.DetectContentType(raw)
	}
	return entity.NewMediaBlob(base64.StdEncoding.EncodeToString(raw), mimeType), nil
}
