package api

import (
	"fmt"
	"strings"

	"github.com/Prompt-Haus/OpenVTO/internal/config"
	"github.com/Prompt-Haus/OpenVTO/internal/model"
	"github.com/Prompt-Haus/OpenVTO/internal/provider"
	"github.com/Prompt-Haus/OpenVTO/internal/storage"
)

// HTTPHandler serves the relay surface: generation endpoints, the example
// asset catalog, and generation-record listings.
type HTTPHandler struct {
	cfg               config.Config
	repo              model.Repository
	storage           storage.Storage
	provider          provider.Provider
	storagePublicBase string
	assetsDir         string
}

// NewHTTPHandler creates the relay handler.
func NewHTTPHandler(cfg config.Config, repo model.Repository, store storage.Storage, prov provider.Provider) *HTTPHandler {
	return &HTTPHandler{
		cfg:               cfg,
		repo:              repo,
		storage:           store,
		provider:          prov,
		storagePublicBase: normalisePublicBase(cfg.StoragePublicBaseURL),
		assetsDir:         strings.TrimSpace(cfg.AssetsDir),
	}
}

func normalisePublicBase(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		trimmed = "/files"
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return strings.TrimRight(trimmed, "/")
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	return strings.TrimRight(trimmed, "/")
}

func (h *HTTPHandler) publicURL(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}
	base := h.storagePublicBase
	if base == "" {
		base = "/files"
	}
	return fmt.Sprintf("%s/%s", strings.TrimRight(base, "/"), strings.TrimLeft(trimmed, "/"))
}
