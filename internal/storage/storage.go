package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Prompt-Haus/OpenVTO/internal/config"
)

const (
	TypeLocal = "local"
	TypeS3    = "s3"
	TypeOSS   = "oss"
	TypeCOS   = "cos"
	TypeR2    = "r2"
)

// Object categories used by the relay when persisting generation artifacts.
const (
	CategorySelfies = "selfies"
	CategoryAvatars = "avatars"
	CategoryTryOn   = "tryon"
	CategoryVideo   = "video"
)

// SaveOptions controls how a backend persists a payload.
//
// Category organizes objects on disk or in the bucket, Extension hints the
// preferred file extension without the leading dot. BaseName, when set,
// replaces the timestamp-derived file base.
type SaveOptions struct {
	Category     string
	Extension    string
	BaseName     string
	SkipIfExists bool
}

// Storage persists binary payloads and returns a backend-specific key (for
// local storage, a relative path servable over HTTP).
type Storage interface {
	Save(ctx context.Context, data []byte, opts SaveOptions) (string, error)
}

// LocalBaseDirProvider is implemented by backends that expose a local
// directory servable directly by the relay.
type LocalBaseDirProvider interface {
	LocalBaseDir() string
}

// NewStorage instantiates the backend selected by configuration.
func NewStorage(cfg config.Config) (Storage, error) {
	typeName := strings.ToLower(strings.TrimSpace(cfg.StorageType))
	switch typeName {
	case "", TypeLocal:
		return NewLocalStorage(cfg.StorageLocalDir)
	case TypeS3:
		return NewS3Storage(cfg)
	case TypeOSS:
		return NewOSSStorage(cfg)
	case TypeCOS:
		return NewCOSStorage(cfg)
	case TypeR2:
		return NewR2Storage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
	}
}
