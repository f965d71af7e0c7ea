package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Prompt-Haus/OpenVTO/internal/entity"
	"github.com/sirupsen/logrus"
)

var (
	// ErrUnreadableSource marks a locator whose bytes could not be obtained.
	ErrUnreadableSource = errors.New("media: unreadable source")
	// ErrEmptyPayload marks an encode that produced no bytes.
	ErrEmptyPayload = errors.New("media: empty payload")
	// ErrMaterializeFailed marks a scratch-file write that could not be verified.
	ErrMaterializeFailed = errors.New("media: materialize failed")
)

// Codec converts between locally addressable media (file paths, remote URLs,
// inline payloads) and the transport encoding used by the generation service.
type Codec struct {
	scratchDir string
	httpClient *http.Client
}

// NewCodec creates a codec that materializes files under scratchDir.
func NewCodec(scratchDir string) *Codec {
	scratchDir = strings.TrimSpace(scratchDir)
	if scratchDir == "" {
		scratchDir = filepath.Join(os.TempDir(), "openvto")
	}
	return &Codec{
		scratchDir: scratchDir,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Encode converts a locator into a MediaBlob. Accepted locators:
//   - data URLs and bare base64 payloads (passed through, prefix stripped)
//   - local file paths
//   - http(s) URLs, fetched through a temporary file that is always removed
func (c *Codec) Encode(ctx context.Context, locator string) (entity.MediaBlob, error) {
	trimmed := strings.TrimSpace(locator)
	if trimmed == "" {
		return entity.MediaBlob{}, fmt.Errorf("%w: empty locator", ErrUnreadableSource)
	}

	if strings.HasPrefix(trimmed, "data:") {
		mimeType, payload := SplitDataURL(trimmed)
		payload = strings.TrimSpace(payload)
		if payload == "" {
			return entity.MediaBlob{}, fmt.Errorf("%w: data url has no payload", ErrEmptyPayload)
		}
		return entity.NewMediaBlob(payload, mimeType), nil
	}

	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return c.encodeRemote(ctx, trimmed)
	}

	if info, err := os.Stat(trimmed); err == nil && !info.IsDir() {
		data, err := os.ReadFile(trimmed)
		if err != nil {
			return entity.MediaBlob{}, fmt.Errorf("%w: %s: %v", ErrUnreadableSource, trimmed, err)
		}
		return encodeBytes(data, trimmed)
	}

	// Not a file on disk: treat as an already-encoded bare payload.
	if _, err := base64.StdEncoding.DecodeString(trimmed); err != nil {
		return entity.MediaBlob{}, fmt.Errorf("%w: %s", ErrUnreadableSource, trimmed)
	}
	return entity.NewMediaBlob(trimmed, "image/jpeg"), nil
}

// encodeRemote downloads the URL into a scratch file, encodes it, and removes
// the download no matter how the call ends.
func (c *Codec) encodeRemote(ctx context.Context, url string) (entity.MediaBlob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return entity.MediaBlob{}, fmt.Errorf("%w: create request: %v", ErrUnreadableSource, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return entity.MediaBlob{}, fmt.Errorf("%w: download %s: %v", ErrUnreadableSource, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return entity.MediaBlob{}, fmt.Errorf("%w: download %s: http %d", ErrUnreadableSource, url, resp.StatusCode)
	}

	if err := os.MkdirAll(c.scratchDir, 0o755); err != nil {
		return entity.MediaBlob{}, fmt.Errorf("%w: create scratch dir: %v", ErrUnreadableSource, err)
	}

	tmp, err := os.CreateTemp(c.scratchDir, "download-*")
	if err != nil {
		return entity.MediaBlob{}, fmt.Errorf("%w: create temp file: %v", ErrUnreadableSource, err)
	}
	defer func() {
		tmp.Close()
		if removeErr := os.Remove(tmp.Name()); removeErr != nil && !os.IsNotExist(removeErr) {
			logrus.WithError(removeErr).WithField("path", tmp.Name()).Warn("failed to remove temp download")
		}
	}()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		return entity.MediaBlob{}, fmt.Errorf("%w: read body of %s: %v", ErrUnreadableSource, url, err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return entity.MediaBlob{}, fmt.Errorf("%w: rewind temp file: %v", ErrUnreadableSource, err)
	}
	data, err := io.ReadAll(tmp)
	if err != nil {
		return entity.MediaBlob{}, fmt.Errorf("%w: read temp file: %v", ErrUnreadableSource, err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if strings.TrimSpace(mimeType) == "" && len(data) > 0 {
		mimeType = http.DetectContentType(data)
	}
	if len(data) == 0 {
		return entity.MediaBlob{}, fmt.Errorf("%w: %s returned no bytes", ErrEmptyPayload, url)
	}
	return entity.NewMediaBlob(base64.StdEncoding.EncodeToString(data), mimeType), nil
}

func encodeBytes(data []byte, source string) (entity.MediaBlob, error) {
	if len(data) == 0 {
		return entity.MediaBlob{}, fmt.Errorf("%w: %s is empty", ErrEmptyPayload, source)
	}
	return entity.NewMediaBlob(base64.StdEncoding.EncodeToString(data), http.DetectContentType(data)), nil
}

// Materialize writes the decoded payload to a fresh scratch file and returns
// the file path, for upload APIs that need file-like inputs. The path is unique
// per call so concurrent pipelines sharing a scratch dir never alias each
// other's files. The write is verified before the path is returned.
func (c *Codec) Materialize(blob entity.MediaBlob, suggestedName string) (string, error) {
	data, mimeType, err := DecodePayload(blob.Data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMaterializeFailed, err)
	}
	if strings.TrimSpace(blob.MimeType) != "" {
		mimeType = blob.MimeType
	}

	if err := os.MkdirAll(c.scratchDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create scratch dir: %v", ErrMaterializeFailed, err)
	}

	name := sanitizeFileName(suggestedName)
	if name == "" {
		name = "blob"
	}
	ext := filepath.Ext(name)
	if ext == "" {
		if fromMime := ExtensionFromMime(mimeType); fromMime != "" {
			ext = "." + fromMime
		}
	} else {
		name = strings.TrimSuffix(name, ext)
	}

	tmp, err := os.CreateTemp(c.scratchDir, name+"-*"+ext)
	if err != nil {
		return "", fmt.Errorf("%w: create scratch file: %v", ErrMaterializeFailed, err)
	}
	path := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(path)
		return "", fmt.Errorf("%w: write %s: %v", ErrMaterializeFailed, path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("%w: close %s: %v", ErrMaterializeFailed, path, err)
	}

	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return "", fmt.Errorf("%w: %s missing or empty after write", ErrMaterializeFailed, path)
	}

	return path, nil
}

// DisplayLocator produces a locator usable directly for in-app display,
// without a filesystem round-trip.
func DisplayLocator(blob entity.MediaBlob) string {
	if blob.IsEmpty() {
		return ""
	}
	mimeType := strings.TrimSpace(blob.MimeType)
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return "data:" + mimeType + ";base64," + blob.Data
}

func sanitizeFileName(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	builder := strings.Builder{}
	builder.Grow(len(value))
	for i := 0; i < len(value); i++ {
		ch := value[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9', ch == '-', ch == '_', ch == '.':
			builder.WriteByte(ch)
		case ch >= 'A' && ch <= 'Z':
			builder.WriteByte(ch + ('a' - 'A'))
		default:
			builder.WriteByte('_')
		}
	}
	return strings.Trim(builder.String(), "._")
}
