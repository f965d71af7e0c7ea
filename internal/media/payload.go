package media

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"strings"
)

// EnsureDataURL wraps a bare base64 payload into a data URL, leaving existing
// data URLs untouched.
func EnsureDataURL(value string) string {
	if strings.HasPrefix(value, "data:") {
		return value
	}
	return "data:image/jpeg;base64," + value
}

// SplitDataURL splits a data URL into MIME type and base64 payload. Bare
// payloads are treated as image/jpeg.
func SplitDataURL(value string) (string, string) {
	if !strings.HasPrefix(value, "data:") {
		return "image/jpeg", value
	}

	value = strings.TrimPrefix(value, "data:")
	parts := strings.SplitN(value, ";base64,", 2)
	if len(parts) != 2 {
		return "image/jpeg", ""
	}
	return parts[0], parts[1]
}

// DecodePayload decodes an inline base64 or data URL payload and returns the
// raw bytes together with the resolved MIME type.
func DecodePayload(payload string) ([]byte, string, error) {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return nil, "", fmt.Errorf("%w: empty media payload", ErrEmptyPayload)
	}

	mimeType, base64Payload := SplitDataURL(trimmed)
	base64Payload = strings.TrimSpace(base64Payload)
	if base64Payload == "" {
		return nil, "", fmt.Errorf("%w: empty base64 payload", ErrEmptyPayload)
	}

	data, err := base64.StdEncoding.DecodeString(base64Payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode base64: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: decoded payload is empty", ErrEmptyPayload)
	}

	if strings.TrimSpace(mimeType) == "" {
		mimeType = http.DetectContentType(data)
	}

	return data, mimeType, nil
}

// ExtensionFromMime maps a MIME type to a file extension without the leading
// dot, returning "" when the type is unknown.
func ExtensionFromMime(mimeType string) string {
	if mimeType == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = parsed
	}

	switch strings.ToLower(mimeType) {
	case "image/png":
		return "png"
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	case "image/bmp":
		return "bmp"
	case "image/heic":
		return "heic"
	case "image/heif":
		return "heif"
	case "video/mp4":
		return "mp4"
	case "video/webm":
		return "webm"
	case "video/quicktime":
		return "mov"
	default:
		return ""
	}
}

// MimeFromExtension is the inverse mapping, defaulting to image/jpeg.
func MimeFromExtension(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), ".")) {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	case "gif":
		return "image/gif"
	case "mp4":
		return "video/mp4"
	case "webm":
		return "video/webm"
	case "mov":
		return "video/quicktime"
	default:
		return "image/jpeg"
	}
}
