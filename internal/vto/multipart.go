package vto

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

// UploadPart is a typed multipart file attachment: field name, filename, MIME
// type, and a byte source on disk. Parts are validated at construction so a
// malformed attachment fails before any bytes go on the wire.
type UploadPart struct {
	field    string
	filename string
	mimeType string
	path     string
}

// NewFilePart builds a part backed by a file on disk. The file must exist and
// be non-empty.
func NewFilePart(field, path, mimeType string) (UploadPart, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return UploadPart{}, errors.New("upload part: field name is required")
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return UploadPart{}, fmt.Errorf("upload part %q: file path is required", field)
	}
	info, err := os.Stat(path)
	if err != nil {
		return UploadPart{}, fmt.Errorf("upload part %q: %w", field, err)
	}
	if info.IsDir() || info.Size() == 0 {
		return UploadPart{}, fmt.Errorf("upload part %q: %s is not a readable file", field, path)
	}
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return UploadPart{
		field:    field,
		filename: filepath.Base(path),
		mimeType: mimeType,
		path:     path,
	}, nil
}

func quoteEscape(s string) string {
	return strings.NewReplacer("\\", "\\\\", `"`, "\\\"").Replace(s)
}

// encodeMultipart writes parts and scalar fields into a multipart body and
// returns the body together with its content type.
func encodeMultipart(parts []UploadPart, fields map[string]string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, part := range parts {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscape(part.field), quoteEscape(part.filename)))
		header.Set("Content-Type", part.mimeType)

		dst, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("create part %q: %w", part.field, err)
		}
		src, err := os.Open(part.path)
		if err != nil {
			return nil, "", fmt.Errorf("open part %q: %w", part.field, err)
		}
		_, err = io.Copy(dst, src)
		src.Close()
		if err != nil {
			return nil, "", fmt.Errorf("copy part %q: %w", part.field, err)
		}
	}

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("write field %q: %w", name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return body, writer.FormDataContentType(), nil
}
