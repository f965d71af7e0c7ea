package storage

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestBuildObjectPath(t *testing.T) {
	now := time.Now().UTC()
	datedir := fmt.Sprintf("%04d/%02d/%02d", now.Year(), now.Month(), now.Day())

	key := buildObjectPath(CategoryVideo, "loop result", "mp4")
	if !strings.HasPrefix(key, "video/"+datedir+"/") {
		t.Fatalf("expected dated video key, got %s", key)
	}
	if !strings.HasSuffix(key, "/loop-result.mp4") {
		t.Fatalf("expected sanitized base name, got %s", key)
	}

	key = buildObjectPath("../Avatars!", "", "")
	if !strings.HasPrefix(key, "avatars/") {
		t.Fatalf("expected sanitized category, got %s", key)
	}
	if !strings.HasSuffix(key, ".bin") {
		t.Fatalf("expected .bin fallback extension, got %s", key)
	}
}

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{"mp4", "video/mp4"},
		{".mp4", "video/mp4"},
		{"png", "image/png"},
		{"jpg", "image/jpeg"},
		{"", "application/octet-stream"},
		{"zzz", "application/octet-stream"},
	}
	for _, tc := range tests {
		if got := detectContentType(tc.ext); got != tc.want {
			t.Fatalf("detectContentType(%q) = %q, want %q", tc.ext, got, tc.want)
		}
	}
}

func TestJoinPrefix(t *testing.T) {
	tests := []struct {
		prefix string
		key    string
		want   string
	}{
		{"", "video/a.mp4", "video/a.mp4"},
		{"/relay/", "video/a.mp4", "relay/video/a.mp4"},
		{"relay", "/video/a.mp4", "relay/video/a.mp4"},
	}
	for _, tc := range tests {
		if got := joinPrefix(tc.prefix, tc.key); got != tc.want {
			t.Fatalf("joinPrefix(%q, %q) = %q, want %q", tc.prefix, tc.key, got, tc.want)
		}
	}
}
