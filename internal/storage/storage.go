// Package storage uploads user media (avatars, voice clips) and hands
// back a URL clients can fetch it from.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// Blobs is what the chat and profile components need from object storage.
type Blobs interface {
	// Put uploads body under key.
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error

	// URL returns a retrieval URL for key that clients can fetch without
	// credentials.
	URL(ctx context.Context, key string) (string, error)
}

const VoiceContentType = "audio/webm"

// VoiceKey names a voice clip: voice/{uid}/{unixMillis}.webm.
func VoiceKey(uid string, at time.Time) string {
	return fmt.Sprintf("voice/%s/%d.webm", uid, at.UnixMilli())
}

// AvatarKey names a profile photo: avatars/{uid}/{unixMillis}-{filename}.
// The filename is reduced to its base name and stripped of characters
// that would change the key's shape.
func AvatarKey(uid string, at time.Time, filename string) string {
	return fmt.Sprintf("avatars/%s/%d-%s", uid, at.UnixMilli(), sanitizeFilename(filename))
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if out := strings.Trim(b.String(), "."); out != "" {
		return out
	}
	return "photo"
}
