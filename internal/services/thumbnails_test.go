package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/vidshelf/backend/internal/errors"
)

type memoryStore struct {
	objects      map[string][]byte
	contentTypes map[string]string
}

func (m *memoryStore) Upload(_ context.Context, objectName string, reader io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.objects[objectName] = data
	m.contentTypes[objectName] = contentType
	return nil
}

func (m *memoryStore) PublicURL(objectName string) string {
	return "https://cdn.example/bucket/" + objectName
}

func TestThumbnailMirror_Mirror(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	t.Cleanup(server.Close)

	store := &memoryStore{objects: map[string][]byte{}, contentTypes: map[string]string{}}
	mirror := NewThumbnailMirror(store)
	ctx := context.Background()

	url, err := mirror.Mirror(ctx, 42, server.URL+"/thumb")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/bucket/thumbnails/42.png", url)
	assert.Equal(t, []byte("png-bytes"), store.objects["thumbnails/42.png"])
	assert.Equal(t, "image/png", store.contentTypes["thumbnails/42.png"])

	_, err = mirror.Mirror(ctx, 43, server.URL+"/missing.jpg")
	assert.ErrorIs(t, err, apperrors.ErrUpstreamUnavailable)

	_, err = mirror.Mirror(ctx, 44, "file:///etc/passwd")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	var disabled *ThumbnailMirror
	_, err = disabled.Mirror(ctx, 45, server.URL+"/thumb")
	assert.ErrorIs(t, err, apperrors.ErrNotConfigured)
}

func TestThumbnailExt(t *testing.T) {
	assert.Equal(t, ".webp", thumbnailExt("/a/b.WEBP", ""))
	assert.Equal(t, ".gif", thumbnailExt("/a/b", "image/gif"))
	assert.Equal(t, ".jpg", thumbnailExt("/a/b", "application/octet-stream"))
}
