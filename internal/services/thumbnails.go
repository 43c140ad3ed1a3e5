package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	apperrors "github.com/vidshelf/backend/internal/errors"
	"github.com/vidshelf/backend/pkg/logger"
)

const maxThumbnailBytes = 10 << 20

// ObjectStore is the part of storage.MinIOClient the mirror needs.
type ObjectStore interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	PublicURL(objectName string) string
}

// ThumbnailMirror copies provider thumbnails into object storage so they
// survive provider link rotation.
type ThumbnailMirror struct {
	Store      ObjectStore
	HTTPClient *http.Client
}

func NewThumbnailMirror(store ObjectStore) *ThumbnailMirror {
	return &ThumbnailMirror{
		Store:      store,
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
	}
}

// Mirror stores the image under thumbnails/<videoID><ext> and returns its
// public URL.
func (m *ThumbnailMirror) Mirror(ctx context.Context, videoID uint, sourceURL string) (string, error) {
	if m == nil || m.Store == nil {
		return "", apperrors.ErrNotConfigured
	}
	parsed, err := url.Parse(sourceURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", fmt.Errorf("%w: thumbnail url %q", apperrors.ErrInvalidInput, sourceURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := m.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: thumbnail download returned %d", apperrors.ErrUpstreamUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxThumbnailBytes+1))
	if err != nil {
		return "", err
	}
	if len(data) > maxThumbnailBytes {
		return "", fmt.Errorf("%w: thumbnail larger than %d bytes", apperrors.ErrInvalidInput, maxThumbnailBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	objectName := fmt.Sprintf("thumbnails/%d%s", videoID, thumbnailExt(parsed.Path, contentType))

	if err := m.Store.Upload(ctx, objectName, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", err
	}

	logger.Info("thumbnail_mirrored", map[string]interface{}{
		"video_id": videoID,
		"object":   objectName,
		"size":     len(data),
	})
	return m.Store.PublicURL(objectName), nil
}

func thumbnailExt(urlPath, contentType string) string {
	if ext := strings.ToLower(path.Ext(urlPath)); ext != "" && len(ext) <= 5 {
		return ext
	}
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ".jpg"
}
