package filehost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	apperrors "github.com/vidshelf/backend/internal/errors"
	"github.com/vidshelf/backend/pkg/logger"
)

const (
	DefaultBaseURL  = "https://api.luxsioab.com/pub/api"
	DefaultPageSize = 100

	// maxPages bounds a drain when the provider keeps reporting more pages.
	maxPages = 10000
)

// dirIDKeys are the field names the provider has used for a file's directory.
var dirIDKeys = []string{
	"dir_id", "dirId", "dirID", "directory_id", "dir_code",
	"dirCode", "dir_id_str", "dirIdStr", "parent_dir_id", "parentId",
}

type Credentials struct {
	BaseURL string
	APIKey  string
}

// CredentialSource is consulted on every call so key changes made through
// settings apply without a restart.
type CredentialSource interface {
	FileHostCredentials(ctx context.Context) (Credentials, error)
}

type StaticCredentials Credentials

func (s StaticCredentials) FileHostCredentials(context.Context) (Credentials, error) {
	return Credentials(s), nil
}

// Client talks to the remote file host. Every endpoint is a JSON POST that
// answers with a {code, msg, data} envelope.
type Client struct {
	Credentials CredentialSource
	HTTPClient  *http.Client
	PageSize    int
}

func NewClient(creds CredentialSource, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		Credentials: creds,
		HTTPClient:  &http.Client{Timeout: timeout},
		PageSize:    DefaultPageSize,
	}
}

// APIError is returned for HTTP failures and non-200 envelope codes.
type APIError struct {
	Status  int
	Code    int64
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("filehost: status %d code %d: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return apperrors.ErrUpstreamUnavailable
}

func (c *Client) post(ctx context.Context, path string, payload map[string]interface{}) (gjson.Result, error) {
	creds, err := c.Credentials.FileHostCredentials(ctx)
	if err != nil {
		return gjson.Result{}, err
	}
	if strings.TrimSpace(creds.APIKey) == "" {
		return gjson.Result{}, fmt.Errorf("%w: file host api key is empty", apperrors.ErrNotConfigured)
	}
	baseURL := strings.TrimRight(creds.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	body := map[string]interface{}{"key": creds.APIKey}
	for k, v := range payload {
		body[k] = v
	}
	data, err := json.Marshal(body)
	if err != nil {
		return gjson.Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+path, bytes.NewReader(data))
	if err != nil {
		return gjson.Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		logger.Error("filehost_request_failed", err, map[string]interface{}{"path": path})
		return gjson.Result{}, fmt.Errorf("%w: %s: %v", apperrors.ErrUpstreamUnavailable, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: reading %s response: %v", apperrors.ErrUpstreamUnavailable, path, err)
	}

	if resp.StatusCode >= 400 {
		msg := gjson.GetBytes(raw, "msg").String()
		if msg == "" {
			msg = gjson.GetBytes(raw, "error").String()
		}
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return gjson.Result{}, &APIError{Status: resp.StatusCode, Message: msg}
	}

	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, &APIError{Status: resp.StatusCode, Message: "malformed response body"}
	}

	envelope := gjson.ParseBytes(raw)
	if code := envelope.Get("code"); code.Exists() && code.Int() != 200 {
		msg := envelope.Get("msg").String()
		if msg == "" {
			msg = "request rejected"
		}
		return gjson.Result{}, &APIError{Status: resp.StatusCode, Code: code.Int(), Message: msg}
	}

	return envelope.Get("data"), nil
}

// ListFiles drains the whole paginated listing.
func (c *Client) ListFiles(ctx context.Context) ([]File, error) {
	return c.drain(ctx, nil)
}

// ListDirectory drains the listing scoped to one directory.
func (c *Client) ListDirectory(ctx context.Context, dirID string) ([]File, error) {
	if strings.TrimSpace(dirID) == "" {
		return nil, fmt.Errorf("%w: directory id is required", apperrors.ErrInvalidInput)
	}
	return c.drain(ctx, map[string]interface{}{"dir_id": dirID})
}

func (c *Client) drain(ctx context.Context, scope map[string]interface{}) ([]File, error) {
	pageSize := c.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var all []File
	for pageNum := 1; pageNum <= maxPages; pageNum++ {
		payload := map[string]interface{}{
			"page_num":  pageNum,
			"page_size": pageSize,
		}
		for k, v := range scope {
			payload[k] = v
		}

		data, err := c.post(ctx, "/file/page", payload)
		if err != nil {
			return nil, err
		}

		p := parsePage(data, pageSize)
		if len(p.files) == 0 {
			break
		}
		all = append(all, p.files...)

		if pageNum >= p.totalPages || len(p.files) < pageSize {
			break
		}
	}

	logger.Info("filehost_listing_drained", map[string]interface{}{
		"files":  len(all),
		"scoped": scope != nil,
	})
	return all, nil
}

func parsePage(data gjson.Result, pageSize int) page {
	var p page
	data.Get("files").ForEach(func(_, value gjson.Result) bool {
		p.files = append(p.files, parseFile(value))
		return true
	})

	p.totalElements = int(data.Get("total_elements").Int())
	if p.totalElements == 0 {
		p.totalElements = int(data.Get("total").Int())
	}
	p.totalPages = int(data.Get("total_pages").Int())
	if p.totalPages == 0 && pageSize > 0 {
		p.totalPages = (p.totalElements + pageSize - 1) / pageSize
	}
	return p
}

func parseFile(value gjson.Result) File {
	f := File{
		Code:      strings.TrimSpace(value.Get("code").String()),
		Name:      value.Get("name").String(),
		Title:     value.Get("title").String(),
		ShareLink: value.Get("share_link").String(),
		EmbedLink: value.Get("embed_link").String(),
		Thumbnail: value.Get("thumbnail").String(),
	}
	for _, key := range dirIDKeys {
		v := value.Get(key)
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		if s := strings.TrimSpace(v.String()); s != "" {
			f.DirID = s
			break
		}
	}
	return f
}

func (c *Client) CreateUploadTask(ctx context.Context, name, dirID string) (UploadTask, error) {
	payload := map[string]interface{}{"name": name, "dir_id": nil}
	if dirID != "" {
		payload["dir_id"] = dirID
	}

	data, err := c.post(ctx, "/local/upload", payload)
	if err != nil {
		return UploadTask{}, err
	}

	task := UploadTask{
		ID:     data.Get("id").String(),
		URL:    data.Get("url").String(),
		Header: map[string]string{},
	}
	data.Get("header").ForEach(func(key, value gjson.Result) bool {
		task.Header[key.String()] = value.String()
		return true
	})
	if task.ID == "" || task.URL == "" {
		return UploadTask{}, &APIError{Status: http.StatusOK, Code: 200, Message: "upload task missing id or url"}
	}
	return task, nil
}

func (c *Client) ConfirmUpload(ctx context.Context, taskID string, ok bool) (UploadResult, error) {
	data, err := c.post(ctx, "/local/upload/callback", map[string]interface{}{
		"id":     taskID,
		"result": ok,
	})
	if err != nil {
		return UploadResult{}, err
	}

	result := UploadResult{
		FileName:     data.Get("file_name").String(),
		ThumbnailURL: data.Get("thumbnail_url").String(),
		ShareLink:    data.Get("file_share_link").String(),
		EmbedLink:    data.Get("file_embed_link").String(),
		DirShareLink: data.Get("dir_share_link").String(),
	}
	data.Get("screenshots").ForEach(func(_, value gjson.Result) bool {
		result.Screenshots = append(result.Screenshots, value.String())
		return true
	})
	return result, nil
}

func (c *Client) CreateFolder(ctx context.Context, name, parentDirID string) (string, error) {
	payload := map[string]interface{}{"name": name, "parent_id": nil}
	if parentDirID != "" {
		payload["parent_id"] = parentDirID
	}

	data, err := c.post(ctx, "/directory/create", payload)
	if err != nil {
		return "", err
	}

	dirID := strings.TrimSpace(data.Get("dir_id").String())
	if dirID == "" {
		return "", &APIError{Status: http.StatusOK, Code: 200, Message: "folder created without dir_id"}
	}
	return dirID, nil
}

func (c *Client) RemoteUpload(ctx context.Context, name, sourceURL, dirID string) (RemoteUploadTask, error) {
	payload := map[string]interface{}{"name": name, "url": sourceURL}
	if dirID != "" {
		payload["dir_id"] = dirID
	}

	data, err := c.post(ctx, "/remote/upload", payload)
	if err != nil {
		return RemoteUploadTask{}, err
	}
	return RemoteUploadTask{
		ID:           data.Get("id").String(),
		DirShareLink: data.Get("dir_share_link").String(),
	}, nil
}

// IsUnavailable reports whether err came from the provider side.
func IsUnavailable(err error) bool {
	return errors.Is(err, apperrors.ErrUpstreamUnavailable)
}
