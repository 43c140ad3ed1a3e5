package handlers

import (
	"bytes"
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/vidshelf/backend/internal/config"
	"github.com/vidshelf/backend/internal/database"
	apperrors "github.com/vidshelf/backend/internal/errors"
	"github.com/vidshelf/backend/internal/filehost"
	"github.com/vidshelf/backend/internal/middleware"
	"github.com/vidshelf/backend/internal/models"
	"github.com/vidshelf/backend/internal/services"
	"github.com/vidshelf/backend/pkg/logger"
	"github.com/vidshelf/backend/pkg/utils"
	"gorm.io/gorm"
)

type testEnv struct {
	app      *fiber.App
	db       *gorm.DB
	host     *fakeFileHost
	activity *services.ActivityService
	sender   *recordingSender
}

// fakeFileHost keeps provider state in memory. Setting down makes every call
// fail the way an unreachable provider does.
type fakeFileHost struct {
	mu       sync.Mutex
	files    []filehost.File
	nextID   int
	folders  map[string]string
	tasks    map[string]string
	down     bool
	confirms map[string]filehost.UploadResult
}

func newFakeFileHost() *fakeFileHost {
	return &fakeFileHost{
		folders:  map[string]string{},
		tasks:    map[string]string{},
		confirms: map[string]filehost.UploadResult{},
	}
}

func (f *fakeFileHost) unavailable() error {
	return fmt.Errorf("%w: connection refused", apperrors.ErrUpstreamUnavailable)
}

func (f *fakeFileHost) addFile(file filehost.File) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files = append(f.files, file)
}

func (f *fakeFileHost) setDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = down
}

func (f *fakeFileHost) ListFiles(context.Context) ([]filehost.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, f.unavailable()
	}
	return append([]filehost.File(nil), f.files...), nil
}

func (f *fakeFileHost) ListDirectory(_ context.Context, dirID string) ([]filehost.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, f.unavailable()
	}
	var out []filehost.File
	for _, file := range f.files {
		if file.DirID == dirID {
			out = append(out, file)
		}
	}
	return out, nil
}

func (f *fakeFileHost) CreateUploadTask(_ context.Context, name, dirID string) (filehost.UploadTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return filehost.UploadTask{}, f.unavailable()
	}
	f.nextID++
	id := fmt.Sprintf("task-%d", f.nextID)
	f.tasks[id] = name
	return filehost.UploadTask{ID: id, URL: "https://upload.host.example/" + id}, nil
}

func (f *fakeFileHost) ConfirmUpload(_ context.Context, taskID string, ok bool) (filehost.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return filehost.UploadResult{}, f.unavailable()
	}
	if result, found := f.confirms[taskID]; found && ok {
		return result, nil
	}
	return filehost.UploadResult{}, nil
}

func (f *fakeFileHost) CreateFolder(_ context.Context, name, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return "", f.unavailable()
	}
	f.nextID++
	id := fmt.Sprintf("dir-%d", f.nextID)
	f.folders[id] = name
	return id, nil
}

func (f *fakeFileHost) RemoteUpload(_ context.Context, _, _, dirID string) (filehost.RemoteUploadTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return filehost.RemoteUploadTask{}, f.unavailable()
	}
	f.nextID++
	task := filehost.RemoteUploadTask{ID: fmt.Sprintf("remote-%d", f.nextID)}
	if dirID != "" {
		task.DirShareLink = "https://host.example/d/" + dirID
	}
	return task, nil
}

type recordingSender struct {
	mu       sync.Mutex
	messages []string
	photos   []string
}

func (r *recordingSender) SendMessage(_ context.Context, _, text string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, text)
	return fmt.Sprintf("%d", len(r.messages)+len(r.photos)), nil
}

func (r *recordingSender) SendPhoto(_ context.Context, _, caption, filename string, photo io.Reader) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = io.Copy(io.Discard, photo)
	r.messages = append(r.messages, caption)
	r.photos = append(r.photos, filename)
	return fmt.Sprintf("%d", len(r.messages)+len(r.photos)), nil
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		gosqlite.MustRegisterScalarFunction("NOW", 0, func(ctx *gosqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			return time.Now().UTC(), nil
		})
		logger.Init()
		utils.ConfigureJWT("test-secret", 24)
	})

	db, err := database.Open(config.DBConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	host := newFakeFileHost()
	fileHostCfg := config.FileHostConfig{
		ListingStrategy: config.ListingGlobal,
		ListConcurrency: 2,
		UploadBatchSize: 2,
		UploadGrace:     time.Hour,
	}
	tgCfg := config.TelegramConfig{APIURL: "https://telegram.invalid", BotToken: "bot-token"}

	activity := services.NewActivityService(db, 100)
	t.Cleanup(func() {
		activity.Close()
		_ = sqlDB.Close()
	})

	settings := services.NewSettingsService(db, fileHostCfg, tgCfg)
	access := services.NewAccessService(db)
	tombstones := services.NewTombstoneService(db)
	library := services.NewLibraryService(db, host, access, tombstones, fileHostCfg)
	videos := services.NewVideoService(db, host, activity, nil, fileHostCfg.UploadBatchSize)
	folders := services.NewFolderService(db, host, access, activity)
	shares := services.NewShareService(db, activity)
	syncService := services.NewSyncService(db, host, activity, fileHostCfg.UploadGrace)

	sender := &recordingSender{}
	posts := services.NewPostService(db, settings, activity, tgCfg.APIURL)
	posts.NewSender = func(string, string) services.ChannelSender { return sender }

	app := fiber.New(fiber.Config{BodyLimit: 20 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS([]string{"http://localhost:3000"}))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	RegisterRoutes(app, Handlers{
		Auth:     NewAuthHandler(db, activity),
		Users:    NewUsersHandler(db),
		Folders:  NewFoldersHandler(folders),
		Videos:   NewVideosHandler(library, videos),
		Sync:     NewSyncHandler(syncService),
		Shares:   NewSharesHandler(shares),
		Posts:    NewPostsHandler(posts),
		Settings: NewSettingsHandler(settings),
		Activity: NewActivityHandler(activity),
	}, middleware.NewAuthMiddleware(db))

	return &testEnv{app: app, db: db, host: host, activity: activity, sender: sender}
}

func createTestUser(t *testing.T, db *gorm.DB, username, password string, role models.UserRole) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return user, token
}

func createTestFolder(t *testing.T, db *gorm.DB, owner *models.User, name, dirID string, parentID *uint) *models.Folder {
	t.Helper()
	folder := &models.Folder{UserID: owner.ID, Name: name, ParentID: parentID}
	if dirID != "" {
		folder.RemoteDirID = &dirID
	}
	if err := db.Create(folder).Error; err != nil {
		t.Fatalf("failed creating test folder: %v", err)
	}
	return folder
}

func createTestVideo(t *testing.T, db *gorm.DB, owner *models.User, name, code string, folderID *uint) *models.Video {
	t.Helper()
	video := &models.Video{UserID: owner.ID, Name: name, FolderID: folderID, UploadStatus: models.UploadStatusCompleted}
	if code != "" {
		link := "https://host.example/s/" + code
		video.RemoteFileID = &code
		video.ShareLink = &link
	}
	if err := db.Create(video).Error; err != nil {
		t.Fatalf("failed creating test video: %v", err)
	}
	return video
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertEnvelopeError(t *testing.T, body map[string]any, expected string) {
	t.Helper()
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["error"].(string); got != expected {
		t.Fatalf("expected error %q, got %q", expected, got)
	}
}

func dataMap(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %+v", body["data"])
	}
	return data
}

func dataList(t *testing.T, body map[string]any) []any {
	t.Helper()
	data, ok := body["data"].([]any)
	if !ok {
		t.Fatalf("expected data array, got %+v", body["data"])
	}
	return data
}
