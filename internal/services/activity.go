package services

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/vidshelf/backend/internal/models"
	"github.com/vidshelf/backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	ActionLogin        = "login"
	ActionUploadLocal  = "upload_local"
	ActionUploadRemote = "upload_remote"
	ActionDeleteVideo  = "delete_video"
	ActionDeleteFolder = "delete_folder"
	ActionCreateFolder = "create_folder"
	ActionCreatePost   = "create_post"
	ActionShareVideo   = "share_video"
	ActionShareFolder  = "share_folder"
	ActionSync         = "sync"
)

type ActivityEntry struct {
	UserID     *uint
	Action     string
	TargetType string
	TargetID   string
	Metadata   map[string]interface{}
}

// ActivityService writes the activity log off the request path. A full queue
// drops entries rather than blocking callers.
type ActivityService struct {
	DB      *gorm.DB
	queue   chan models.ActivityLog
	pending sync.WaitGroup
	closed  chan struct{}
	once    sync.Once

	// mu guards stopped and the queue send against Close.
	mu      sync.RWMutex
	stopped bool
}

func NewActivityService(db *gorm.DB, queueSize int) *ActivityService {
	if queueSize < 1 {
		queueSize = 1000
	}
	s := &ActivityService{
		DB:     db,
		queue:  make(chan models.ActivityLog, queueSize),
		closed: make(chan struct{}),
	}
	go s.processQueue()
	return s
}

func (s *ActivityService) LogAsync(entry ActivityEntry) {
	row := models.ActivityLog{
		UserID:     entry.UserID,
		Action:     entry.Action,
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
		Metadata:   entry.Metadata,
		CreatedAt:  time.Now().UTC(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		logger.Warn("activity_log_closed", map[string]interface{}{
			"action":  entry.Action,
			"dropped": true,
		})
		return
	}

	s.pending.Add(1)
	select {
	case s.queue <- row:
	default:
		s.pending.Done()
		logger.Warn("activity_queue_full", map[string]interface{}{
			"action":  entry.Action,
			"dropped": true,
		})
	}
}

func (s *ActivityService) processQueue() {
	defer close(s.closed)
	for row := range s.queue {
		if err := s.DB.Create(&row).Error; err != nil {
			logger.Error("activity_log_insert_failed", err, map[string]interface{}{
				"action": row.Action,
			})
		}
		s.pending.Done()
	}
}

// Flush waits until every queued entry has been written.
func (s *ActivityService) Flush() {
	s.pending.Wait()
}

// Close drains the queue and stops the writer. Entries logged afterwards are
// dropped.
func (s *ActivityService) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.stopped = true
		close(s.queue)
		s.mu.Unlock()
		<-s.closed
	})
}

type ActivityFilter struct {
	UserID *uint
	Action string
	Offset int
	Limit  int
}

type ActivityRow struct {
	models.ActivityLog
	Username string `json:"username,omitempty"`
}

func (s *ActivityService) List(ctx context.Context, filter ActivityFilter) ([]ActivityRow, int64, error) {
	query := s.DB.WithContext(ctx).Model(&models.ActivityLog{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.ActivityLog
	if err := query.Preload("User").
		Order("created_at DESC").Order("id DESC").
		Offset(filter.Offset).Limit(filter.Limit).
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return toActivityRows(logs), total, nil
}

type DailyCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

type ActivitySummary struct {
	WindowDays         int            `json:"windowDays"`
	Total              int            `json:"total"`
	ByAction           map[string]int `json:"byAction"`
	DailyCounts        []DailyCount   `json:"dailyCounts"`
	OverallDailyCounts []DailyCount   `json:"overallDailyCounts,omitempty"`
	Recent             []ActivityRow  `json:"recent"`
}

// ClampDays bounds the summary window to 1..90 days.
func ClampDays(days int) int {
	if days < 1 {
		return 1
	}
	if days > 90 {
		return 90
	}
	return days
}

// Summary aggregates the window in Go so every driver gives the same buckets.
// userID scopes the result; overall adds an all-user daily series.
func (s *ActivityService) Summary(ctx context.Context, days int, userID *uint, overall bool, now time.Time) (*ActivitySummary, error) {
	days = ClampDays(days)
	if now.IsZero() {
		now = time.Now().UTC()
	}
	since := now.Add(-time.Duration(days) * 24 * time.Hour)

	query := s.DB.WithContext(ctx).Model(&models.ActivityLog{}).Where("created_at >= ?", since)
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}

	var logs []models.ActivityLog
	if err := query.Preload("User").Order("created_at DESC").Order("id DESC").Find(&logs).Error; err != nil {
		return nil, err
	}

	summary := &ActivitySummary{
		WindowDays:  days,
		Total:       len(logs),
		ByAction:    map[string]int{},
		DailyCounts: bucketByDay(logs),
	}
	for _, l := range logs {
		summary.ByAction[l.Action]++
	}

	recent := logs
	if len(recent) > 20 {
		recent = recent[:20]
	}
	summary.Recent = toActivityRows(recent)

	if overall {
		var all []models.ActivityLog
		if err := s.DB.WithContext(ctx).Select("id", "created_at").
			Where("created_at >= ?", since).Find(&all).Error; err != nil {
			return nil, err
		}
		summary.OverallDailyCounts = bucketByDay(all)
	}

	return summary, nil
}

func bucketByDay(logs []models.ActivityLog) []DailyCount {
	counts := map[string]int{}
	for _, l := range logs {
		counts[l.CreatedAt.UTC().Format("2006-01-02")]++
	}
	out := make([]DailyCount, 0, len(counts))
	for day, n := range counts {
		out = append(out, DailyCount{Day: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

func toActivityRows(logs []models.ActivityLog) []ActivityRow {
	rows := make([]ActivityRow, len(logs))
	for i, l := range logs {
		rows[i] = ActivityRow{ActivityLog: l}
		if l.User != nil {
			rows[i].Username = l.User.Username
		}
		rows[i].User = nil
	}
	return rows
}

func userPtr(id uint) *uint {
	return &id
}

func idString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
