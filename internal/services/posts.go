package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	apperrors "github.com/vidshelf/backend/internal/errors"
	"github.com/vidshelf/backend/internal/models"
	"github.com/vidshelf/backend/internal/telegram"
	"github.com/vidshelf/backend/pkg/logger"
	"gorm.io/gorm"
)

const postFooter = "Join ke channel telegram untuk mendapatkan daily update!"

var errChannelNotConfigured = errors.New("Telegram Channel ID not configured. Set it in settings to auto-post.")

// ChannelSender is the part of telegram.Client posts need.
type ChannelSender interface {
	SendMessage(ctx context.Context, chatID, text string) (string, error)
	SendPhoto(ctx context.Context, chatID, caption, filename string, photo io.Reader) (string, error)
}

type PostService struct {
	DB       *gorm.DB
	Settings *SettingsService
	Activity *ActivityService
	APIURL   string
	// NewSender builds a sender for the bot token in effect at call time.
	NewSender func(apiURL, token string) ChannelSender
}

func NewPostService(db *gorm.DB, settings *SettingsService, activity *ActivityService, apiURL string) *PostService {
	return &PostService{
		DB:       db,
		Settings: settings,
		Activity: activity,
		APIURL:   apiURL,
		NewSender: func(apiURL, token string) ChannelSender {
			return telegram.NewClient(apiURL, token)
		},
	}
}

type PostPhoto struct {
	Filename string
	Reader   io.Reader
}

type CreatePostRequest struct {
	Title    string
	VideoIDs []uint
	Photo    *PostPhoto
}

type PostResult struct {
	PostID            uint   `json:"postId"`
	TelegramMessageID string `json:"telegramMessageId,omitempty"`
	TelegramError     string `json:"telegramError,omitempty"`
}

// FormatMessage renders the channel caption.
func FormatMessage(title string, links []string, channelName string) string {
	if strings.TrimSpace(channelName) == "" {
		channelName = DefaultChannelName
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s\n\n%s", title, strings.Join(links, "\n"), postFooter, channelName)
}

// Create stores the post and then tries the channel. A channel failure is
// reported in the result and never fails the post itself.
func (s *PostService) Create(ctx context.Context, user *models.User, req CreatePostRequest) (*PostResult, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" || len(req.VideoIDs) == 0 {
		return nil, fmt.Errorf("%w: title and at least one video are required", apperrors.ErrInvalidInput)
	}

	db := s.DB.WithContext(ctx)
	var videos []models.Video
	if err := db.Where("id IN ? AND user_id = ?", req.VideoIDs, user.ID).Find(&videos).Error; err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, fmt.Errorf("%w: no valid videos found", apperrors.ErrInvalidInput)
	}

	byID := make(map[uint]models.Video, len(videos))
	for _, v := range videos {
		byID[v.ID] = v
	}
	var (
		ids   []uint
		links []string
	)
	for _, id := range req.VideoIDs {
		v, ok := byID[id]
		if !ok {
			continue
		}
		delete(byID, id)
		ids = append(ids, id)
		if link := videoLink(v); link != "" {
			links = append(links, link)
		}
	}

	post := models.Post{UserID: user.ID, Title: title, VideoIDs: ids}
	if err := db.Create(&post).Error; err != nil {
		return nil, err
	}
	result := &PostResult{PostID: post.ID}

	tg, err := s.Settings.Telegram(ctx)
	if err != nil {
		return nil, err
	}
	message := FormatMessage(title, links, tg.ChannelName)

	messageID, err := s.send(ctx, tg, message, req.Photo)
	switch {
	case err != nil:
		result.TelegramError = err.Error()
		logger.WarnWithUser(idString(user.ID), "telegram_post_failed", map[string]interface{}{
			"post_id": post.ID,
			"error":   err.Error(),
		})
	case messageID != "":
		result.TelegramMessageID = messageID
		if err := db.Model(&post).Updates(map[string]interface{}{
			"channel_posted":     true,
			"channel_message_id": messageID,
		}).Error; err != nil {
			logger.Error("post_update_failed", err, map[string]interface{}{"post_id": post.ID})
		}
	}

	if s.Activity != nil {
		s.Activity.LogAsync(ActivityEntry{
			UserID:     userPtr(user.ID),
			Action:     ActionCreatePost,
			TargetType: "post",
			TargetID:   idString(post.ID),
			Metadata: map[string]interface{}{
				"videoCount":    len(ids),
				"channelPosted": messageID != "",
			},
		})
	}
	return result, nil
}

func (s *PostService) send(ctx context.Context, tg TelegramSettings, message string, photo *PostPhoto) (string, error) {
	if strings.TrimSpace(tg.ChannelID) == "" {
		return "", errChannelNotConfigured
	}
	sender := s.NewSender(s.APIURL, tg.BotToken)
	if photo != nil && photo.Reader != nil {
		return sender.SendPhoto(ctx, tg.ChannelID, message, photo.Filename, photo.Reader)
	}
	return sender.SendMessage(ctx, tg.ChannelID, message)
}

func (s *PostService) List(ctx context.Context, user *models.User, offset, limit int) ([]models.Post, int64, error) {
	query := s.DB.WithContext(ctx).Model(&models.Post{}).Where("user_id = ?", user.ID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var posts []models.Post
	if err := query.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// ChannelName is what the caption preview shows as its last line.
func (s *PostService) ChannelName(ctx context.Context) (string, error) {
	tg, err := s.Settings.Telegram(ctx)
	if err != nil {
		return "", err
	}
	return tg.ChannelName, nil
}

func videoLink(v models.Video) string {
	if v.ShareLink != nil && *v.ShareLink != "" {
		return *v.ShareLink
	}
	if v.EmbedLink != nil {
		return *v.EmbedLink
	}
	return ""
}
