package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vidshelf/backend/internal/config"
	apperrors "github.com/vidshelf/backend/internal/errors"
	"github.com/vidshelf/backend/internal/filehost"
	"github.com/vidshelf/backend/internal/models"
	"github.com/vidshelf/backend/pkg/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	SettingFileHostAPIKey      = "filehost_api_key"
	SettingFileHostAPIURL      = "filehost_api_url"
	SettingTelegramBotToken    = "telegram_bot_token"
	SettingTelegramChannelID   = "telegram_channel_id"
	SettingTelegramChannelName = "telegram_channel_name"

	DefaultChannelName = "channel telegram"
)

// SettingKeys lists every key the settings endpoint accepts, in display order.
var SettingKeys = []string{
	SettingFileHostAPIKey,
	SettingFileHostAPIURL,
	SettingTelegramBotToken,
	SettingTelegramChannelID,
	SettingTelegramChannelName,
}

var secretSettings = map[string]bool{
	SettingFileHostAPIKey:   true,
	SettingTelegramBotToken: true,
}

func IsSecretSetting(key string) bool {
	return secretSettings[key]
}

func IsKnownSetting(key string) bool {
	for _, k := range SettingKeys {
		if k == key {
			return true
		}
	}
	return false
}

// SettingsService resolves runtime settings: a stored row wins, then the
// process configuration.
type SettingsService struct {
	DB        *gorm.DB
	fallbacks map[string]string
}

func NewSettingsService(db *gorm.DB, fileHost config.FileHostConfig, tg config.TelegramConfig) *SettingsService {
	return &SettingsService{
		DB: db,
		fallbacks: map[string]string{
			SettingFileHostAPIKey:      fileHost.APIKey,
			SettingFileHostAPIURL:      fileHost.APIURL,
			SettingTelegramBotToken:    tg.BotToken,
			SettingTelegramChannelID:   tg.ChannelID,
			SettingTelegramChannelName: tg.ChannelName,
		},
	}
}

func (s *SettingsService) Get(ctx context.Context, key string) (string, error) {
	var row models.Setting
	err := s.DB.WithContext(ctx).First(&row, "key = ?", key).Error
	switch {
	case err == nil:
		value := row.Value
		if IsSecretSetting(key) {
			value = utils.DecryptOrPlaintext(value)
		}
		if strings.TrimSpace(value) != "" {
			return value, nil
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return "", err
	}
	return s.fallbacks[key], nil
}

// All returns every known key with its effective value. Secrets are masked
// unless reveal is set.
func (s *SettingsService) All(ctx context.Context, reveal bool) (map[string]string, error) {
	out := make(map[string]string, len(SettingKeys))
	for _, key := range SettingKeys {
		value, err := s.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if IsSecretSetting(key) && !reveal {
			value = MaskSecret(value)
		}
		out[key] = value
	}
	return out, nil
}

// Set stores value for key. An empty value deletes the row so the
// configured fallback applies again.
func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	if !IsKnownSetting(key) {
		return fmt.Errorf("%w: unknown setting %q", apperrors.ErrInvalidInput, key)
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return s.DB.WithContext(ctx).Delete(&models.Setting{}, "key = ?", key).Error
	}

	if IsSecretSetting(key) {
		sealed, err := utils.SealSecret(value)
		if err != nil {
			return err
		}
		value = sealed
	}

	row := models.Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}

// FileHostCredentials satisfies filehost.CredentialSource.
func (s *SettingsService) FileHostCredentials(ctx context.Context) (filehost.Credentials, error) {
	key, err := s.Get(ctx, SettingFileHostAPIKey)
	if err != nil {
		return filehost.Credentials{}, err
	}
	baseURL, err := s.Get(ctx, SettingFileHostAPIURL)
	if err != nil {
		return filehost.Credentials{}, err
	}
	return filehost.Credentials{BaseURL: baseURL, APIKey: key}, nil
}

type TelegramSettings struct {
	BotToken    string
	ChannelID   string
	ChannelName string
}

func (s *SettingsService) Telegram(ctx context.Context) (TelegramSettings, error) {
	var out TelegramSettings
	var err error
	if out.BotToken, err = s.Get(ctx, SettingTelegramBotToken); err != nil {
		return out, err
	}
	if out.ChannelID, err = s.Get(ctx, SettingTelegramChannelID); err != nil {
		return out, err
	}
	if out.ChannelName, err = s.Get(ctx, SettingTelegramChannelName); err != nil {
		return out, err
	}
	out.ChannelID = strings.TrimSpace(out.ChannelID)
	if strings.TrimSpace(out.ChannelName) == "" {
		out.ChannelName = DefaultChannelName
	}
	return out, nil
}

// MaskSecret keeps the last four characters visible.
func MaskSecret(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", 8) + value[len(value)-4:]
}
