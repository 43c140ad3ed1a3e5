package services

import (
	"context"
	"strings"
	"time"

	"github.com/vidshelf/backend/internal/models"
	"github.com/vidshelf/backend/internal/reconcile"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TombstoneService records codes that were deleted locally. The provider
// copy is never removed, so these codes stay hidden for every user.
type TombstoneService struct {
	DB *gorm.DB
}

func NewTombstoneService(db *gorm.DB) *TombstoneService {
	return &TombstoneService{DB: db}
}

// RecordDeletion is idempotent: an existing tombstone counts as success.
func (s *TombstoneService) RecordDeletion(ctx context.Context, code string, userID uint) error {
	return recordTombstone(s.DB.WithContext(ctx), code, userID)
}

func recordTombstone(db *gorm.DB, code string, userID uint) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	row := models.DeletedVideo{
		RemoteFileID:    code,
		DeletedByUserID: userID,
		DeletedAt:       time.Now().UTC(),
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "remote_file_id"}},
		DoNothing: true,
	}).Create(&row).Error
}

func (s *TombstoneService) Load(ctx context.Context) (reconcile.TombstoneSet, error) {
	var codes []string
	if err := s.DB.WithContext(ctx).Model(&models.DeletedVideo{}).Pluck("remote_file_id", &codes).Error; err != nil {
		return nil, err
	}
	return reconcile.NewTombstoneSet(codes...), nil
}
