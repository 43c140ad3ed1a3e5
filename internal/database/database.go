package database

import (
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/vidshelf/backend/internal/config"
	"github.com/vidshelf/backend/internal/models"
	"github.com/vidshelf/backend/pkg/logger"
	"github.com/vidshelf/backend/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects without migrating. The CLI uses it for commands that must not
// touch the schema.
func Open(cfg config.DBConfig) (*gorm.DB, error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	case "", "postgres":
		dsn := fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host,
			cfg.Port,
			cfg.User,
			cfg.Password,
			cfg.Name,
			cfg.SSLMode,
		)
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func Connect(cfg config.DBConfig, seed config.SeedConfig) (*gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	if err := SeedSuperuser(db, seed); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Folder{},
		&models.Video{},
		&models.DeletedVideo{},
		&models.VideoShare{},
		&models.FolderShare{},
		&models.Post{},
		&models.Setting{},
		&models.ActivityLog{},
	)
}

// SeedSuperuser creates the first account when the users table is empty.
func SeedSuperuser(db *gorm.DB, seed config.SeedConfig) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return nil
	}

	if _, _, err := EnsureSuperuser(db, seed.Username, seed.Password); err != nil {
		return err
	}

	logger.Warn("default_superuser_seeded", map[string]interface{}{
		"username": seed.Username,
		"hint":     "change the default password",
	})
	return nil
}

// EnsureSuperuser creates the user, or promotes and re-keys an existing one.
// The bool reports whether a row was created.
func EnsureSuperuser(db *gorm.DB, username, password string) (*models.User, bool, error) {
	if username == "" || password == "" {
		return nil, false, errors.New("username and password are required")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, false, err
	}

	var user models.User
	err = db.Where("username = ?", username).First(&user).Error
	switch {
	case err == nil:
		user.Role = models.UserRoleSuperuser
		user.PasswordHash = hash
		if err := db.Save(&user).Error; err != nil {
			return nil, false, err
		}
		return &user, false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			Username:     username,
			PasswordHash: hash,
			Role:         models.UserRoleSuperuser,
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, false, err
		}
		return &user, true, nil
	default:
		return nil, false, err
	}
}
