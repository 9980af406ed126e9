package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ringdesk/core/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrConfigNotFound means no active integration row exists for the company.
	ErrConfigNotFound = errors.New("no active integration config found")
	// ErrPersistFailed means the config update affected zero rows.
	ErrPersistFailed = errors.New("integration config update affected no rows")
)

// Store reads and writes the per-company Desk configuration blob.
type Store interface {
	GetConfig(ctx context.Context, companyID int) (*DeskConfig, error)
	UpdateConfig(ctx context.Context, companyID int, cfg *DeskConfig) error
}

// GormStore is the MySQL-backed Store over the company_integration table.
type GormStore struct{ db *gorm.DB }

func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{db: db} }

func (s *GormStore) GetConfig(ctx context.Context, companyID int) (*DeskConfig, error) {
	var row models.CompanyIntegrationModel
	err := s.db.WithContext(ctx).
		Where("company_id = ? AND is_active = ?", companyID, true).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("load integration config: %w", err)
	}

	var cfg DeskConfig
	if err := json.Unmarshal([]byte(row.DeskConfig), &cfg); err != nil {
		return nil, fmt.Errorf("decode integration config: %w", err)
	}
	return &cfg, nil
}

func (s *GormStore) UpdateConfig(ctx context.Context, companyID int, cfg *DeskConfig) error {
	blob, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode integration config: %w", err)
	}

	tx := s.db.WithContext(ctx).
		Model(&models.CompanyIntegrationModel{}).
		Where("company_id = ? AND is_active = ?", companyID, true).
		Update("desk_config", string(blob))
	if tx.Error != nil {
		return fmt.Errorf("persist integration config: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrPersistFailed
	}
	return nil
}
