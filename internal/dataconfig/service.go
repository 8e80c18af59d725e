package dataconfig

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DataConfigService struct {
	DB *gorm.DB
}

type GetConfigResult struct {
	NotModified bool
	Config      *DataConfig
}

func checksum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Publish stores doc under name. An unchanged document keeps its version and
// timestamp so cached clients stay valid; a changed one bumps the version.
func (s *DataConfigService) Publish(name string, doc any) (*DataConfig, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("name is required")
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	sum := checksum(raw)

	var cfg DataConfig
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("lower(name) = lower(?)", name).First(&cfg).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			cfg = DataConfig{Name: name, Version: 1, Checksum: sum, Config: datatypes.JSON(raw), IsActive: true}
			return tx.Create(&cfg).Error
		}
		if err != nil {
			return err
		}
		if cfg.Checksum == sum && cfg.IsActive {
			return nil
		}
		cfg.Version++
		cfg.Checksum = sum
		cfg.Config = datatypes.JSON(raw)
		cfg.IsActive = true
		return tx.Save(&cfg).Error
	})
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetByNameIfModified:
// - Finds the active config by name (case-insensitive).
// - NotModified when the client checksum matches, or when the client
//   timestamp is not older than updated_at.
func (s *DataConfigService) GetByNameIfModified(name string, clientLastModified *time.Time, clientChecksum string) (*GetConfigResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("name is required")
	}

	var cfg DataConfig
	err := s.DB.
		Where("is_active = ?", true).
		Where("lower(name) = lower(?)", name).
		Order("updated_at desc").
		First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}

	if clientChecksum = strings.TrimSpace(clientChecksum); clientChecksum != "" && clientChecksum == cfg.Checksum {
		return &GetConfigResult{NotModified: true, Config: &cfg}, nil
	}
	if clientLastModified != nil && !cfg.UpdatedAt.After(*clientLastModified) {
		return &GetConfigResult{NotModified: true, Config: &cfg}, nil
	}

	return &GetConfigResult{NotModified: false, Config: &cfg}, nil
}
