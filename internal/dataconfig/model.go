package dataconfig

import (
	"time"

	"gorm.io/datatypes"
)

// DataConfig is a published, versioned JSON document clients cache locally.
type DataConfig struct {
	ID        int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string         `json:"name" gorm:"type:text;not null;uniqueIndex"`
	Version   int            `json:"version" gorm:"not null;default:1"`
	Checksum  string         `json:"checksum" gorm:"type:text;not null"`
	Config    datatypes.JSON `json:"config" gorm:"type:jsonb;not null"`
	IsActive  bool           `json:"is_active" gorm:"not null;default:true"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"not null;autoUpdateTime"`
}

func (DataConfig) TableName() string { return "data_config" }

// StageRulesName is the document holding the form rules.
const StageRulesName = "stage_rules"
