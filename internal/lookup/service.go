package lookup

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrCategoryNotFound = errors.New("category not found")

type LookupServiceAPI interface {
	GetDanceStyles() ([]DanceStyle, error)
	GetCategories() ([]Category, error)
	GetCategory(code string) (*Category, error)
}

type LookupService struct {
	DB *gorm.DB
}

func NewLookupService(db *gorm.DB) *LookupService {
	return &LookupService{DB: db}
}

// SeedDefaults inserts the built-in styles and categories. Rows that already
// exist are left as edited.
func (ls *LookupService) SeedDefaults() error {
	return ls.DB.Transaction(func(tx *gorm.DB) error {
		styles := append([]DanceStyle(nil), defaultStyles...)
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&styles).Error; err != nil {
			return err
		}
		cats := append([]Category(nil), defaultCategories...)
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&cats).Error
	})
}

func (ls *LookupService) GetDanceStyles() ([]DanceStyle, error) {
	styles := []DanceStyle{}
	result := ls.DB.Order("sort_order ASC").Order("name ASC").Find(&styles)
	if result.Error != nil {
		return nil, result.Error
	}
	return styles, nil
}

func (ls *LookupService) GetCategories() ([]Category, error) {
	categories := []Category{}
	result := ls.DB.Order("min_members ASC").Order("code ASC").Find(&categories)
	if result.Error != nil {
		return nil, result.Error
	}
	return categories, nil
}

func (ls *LookupService) GetCategory(code string) (*Category, error) {
	var cat Category
	err := ls.DB.Where("code = ?", strings.ToLower(strings.TrimSpace(code))).First(&cat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cat, nil
}
