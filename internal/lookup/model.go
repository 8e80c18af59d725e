package lookup

import (
	"time"
)

type DanceStyle struct {
	ID        int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex;column:name" json:"name"`
	SortOrder int       `gorm:"not null;default:0;column:sort_order" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (DanceStyle) TableName() string {
	return "dance_styles"
}

// Category is an entry category. MaxMembers 0 means no upper bound.
type Category struct {
	ID         int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Code       string    `gorm:"size:20;not null;uniqueIndex;column:code" json:"code"`
	Label      string    `gorm:"type:text;not null;column:label" json:"label"`
	MinMembers int       `gorm:"not null;default:1;column:min_members" json:"min_members"`
	MaxMembers int       `gorm:"not null;default:0;column:max_members" json:"max_members"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Category) TableName() string {
	return "entry_categories"
}

var defaultStyles = []DanceStyle{
	{Name: "hiphop", SortOrder: 1},
	{Name: "jazz", SortOrder: 2},
	{Name: "contemporary", SortOrder: 3},
	{Name: "ballet", SortOrder: 4},
	{Name: "house", SortOrder: 5},
	{Name: "other", SortOrder: 99},
}

var defaultCategories = []Category{
	{Code: "solo", Label: "Solo", MinMembers: 1, MaxMembers: 1},
	{Code: "duo", Label: "Duo", MinMembers: 2, MaxMembers: 2},
	{Code: "group", Label: "Group", MinMembers: 3},
}
