package storage

import (
	"time"

	"gorm.io/datatypes"
)

// Source 描述一个 feed 来源，以 Link 作为自然键
type Source struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:1024" json:"name"`
	Link string `gorm:"size:1024;uniqueIndex" json:"link"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Category 条目分类，以 Name 作为自然键
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:255;uniqueIndex" json:"name"`
	Slug string `gorm:"size:255;index" json:"slug"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FeedEntry 一条入库的 feed 条目，Link 唯一；入库后不再修改
type FeedEntry struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:1024" json:"title"`
	Content     string    `gorm:"type:text" json:"content"`
	Description string    `gorm:"type:text" json:"description"`
	Link        string    `gorm:"size:1024;uniqueIndex" json:"link"`
	PublishedAt time.Time `gorm:"index" json:"publishedAt"`

	CategoryID uint      `gorm:"index" json:"categoryId"`
	Category   *Category `json:"category,omitempty"`
	SourceID   uint      `gorm:"index" json:"sourceId"`
	Source     *Source   `json:"source,omitempty"`

	// 上游条目中未映射的字段，例如 guid / author
	ExtraData datatypes.JSONMap `json:"extraData,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
