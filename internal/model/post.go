package model

import (
	"math"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Post Status
type PostStatus string

const (
	PostStatusDraft     PostStatus = "bozza"
	PostStatusPublished PostStatus = "pubblicato"
	PostStatusArchived  PostStatus = "archiviato"
)

type Post struct {
	gorm.Model
	Title    string         `json:"title" gorm:"not null"`
	Subtitle string         `json:"subtitle"`
	Slug     string         `json:"slug" gorm:"uniqueIndex;not null"`
	Cover    string         `json:"cover"`
	Content  string         `json:"content" gorm:"type:text"`
	Tags     datatypes.JSON `json:"tags"`
	Category string         `json:"category"`
	Author   string         `json:"author"`
	Status   PostStatus     `json:"status" gorm:"not null;default:'bozza';index"`

	SeoTitle       string     `json:"seo_title"`
	SeoDescription string     `json:"seo_description"`
	ReadingTime    int        `json:"reading_time"`
	PublishedAt    *time.Time `json:"published_at"`

	Images []PostImage `json:"images" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
}

// PostImage rows are deduplicated per post by content hash.
type PostImage struct {
	gorm.Model
	PostID   uint   `json:"post_id" gorm:"index:idx_post_image_hash,unique"`
	Hash     string `json:"hash" gorm:"index:idx_post_image_hash,unique"`
	HotURL   string `json:"hot_url" gorm:"not null"`
	ColdKey  string `json:"cold_key"`
	Archived bool   `json:"archived" gorm:"default:false"`
	Position int    `json:"position" gorm:"default:0"`

	Post Post `json:"-" gorm:"foreignKey:PostID"`
}

func ValidPostStatus(s PostStatus) bool {
	switch s {
	case PostStatusDraft, PostStatusPublished, PostStatusArchived:
		return true
	}
	return false
}

// EstimateReadingTime returns minutes at ~200 words per minute, minimum 1.
func EstimateReadingTime(content string) int {
	words := len(strings.Fields(content))
	if words == 0 {
		return 1
	}
	return int(math.Max(1, math.Round(float64(words)/200)))
}
