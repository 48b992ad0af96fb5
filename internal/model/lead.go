package model

import (
	"gorm.io/gorm"
)

// Lead is one contact-form submission. Immutable after creation except
// for administrative deletion.
type Lead struct {
	gorm.Model
	Name       string `json:"name" gorm:"not null"`
	Email      string `json:"email" gorm:"not null;index"`
	Message    string `json:"message" gorm:"type:text"`
	Source     string `json:"source" gorm:"size:50"` // which form/page produced it
	PropertyID *uint  `json:"property_id" gorm:"index"`
	Newsletter bool   `json:"newsletter" gorm:"default:false"`
	IP         string `json:"-"`

	Property *Property `json:"property,omitempty" gorm:"foreignKey:PropertyID"`
}
