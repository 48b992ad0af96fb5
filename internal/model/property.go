package model

import (
	"time"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Contract type of a listing
type ContractType string

const (
	ContractSale   ContractType = "vendita"
	ContractRental ContractType = "affitto"
)

// Property Status
type PropertyStatus string

const (
	PropertyStatusAvailable PropertyStatus = "disponibile"
	PropertyStatusReserved  PropertyStatus = "riservato"
	PropertyStatusSold      PropertyStatus = "venduto"
	PropertyStatusRented    PropertyStatus = "affittato"
	PropertyStatusArchived  PropertyStatus = "archiviato"
)

// Energy classes as used on Italian listings (APE grades)
var EnergyClasses = []string{"A4", "A3", "A2", "A1", "B", "C", "D", "E", "F", "G"}

// ActiveImagesKept is how many images stay active when a listing
// transitions to venduto/affittato; older ones are flagged archived.
const ActiveImagesKept = 3

type Property struct {
	gorm.Model
	Title       string         `json:"title" gorm:"not null"`
	Slug        string         `json:"slug" gorm:"uniqueIndex;not null"`
	Description string         `json:"description" gorm:"type:text"`
	Price       float64        `json:"price" gorm:"not null"`
	Contract    ContractType   `json:"contract" gorm:"not null;index"`
	Status      PropertyStatus `json:"status" gorm:"not null;default:'disponibile';index"`

	AreaSqm     int    `json:"area_sqm"`
	Rooms       int    `json:"rooms"`
	Bathrooms   int    `json:"bathrooms"`
	Floor       string `json:"floor"`
	EnergyClass string `json:"energy_class"`
	Zone        string `json:"zone" gorm:"index"`
	VideoURL    string `json:"video_url"`

	Images []PropertyImage `json:"images" gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
}

type PropertyImage struct {
	gorm.Model
	PropertyID uint   `json:"property_id" gorm:"index"`
	HotURL     string `json:"hot_url" gorm:"not null"`
	ColdURL    string `json:"cold_url"`
	Hash       string `json:"hash" gorm:"index"`
	Archived   bool   `json:"archived" gorm:"default:false"`
	Position   int    `json:"position" gorm:"default:0"`

	Property Property `json:"-" gorm:"foreignKey:PropertyID"`
}

// Unavailable reports whether the listing left the market, which is
// what triggers image archiving and the "similar properties" block.
func (p *Property) Unavailable() bool {
	return p.Status == PropertyStatusSold || p.Status == PropertyStatusRented
}

// BeforeCreate fills the slug from the title when none was supplied.
func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.Slug == "" {
		s := slug.Make(p.Title)
		var count int64
		tx.Model(&Property{}).Where("slug = ?", s).Count(&count)
		if count > 0 {
			s = s + "-" + time.Now().Format("20060102150405")
		}
		p.Slug = s
	}
	return nil
}

func ValidContract(c ContractType) bool {
	return c == ContractSale || c == ContractRental
}

func ValidPropertyStatus(s PropertyStatus) bool {
	switch s {
	case PropertyStatusAvailable, PropertyStatusReserved, PropertyStatusSold,
		PropertyStatusRented, PropertyStatusArchived:
		return true
	}
	return false
}
