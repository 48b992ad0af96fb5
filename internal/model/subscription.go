package model

import (
	"time"

	"gorm.io/gorm"
)

// SubscriptionState is derived, never stored: the row keeps a confirmed
// flag plus a pending token, and the two are mutually exclusive because
// Confirm clears the token.
type SubscriptionState string

const (
	SubscriptionUnconfirmed SubscriptionState = "unconfirmed"
	SubscriptionConfirmed   SubscriptionState = "confirmed"
	SubscriptionDormant     SubscriptionState = "dormant"
)

// Subscription is one newsletter-preference record, keyed by email.
// Rows are never hard-deleted: unsubscribing clears both flags.
type Subscription struct {
	gorm.Model
	Email       string `json:"email" gorm:"uniqueIndex;not null"`
	Name        string `json:"name"`
	BlogUpdates bool   `json:"blog_updates" gorm:"default:false"`
	NewListings bool   `json:"new_listings" gorm:"default:false"`
	Source      string `json:"source" gorm:"size:50"`

	ConsentAt     time.Time `json:"consent_at"`
	ConsentIP     string    `json:"-"`
	ConfirmToken  string    `json:"-" gorm:"index"`
	ConsumedToken string    `json:"-" gorm:"index"`
	Confirmed     bool      `json:"confirmed" gorm:"default:false"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

func (s *Subscription) State() SubscriptionState {
	if !s.Confirmed {
		return SubscriptionUnconfirmed
	}
	if !s.BlogUpdates && !s.NewListings {
		return SubscriptionDormant
	}
	return SubscriptionConfirmed
}

// Confirm completes the double opt-in. The pending token moves aside so
// a confirmed row never carries a live confirmation link, while the
// confirmation URL stays idempotent on a second click.
func (s *Subscription) Confirm() {
	s.Confirmed = true
	if s.ConfirmToken != "" {
		s.ConsumedToken = s.ConfirmToken
		s.ConfirmToken = ""
	}
}
