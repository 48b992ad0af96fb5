package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionStates(t *testing.T) {
	sub := Subscription{Email: "a@b.it", ConfirmToken: "tok", BlogUpdates: true}
	assert.Equal(t, SubscriptionUnconfirmed, sub.State())

	sub.Confirm()
	assert.Equal(t, SubscriptionConfirmed, sub.State())
	assert.Empty(t, sub.ConfirmToken, "a confirmed row never keeps a live token")
	assert.Equal(t, "tok", sub.ConsumedToken)

	sub.BlogUpdates = false
	sub.NewListings = false
	assert.Equal(t, SubscriptionDormant, sub.State())
}

func TestConfirmWithoutPendingToken(t *testing.T) {
	sub := Subscription{Email: "a@b.it", Confirmed: false}
	sub.Confirm()
	assert.True(t, sub.Confirmed)
	assert.Empty(t, sub.ConsumedToken)
}
