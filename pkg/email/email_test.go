package email

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnconfiguredServiceDegrades(t *testing.T) {
	svc, err := NewEmailService("", "", "", "CasaViva", "noreply@casaviva.it")
	require.NoError(t, err)

	res := svc.CreateContactDOI("a@b.it", "Anna", map[string]interface{}{
		"BLOG_UPDATES": true,
	}, "http://localhost/confirm")
	assert.Equal(t, SyncDegraded, res.Status)
	assert.NotEmpty(t, res.Warning)

	res = svc.UpdateContact("a@b.it", map[string]interface{}{"NEW_LISTINGS": false})
	assert.Equal(t, SyncDegraded, res.Status)
}

func TestUnconfiguredTransactionalSendFails(t *testing.T) {
	svc, err := NewEmailService("", "", "", "CasaViva", "noreply@casaviva.it")
	require.NoError(t, err)

	err = svc.SendNewListingEmail("a@b.it", "Anna", NewListingData{
		Title: "Trilocale", Zone: "Centro", Price: 250000,
		Contract: "vendita", URL: "http://localhost/immobili/trilocale",
	})
	assert.Error(t, err)
}

func TestTemplatesRender(t *testing.T) {
	svc, err := NewEmailService("", "", "", "CasaViva", "noreply@casaviva.it")
	require.NoError(t, err)

	for name, data := range map[string]interface{}{
		"new_listing.html":       NewListingData{Name: "Anna", Title: "Attico", Zone: "Mare", Price: 420000, Contract: "vendita"},
		"new_post.html":          NewPostData{Name: "Anna", Title: "Guida", Subtitle: "Sottotitolo"},
		"lead_notification.html": LeadNotificationData{LeadName: "Mario", LeadEmail: "m@b.it", LeadMessage: "Ciao", Source: "form"},
		"lead_digest.html":       LeadDigestData{Date: "01/02/2026", Count: 4},
	} {
		var buf bytes.Buffer
		err := svc.templates.ExecuteTemplate(&buf, name, data)
		assert.NoError(t, err, name)
		assert.NotZero(t, buf.Len(), name)
	}
}
