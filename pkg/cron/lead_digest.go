// pkg/cron/lead_digest.go

package cron

import (
	"log"
	"sync"
	"time"

	"casaviva_backend/internal/model"
	"casaviva_backend/pkg/database"
	"casaviva_backend/pkg/email"

	"github.com/robfig/cron/v3"
)

var (
	lastDigestRun time.Time
	digestMutex   sync.Mutex
)

// InitLeadDigestCron mails the agency inbox each morning with the count
// of contact requests received the previous day.
func InitLeadDigestCron(inbox string) *cron.Cron {
	c := cron.New()

	_, err := c.AddFunc("0 8 * * *", func() {
		digestMutex.Lock()
		defer digestMutex.Unlock()

		if time.Since(lastDigestRun) < 23*time.Hour {
			log.Printf("Lead digest already sent today, skipping...")
			return
		}

		sendLeadDigest(inbox)
		lastDigestRun = time.Now()
	})
	if err != nil {
		log.Printf("Could not initialize lead digest cron: %v", err)
		return c
	}

	c.Start()
	log.Printf("Lead digest cron initialized successfully")
	return c
}

func sendLeadDigest(inbox string) {
	yesterday := time.Now().AddDate(0, 0, -1)
	start := time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 0, 0, 0, 0, yesterday.Location())
	end := start.AddDate(0, 0, 1)

	var count int64
	if err := database.GetDB().Model(&model.Lead{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&count).Error; err != nil {
		log.Printf("Error counting leads for digest: %v", err)
		return
	}

	if count == 0 {
		log.Printf("No leads on %s, digest skipped", start.Format("2006-01-02"))
		return
	}

	if email.GlobalEmailService == nil {
		return
	}

	err := email.GlobalEmailService.SendLeadDigestEmail(inbox, email.LeadDigestData{
		Date:  start.Format("02/01/2006"),
		Count: count,
	})
	if err != nil {
		log.Printf("Error sending lead digest: %v", err)
	}
}
