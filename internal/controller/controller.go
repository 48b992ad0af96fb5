package controller

import (
	"casaviva_backend/pkg/config"
	"casaviva_backend/pkg/utils/storage"

	"github.com/gofiber/fiber/v2/middleware/session"
)

var (
	cfg           *config.Config
	sessionStore  *session.Store
	storageClient *storage.Client
)

// Init wires the shared collaborators. storageClient may stay nil when
// the bucket is not configured; upload endpoints then refuse politely.
func Init(c *config.Config, sessions *session.Store, sc *storage.Client) {
	cfg = c
	sessionStore = sessions
	storageClient = sc
}
