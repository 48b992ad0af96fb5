package seed

import (
	"log"

	"casaviva_backend/internal/model"

	"gorm.io/gorm"
)

// SeedAdminUser makes sure a back-office account row exists. The admin
// gate itself runs on the shared token; this row keeps a named owner in
// the database for a later move to per-user credentials.
func SeedAdminUser(db *gorm.DB, username, password string) {
	if username == "" || password == "" {
		return
	}

	var existing model.User
	if err := db.Where("username = ?", username).First(&existing).Error; err == nil {
		return
	}

	user := model.User{Username: username}
	if err := user.SetPassword(password); err != nil {
		log.Printf("Error hashing seed password: %v", err)
		return
	}
	if err := db.Create(&user).Error; err != nil {
		log.Printf("Error creating admin user %s: %v", username, err)
		return
	}

	log.Printf("Admin user %s seeded successfully!", username)
}
