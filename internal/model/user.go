package model

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User holds back-office accounts. Admin access is actually gated by the
// shared token in config; this table remains for audit naming and a
// possible move to per-user credentials.
type User struct {
	gorm.Model
	Username string `json:"username" gorm:"uniqueIndex;not null"`
	Password string `json:"-" gorm:"not null"`
}

func (u *User) SetPassword(plain string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}
