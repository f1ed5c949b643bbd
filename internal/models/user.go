package models

import (
	"time"
)

type User struct {
	ID           string     `json:"id" bson:"_id"`
	Name         string     `json:"name" bson:"name"`
	MobileNumber string     `json:"mobile_number" bson:"mobile_number"`
	PasswordHash string     `json:"-" bson:"password_hash,omitempty"`
	IsVerified   bool       `json:"is_verified" bson:"is_verified"`
	LastLoginAt  *time.Time `json:"last_login_at" bson:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" bson:"updated_at"`
}
