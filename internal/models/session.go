package models

import "time"

type Session struct {
	ID           string    `bson:"_id"`
	UserID       string    `bson:"userId"`
	Fingerprint  string    `bson:"fingerprint"`
	RefreshToken string    `bson:"refreshToken"`
	ExpiresAt    time.Time `bson:"expiresAt"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}
