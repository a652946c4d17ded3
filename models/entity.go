package models

import "time"

// Entity is the identity and timestamp metadata shared by every stored record.
type Entity struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
