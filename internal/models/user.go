package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Email     string    `bun:"email,unique,notnull" json:"email"`
	Phone     string    `bun:"phone,unique,notnull" json:"phone"`
	BadgeCode string    `bun:"badge_code,unique,nullzero" json:"badge_code"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

// UserUpdate carries a partial update. Pointer fields distinguish
// "field absent" from "field set to empty".
type UserUpdate struct {
	Name      *string `json:"name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	BadgeCode *string `json:"badge_code"`
}

type UserView struct {
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Phone     string      `json:"phone"`
	BadgeCode string      `json:"badge_code"`
	UpdatedAt string      `json:"updated_at"`
	Scans     []ScanEntry `json:"scans"`
}

// Badge is the payload encoded into a user's QR badge.
type Badge struct {
	UserID    int64  `json:"user_id"`
	Name      string `json:"name"`
	BadgeCode string `json:"badge_code"`
}
