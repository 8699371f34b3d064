package models

import (
	"time"

	"github.com/google/uuid"
)

const UsernameMaxLength = 150

type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"` // Never serialize in JSON
	FirstName    string     `json:"first_name" db:"first_name"`
	LastName     string     `json:"last_name" db:"last_name"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	IsStaff      bool       `json:"is_staff" db:"is_staff"`
	IsSuperuser  bool       `json:"is_superuser" db:"is_superuser"`
	DateJoined   time.Time  `json:"date_joined" db:"date_joined"`
	LastLogin    *time.Time `json:"last_login" db:"last_login"`
}

func (u *User) String() string {
	return u.Username
}
