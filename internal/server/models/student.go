package models

import "time"

// Student is the profile row of a student account. ID equals the
// authentication provider's user id.
type Student struct {
	ID        string    `json:"id" db:"id"`
	FullName  string    `json:"full_name" db:"full_name"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
