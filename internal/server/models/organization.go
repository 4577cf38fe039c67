package models

import "time"

// Organization is the profile row of an organization account. ID equals the
// authentication provider's user id. Description is NULL when not provided.
type Organization struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Email       string    `json:"email" db:"email"`
	Description *string   `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
