package client

import (
	"context"
	"encoding/json"
	"time"
)

type StudentForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type OrganizationForm struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Registration struct {
	AccountID           string          `json:"account_id"`
	Email               string          `json:"email"`
	Role                string          `json:"role"`
	Profile             json.RawMessage `json:"profile"`
	ConfirmationPending bool            `json:"confirmation_pending"`
	Message             string          `json:"-"`
}

type Profile struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name,omitempty"`
	Name        string    `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// DisplayName is the student's full name or the organization's name.
func (p *Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return p.Name
}

type Account struct {
	Role    string   `json:"role"`
	Profile *Profile `json:"profile"`
}

type ProfileUpdate struct {
	FullName    *string `json:"full_name,omitempty"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Client is the API surface the CLI uses.
type Client interface {
	RegisterStudent(ctx context.Context, formID string, f StudentForm) (*Registration, error)
	RegisterOrganization(ctx context.Context, formID string, f OrganizationForm) (*Registration, error)
	Login(ctx context.Context, email string, password []byte) error
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*Account, error)
	UpdateProfile(ctx context.Context, u ProfileUpdate) (*Profile, error)
	ListOrganizations(ctx context.Context) ([]Profile, error)
}
