package registration

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/mentorship/internal/common"
)

// Role selects which profile a registration creates.
type Role string

const (
	RoleStudent      Role = common.RoleStudent
	RoleOrganization Role = common.RoleOrganization
)

const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Input is one form submission. DisplayName is the student's full name or
// the organization's name. Description only applies to organizations.
type Input struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
}

// Normalize trims every text field and lowercases the email. The password is
// left untouched.
func Normalize(in Input) Input {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	in.Description = strings.TrimSpace(in.Description)
	return in
}

// Validate checks a submission, stopping at the first failure: required
// fields first, then formats.
func Validate(role Role, in Input) error {
	in = Normalize(in)

	switch role {
	case RoleStudent:
		if in.DisplayName == "" {
			return validationError("Full name is required")
		}
	case RoleOrganization:
		if in.DisplayName == "" {
			return validationError("Organization name is required")
		}
	default:
		return validationError("Unknown account type")
	}

	if in.Email == "" {
		return validationError("Email is required")
	}
	if in.Password == "" {
		return validationError("Password is required")
	}
	if !emailPattern.MatchString(in.Email) {
		return validationError("Please enter a valid email address")
	}
	if utf8.RuneCountInString(in.Password) < MinPasswordLength {
		return validationError("Password must be at least 6 characters long")
	}

	return nil
}
