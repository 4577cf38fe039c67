package common

// FormInstanceHeaderName identifies one registration form instance across
// submissions. Submissions carrying the same value share a re-entrancy guard.
const FormInstanceHeaderName = "X-Form-Instance"

// RoleStudent and RoleOrganization are the account roles stored in the
// provider's user metadata.
const (
	RoleStudent      = "student"
	RoleOrganization = "organization"
)
