package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/mentorship/internal/common"
	"github.com/dmitrijs2005/mentorship/internal/server/authprovider"
	"github.com/dmitrijs2005/mentorship/internal/server/models"
	"github.com/dmitrijs2005/mentorship/internal/server/records"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token,omitempty"`
	TokenType    string             `json:"token_type"`
	ExpiresIn    int                `json:"expires_in"`
	User         *authprovider.User `json:"user"`
}

type meResponse struct {
	User    *authprovider.User `json:"user"`
	Role    string             `json:"role"`
	Profile any                `json:"profile"`
}

type profilePatch struct {
	FullName    *string `json:"full_name"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "validation", "Email and password are required")
		return
	}

	session, err := s.provider.SignInWithPassword(r.Context(), email, req.Password)
	if err != nil {
		s.writeProviderError(w, r, err, "sign-in failed")
		return
	}

	writeData(w, http.StatusOK, loginResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		TokenType:    session.TokenType,
		ExpiresIn:    session.ExpiresIn,
		User:         session.User,
	}, "Signed in")
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.provider.SignOut(r.Context(), tokenFrom(r.Context())); err != nil {
		s.writeProviderError(w, r, err, "sign-out failed")
		return
	}
	writeData(w, http.StatusOK, nil, "Signed out")
}

// currentUser asks the provider whether the bearer session is still live.
// On failure the response has already been written.
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) (*authprovider.User, string, bool) {
	user, err := s.provider.GetUser(r.Context(), tokenFrom(r.Context()))
	if err != nil {
		s.writeProviderError(w, r, err, "get user failed")
		return nil, "", false
	}

	role := user.Metadata("role")
	if role == "" {
		role = claimsFrom(r.Context()).AccountRole()
	}
	return user, role, true
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	user, role, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	profile, err := s.loadProfile(r, role, user.ID)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		s.logger.Error(r.Context(), "profile lookup failed", "account_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "Could not load profile")
		return
	}

	writeData(w, http.StatusOK, meResponse{User: user, Role: role, Profile: profile}, "")
}

func (s *Server) loadProfile(r *http.Request, role, id string) (any, error) {
	switch role {
	case common.RoleStudent:
		return s.students.Get(r.Context(), id)
	case common.RoleOrganization:
		return s.organizations.Get(r.Context(), id)
	default:
		return nil, common.ErrorNotFound
	}
}

func (s *Server) updateMe(w http.ResponseWriter, r *http.Request) {
	user, role, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	var req profilePatch
	if !decodeBody(w, r, &req) {
		return
	}

	id := user.ID

	var (
		profile any
		err     error
	)
	switch role {
	case common.RoleStudent:
		patch := records.Patch{}
		if req.FullName != nil {
			name := strings.TrimSpace(*req.FullName)
			if name == "" {
				writeError(w, http.StatusBadRequest, "validation", "Full name is required")
				return
			}
			patch["full_name"] = name
		}
		profile, err = s.students.Update(r.Context(), id, patch)
	case common.RoleOrganization:
		patch := records.Patch{}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				writeError(w, http.StatusBadRequest, "validation", "Organization name is required")
				return
			}
			patch["name"] = name
		}
		if req.Description != nil {
			patch["description"] = nil
			if v := strings.TrimSpace(*req.Description); v != "" {
				patch["description"] = v
			}
		}
		profile, err = s.organizations.Update(r.Context(), id, patch)
	default:
		writeError(w, http.StatusForbidden, "forbidden", "Account has no profile")
		return
	}

	switch {
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Profile not found")
	case err != nil:
		s.logger.Error(r.Context(), "profile update failed", "account_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "Could not update profile")
	default:
		writeData(w, http.StatusOK, profile, "Profile updated")
	}
}

func (s *Server) listOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := s.organizations.List(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "organization listing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "Could not load organizations")
		return
	}
	if orgs == nil {
		orgs = []*models.Organization{}
	}
	writeData(w, http.StatusOK, orgs, "")
}

func (s *Server) writeProviderError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch authprovider.KindOf(err) {
	case authprovider.KindBadRequest:
		writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid email or password")
	case authprovider.KindUnauthorized:
		writeError(w, http.StatusUnauthorized, "unauthorized", "Session is no longer valid, please sign in again")
	case authprovider.KindNotFound:
		writeError(w, http.StatusNotFound, "not_found", "Account not found")
	case authprovider.KindRateLimited:
		writeError(w, http.StatusTooManyRequests, "rate_limited", "Too many attempts. Please wait a few minutes and try again.")
	default:
		s.logger.Error(r.Context(), msg, "error", err)
		writeError(w, http.StatusBadGateway, "unavailable", "Authentication service unavailable")
	}
}
