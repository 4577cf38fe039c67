package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/mentorship/internal/common"
	"github.com/dmitrijs2005/mentorship/internal/server/registration"
)

const msgRegistered = "Registration successful! Please check your email to verify your account."

type studentRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type organizationRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type registrationResponse struct {
	AccountID           string `json:"account_id"`
	Email               string `json:"email"`
	Role                string `json:"role"`
	Profile             any    `json:"profile"`
	ConfirmationPending bool   `json:"confirmation_pending"`
}

func (s *Server) registerStudent(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.submit(w, r, registration.RoleStudent, registration.Input{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.FullName,
	})
}

func (s *Server) registerOrganization(w http.ResponseWriter, r *http.Request) {
	var req organizationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.submit(w, r, registration.RoleOrganization, registration.Input{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.Name,
		Description: req.Description,
	})
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request, role registration.Role, in registration.Input) {
	formID := r.Header.Get(common.FormInstanceHeaderName)

	res, err := s.forms.Submit(r.Context(), role, formID, in)
	if errors.Is(err, registration.ErrSubmissionInProgress) {
		writeError(w, http.StatusConflict, "submission_in_progress", "Registration is already in progress. Please wait.")
		return
	}
	if err != nil {
		s.logger.Error(r.Context(), "registration submit failed", "error", err)
		writeError(w, http.StatusInternalServerError, registration.ReasonUnknown.String(), "Registration failed. Please try again.")
		return
	}

	if !res.Success {
		writeRegistrationError(w, res.Err)
		return
	}

	body := registrationResponse{
		AccountID:           res.Data.Account.ID,
		Email:               in.Email,
		Role:                string(role),
		ConfirmationPending: res.Data.ConfirmationPending,
	}
	if res.Data.Student != nil {
		body.Email = res.Data.Student.Email
		body.Profile = res.Data.Student
	}
	if res.Data.Organization != nil {
		body.Email = res.Data.Organization.Email
		body.Profile = res.Data.Organization
	}
	writeData(w, http.StatusCreated, body, msgRegistered)
}

func writeRegistrationError(w http.ResponseWriter, e *registration.Error) {
	if e == nil {
		e = &registration.Error{Reason: registration.ReasonUnknown, Message: "Registration failed. Please try again."}
	}
	if e.Reason == registration.ReasonRateLimited && e.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(e.RetryAfter.Seconds())))
	}
	writeError(w, statusForReason(e.Reason), e.Reason.String(), e.Message)
}

func statusForReason(r registration.Reason) int {
	switch r {
	case registration.ReasonValidation, registration.ReasonInvalidInput:
		return http.StatusBadRequest
	case registration.ReasonDuplicateAccount:
		return http.StatusConflict
	case registration.ReasonRateLimited:
		return http.StatusTooManyRequests
	case registration.ReasonAccountCreationIncomplete:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
