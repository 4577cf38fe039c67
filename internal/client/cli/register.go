package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/mentorship/internal/client/client"
	"github.com/dmitrijs2005/mentorship/internal/common"
	"github.com/dmitrijs2005/mentorship/internal/server/registration"
)

// getSimpleText, getPassword and getMultiline are swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getMultiline  = GetMultiline
)

// RegisterStudent prompts for the student form and submits it.
func (a *App) RegisterStudent(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Full name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	in := registration.Normalize(registration.Input{Email: email, Password: string(password), DisplayName: name})
	if err := registration.Validate(registration.RoleStudent, in); err != nil {
		return a.report(err)
	}

	reg, err := a.api.RegisterStudent(ctx, a.formID(common.RoleStudent), client.StudentForm{
		Email:    in.Email,
		Password: in.Password,
		FullName: in.DisplayName,
	})
	if err != nil {
		return a.report(err)
	}
	a.registered(common.RoleStudent, reg)
	return nil
}

// RegisterOrganization prompts for the organization form and submits it.
func (a *App) RegisterOrganization(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Organization name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	description, err := getMultiline(a.reader, "Description (optional)", a.out)
	if err != nil {
		return err
	}

	in := registration.Normalize(registration.Input{
		Email: email, Password: string(password), DisplayName: name, Description: description,
	})
	if err := registration.Validate(registration.RoleOrganization, in); err != nil {
		return a.report(err)
	}

	reg, err := a.api.RegisterOrganization(ctx, a.formID(common.RoleOrganization), client.OrganizationForm{
		Email:       in.Email,
		Password:    in.Password,
		Name:        in.DisplayName,
		Description: in.Description,
	})
	if err != nil {
		return a.report(err)
	}
	a.registered(common.RoleOrganization, reg)
	return nil
}

func (a *App) registered(role string, reg *client.Registration) {
	a.resetForm(role)
	msg := reg.Message
	if msg == "" {
		msg = "Registration successful!"
	}
	a.printf("%s", msg)
	if reg.ConfirmationPending {
		a.printf("A confirmation link was sent to %s.", reg.Email)
	}
}

// report prints err in user-facing form and returns it.
func (a *App) report(err error) error {
	var verr *registration.Error
	if errors.As(err, &verr) {
		a.printf("%s", verr.Message)
		return err
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		a.printf("%s", apiErr.Error())
		if apiErr.RetryAfter > 0 {
			a.printf("Try again in %s.", apiErr.RetryAfter)
		}
		return err
	}

	if errors.Is(err, client.ErrUnavailable) {
		a.printf("Server unavailable, please try again later.")
		return err
	}

	a.printf("error: %s", strings.TrimSpace(err.Error()))
	return err
}
