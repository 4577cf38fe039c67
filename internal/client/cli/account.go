package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/mentorship/internal/client/client"
	"github.com/dmitrijs2005/mentorship/internal/common"
)

func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.Login(ctx, email, password); err != nil {
		return a.report(err)
	}

	acc, err := a.api.Me(ctx)
	if err != nil {
		return a.report(err)
	}

	a.userName = email
	a.role = acc.Role
	a.printf("Login successful")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	err := a.api.Logout(ctx)
	a.userName = ""
	a.role = ""
	if err != nil && !errors.Is(err, client.ErrUnauthorized) {
		return a.report(err)
	}
	a.printf("Logged out")
	return nil
}

func (a *App) Me(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.printf("Please login first")
		return client.ErrUnauthorized
	}
	acc, err := a.api.Me(ctx)
	if err != nil {
		return a.report(err)
	}
	if acc.Profile == nil {
		a.printf("%s: no profile", acc.Role)
		return nil
	}
	a.printProfile(acc.Role, acc.Profile)
	return nil
}

func (a *App) printProfile(role string, p *client.Profile) {
	a.printf("%-12s %s", "Role:", role)
	a.printf("%-12s %s", "Name:", p.DisplayName())
	a.printf("%-12s %s", "Email:", p.Email)
	if p.Description != nil {
		a.printf("%-12s %s", "Description:", *p.Description)
	}
}

// EditProfile asks for new values; an empty answer keeps the current one.
func (a *App) EditProfile(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.printf("Please login first")
		return client.ErrUnauthorized
	}

	var u client.ProfileUpdate
	switch a.role {
	case common.RoleStudent:
		name, err := getSimpleText(a.reader, "New full name (empty to keep)", a.out)
		if err != nil {
			return err
		}
		if name != "" {
			u.FullName = &name
		}
	case common.RoleOrganization:
		name, err := getSimpleText(a.reader, "New organization name (empty to keep)", a.out)
		if err != nil {
			return err
		}
		if name != "" {
			u.Name = &name
		}
		desc, err := getMultiline(a.reader, "New description (empty to keep)", a.out)
		if err != nil {
			return err
		}
		if desc != "" {
			u.Description = &desc
		}
	default:
		a.printf("This account has no editable profile")
		return nil
	}

	p, err := a.api.UpdateProfile(ctx, u)
	if err != nil {
		return a.report(err)
	}
	a.printProfile(a.role, p)
	return nil
}

func (a *App) Organizations(ctx context.Context) error {
	orgs, err := a.api.ListOrganizations(ctx)
	if err != nil {
		return a.report(err)
	}
	if len(orgs) == 0 {
		a.printf("No organizations yet")
		return nil
	}
	for _, o := range orgs {
		line := o.Name
		if o.Description != nil && *o.Description != "" {
			line += " - " + *o.Description
		}
		a.printf("%s", line)
	}
	return nil
}
