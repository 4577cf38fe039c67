package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	RegisterStudent(ctx context.Context) error
	RegisterOrganization(ctx context.Context) error
	Login(ctx context.Context) error
	Me(ctx context.Context) error
	EditProfile(ctx context.Context) error
	Organizations(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL reads commands from scanner until EOF or "exit"/"quit".
//
//	Not logged in:
//	  - student        register as a student
//	  - organization   register as an organization
//	  - login          sign in
//	  - orgs           list organizations
//
//	Logged in:
//	  - me             show your profile
//	  - edit           edit your profile
//	  - orgs           list organizations
//	  - logout         sign out
//
// Command errors are reported by the handlers themselves.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("mentorship %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: me, edit, orgs, logout, exit")
			} else {
				printlnFn("Available commands: student, organization, login, orgs, exit")
			}

		case "student":
			_ = a.RegisterStudent(ctx)

		case "organization", "org":
			_ = a.RegisterOrganization(ctx)

		case "login":
			_ = a.Login(ctx)

		case "me":
			_ = a.Me(ctx)

		case "edit":
			_ = a.EditProfile(ctx)

		case "orgs":
			_ = a.Organizations(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
