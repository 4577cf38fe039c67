// Package cli provides the interactive registration client.
//
// Users register as a student or an organization, sign in, view and edit
// their profile and browse organizations. A background watcher polls the
// server's gRPC health service and shows online/offline in the prompt.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
