// Package client talks to the registration service.
//
// APIClient implements Client over the JSON API and keeps the access token of
// the signed-in user. HealthChecker asks the gRPC health service whether the
// server is up.
//
// Failures are reported as *APIError carrying the server's error code and
// user-facing message. Transport failures match ErrUnavailable and missing
// or rejected tokens match ErrUnauthorized with errors.Is.
package client
