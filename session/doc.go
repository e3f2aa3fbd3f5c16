// Package session reacts to authentication failures.
//
// When a request fails with an Authentication error, Hook.OnAuthFailure
// clears the stored credential and sends the user to the login screen,
// unless they are already there. Concurrent failures collapse into one
// clear and one redirect.
package session
