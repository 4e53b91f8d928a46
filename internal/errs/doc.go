// Package errs defines the error taxonomy shared by the patch and preload
// paths. Every failure is an *Error carrying a Kind, so callers can branch
// with errors.Is against the Err* sentinels while still getting the file,
// offset or mod that triggered it from the message.
package errs
