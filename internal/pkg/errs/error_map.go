/*
Package errs provides custom error types and application-level error code constants.

This file maps error codes to CustomError templates used for HTTP responses
and realtime event diagnostics.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:     {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 22xx: Presence Query Errors
	ErrUserNotFound: {Code: ErrUserNotFound, Message: "User not found or already left.", Status: http.StatusNotFound},

	// 23xx: Realtime Event Errors
	ErrInvalidEventPayload: {Code: ErrInvalidEventPayload, Message: "Invalid %s payload: %s."},
	ErrUnknownConnection:   {Code: ErrUnknownConnection, Message: "Connection has not logged in."},
	ErrConnectionNotActive: {Code: ErrConnectionNotActive, Message: "Connection is not active."},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
