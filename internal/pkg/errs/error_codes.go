/*
Package errs provides custom error types and application-level error code constants.

These error codes identify request, event and system failures both internally
within the server and in HTTP responses to clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 22xx: Presence Query Errors
const (
	// ErrUserNotFound indicates that no logged-in user exists for the requested connection id.
	ErrUserNotFound = 2201
)

// 23xx: Realtime Event Errors
const (
	// ErrInvalidEventPayload indicates that an inbound event payload is missing required fields or has the wrong shape.
	ErrInvalidEventPayload = 2301

	// ErrUnknownConnection indicates that an event references a connection with no registered user.
	ErrUnknownConnection = 2302

	// ErrConnectionNotActive indicates that an event arrived for a connection that is not open.
	ErrConnectionNotActive = 2303
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
