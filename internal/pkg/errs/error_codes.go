/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRequestEntityTooLarge indicates that the request body size exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007

	// ErrNotFound indicates that the requested route or resource does not exist.
	ErrNotFound = 1008
)

// 2xxx: Roster, Log and Chat Business Logic Errors
const (
	// ErrStudentNotFound indicates that no student matches the given id.
	ErrStudentNotFound = 2101

	// ErrStudentEmailExists indicates that another student already uses the email.
	ErrStudentEmailExists = 2102

	// ErrStudentFieldsRequired indicates that first name, last name or email is missing.
	ErrStudentFieldsRequired = 2103

	// ErrLogNotFound indicates that no activity entry matches the given id.
	ErrLogNotFound = 2201

	// ErrLogActionInvalid indicates an action type outside the allowed set.
	ErrLogActionInvalid = 2202

	// ErrMessageEmpty indicates the chat message is empty after trimming.
	ErrMessageEmpty = 2301

	// ErrMessageContentTooLong indicates that the user's message content exceeded the maximum length limit.
	ErrMessageContentTooLong = 2302

	// ErrFileSizeTooLarge indicates that the photo exceeds the size limit.
	ErrFileSizeTooLarge = 2401

	// ErrFileTypeInvalid indicates that the photo type is not accepted.
	ErrFileTypeInvalid = 2402

	// ErrPhotoKeyInvalid indicates that the photo key does not belong to the student or does not exist.
	ErrPhotoKeyInvalid = 2403
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrUnauthorized indicates that the caller is not authenticated.
	ErrUnauthorized = 3001

	// ErrForbidden indicates that the caller lacks the role required for the operation.
	ErrForbidden = 3002

	// ErrSessionKicked indicates that the current connection was terminated by an administrator.
	ErrSessionKicked = 3004

	// ErrAuthMissing indicates that no credential was supplied.
	ErrAuthMissing = 3101

	// ErrAuthInvalid indicates a malformed token or bad signature.
	ErrAuthInvalid = 3102

	// ErrAuthExpired indicates that the token is past its expiry.
	ErrAuthExpired = 3103

	// ErrAuthUserNotFound indicates that the token subject no longer exists.
	ErrAuthUserNotFound = 3104

	// ErrInvalidCredentials indicates a wrong email/password combination.
	ErrInvalidCredentials = 3201

	// ErrUserAlreadyExists indicates that the email is already registered.
	ErrUserAlreadyExists = 3202

	// ErrUserNotFound indicates that no account matches the given id.
	ErrUserNotFound = 3203

	// ErrInvalidPassword indicates a password outside the accepted length.
	ErrInvalidPassword = 3204

	// ErrInvalidRole indicates a role other than admin or user.
	ErrInvalidRole = 3205

	// ErrCannotDeleteSelf indicates that an administrator attempted to delete their own account.
	ErrCannotDeleteSelf = 3206
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrFileStorageFailed indicates a failure talking to object storage.
	ErrFileStorageFailed = 5001

	// ErrStorageUnavailable indicates that photo storage is not configured.
	ErrStorageUnavailable = 5002
)
