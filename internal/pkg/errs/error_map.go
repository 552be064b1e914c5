package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrNotFound:              {Code: ErrNotFound, Message: "Resource not found.", Status: http.StatusNotFound},

	// 2xxx: Roster, Log and Chat Business Logic Errors
	ErrStudentNotFound:       {Code: ErrStudentNotFound, Message: "Student not found.", Status: http.StatusNotFound},
	ErrStudentEmailExists:    {Code: ErrStudentEmailExists, Message: "A student with this email already exists.", Status: http.StatusConflict},
	ErrStudentFieldsRequired: {Code: ErrStudentFieldsRequired, Message: "Fields firstName, lastName and email are required.", Status: http.StatusBadRequest},
	ErrLogNotFound:           {Code: ErrLogNotFound, Message: "Log entry not found.", Status: http.StatusNotFound},
	ErrLogActionInvalid:      {Code: ErrLogActionInvalid, Message: "Invalid action type.", Status: http.StatusBadRequest},
	ErrMessageEmpty:          {Code: ErrMessageEmpty, Message: "Message cannot be empty.", Status: http.StatusBadRequest},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long.", Status: http.StatusBadRequest},
	ErrFileSizeTooLarge:      {Code: ErrFileSizeTooLarge, Message: "File is too large (max %d MB).", Status: http.StatusBadRequest},
	ErrFileTypeInvalid:       {Code: ErrFileTypeInvalid, Message: "Only JPEG, PNG and WebP images are allowed.", Status: http.StatusBadRequest},
	ErrPhotoKeyInvalid:       {Code: ErrPhotoKeyInvalid, Message: "Invalid photo.", Status: http.StatusBadRequest},

	// 3xxx: User, Session, and Security Errors
	ErrUnauthorized:       {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrForbidden:          {Code: ErrForbidden, Message: "Access denied. Administrator rights required.", Status: http.StatusForbidden},
	ErrSessionKicked:      {Code: ErrSessionKicked, Message: "Your session was closed by an administrator.", Status: http.StatusUnauthorized},
	ErrAuthMissing:        {Code: ErrAuthMissing, Message: "Authentication token missing.", Status: http.StatusUnauthorized},
	ErrAuthInvalid:        {Code: ErrAuthInvalid, Message: "Authentication token invalid.", Status: http.StatusUnauthorized},
	ErrAuthExpired:        {Code: ErrAuthExpired, Message: "Authentication token expired.", Status: http.StatusUnauthorized},
	ErrAuthUserNotFound:   {Code: ErrAuthUserNotFound, Message: "User not found.", Status: http.StatusUnauthorized},
	ErrInvalidCredentials: {Code: ErrInvalidCredentials, Message: "Incorrect email or password.", Status: http.StatusUnauthorized},
	ErrUserAlreadyExists:  {Code: ErrUserAlreadyExists, Message: "A user with this email already exists.", Status: http.StatusConflict},
	ErrUserNotFound:       {Code: ErrUserNotFound, Message: "User not found.", Status: http.StatusNotFound},
	ErrInvalidPassword:    {Code: ErrInvalidPassword, Message: "Password must be between 6 and 72 characters.", Status: http.StatusBadRequest},
	ErrInvalidRole:        {Code: ErrInvalidRole, Message: "Role must be admin or user.", Status: http.StatusBadRequest},
	ErrCannotDeleteSelf:   {Code: ErrCannotDeleteSelf, Message: "You cannot delete your own account.", Status: http.StatusBadRequest},

	// 5xxx: Internal System Errors
	ErrUnknown:            {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrFileStorageFailed:  {Code: ErrFileStorageFailed, Message: "File storage failed. Please try again.", Status: http.StatusBadGateway},
	ErrStorageUnavailable: {Code: ErrStorageUnavailable, Message: "Photo storage is not configured.", Status: http.StatusServiceUnavailable},
}
