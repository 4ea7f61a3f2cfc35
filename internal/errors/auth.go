package errors

var (
	ErrInvalidCredentials = &DomainError{
		Kind:    KindUnauthorized,
		Code:    "INVALID_CREDENTIALS",
		Message: "invalid credentials",
	}
	ErrInvalidAPIKey = &DomainError{
		Kind:    KindUnauthorized,
		Code:    "INVALID_API_KEY",
		Message: "invalid API key",
	}
	ErrUnauthenticated = &DomainError{
		Kind:    KindUnauthorized,
		Code:    "UNAUTHENTICATED",
		Message: "authentication required",
	}
	ErrEmailTaken = &DomainError{
		Kind:    KindConflict,
		Code:    "EMAIL_TAKEN",
		Message: "email already taken",
	}
	ErrAPIKeyNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "API_KEY_NOT_FOUND",
		Message: "no API key found, generate one first",
	}
)
