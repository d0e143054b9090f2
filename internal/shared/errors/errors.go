package errors

import "errors"

// Configuration errors
var (
	ErrMissingAuthKey     = errors.New("ASKANON_AUTH_HMAC_SECRET or ASKANON_AUTH_PUBLIC_KEY_FILE is required")
	ErrMissingDatabaseURL = errors.New("ASKANON_DATABASE_URL is required for the postgres storage driver")
)

// Storage errors
var (
	ErrNotFound          = errors.New("document not found")
	ErrInvalidField      = errors.New("invalid field name")
	ErrMissingDocumentID = errors.New("document id is required")
)

// Domain errors
var (
	ErrEmptyQuestion    = errors.New("question text is empty")
	ErrEmptyAnswer      = errors.New("answer text is empty")
	ErrTooManyWords     = errors.New("answer exceeds the word limit")
	ErrQuestionNotFound = errors.New("question not found")
)

// Auth errors
var (
	ErrMissingToken = errors.New("missing identity token")
	ErrInvalidToken = errors.New("invalid identity token")
	ErrNotAdmin     = errors.New("identity is not an admin")
	ErrMintDisabled = errors.New("token minting requires an HMAC secret")
)

// IsValidation reports whether err is caused by bad visitor input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyQuestion) ||
		errors.Is(err, ErrEmptyAnswer) ||
		errors.Is(err, ErrTooManyWords)
}

// IsNotFound reports whether err means the requested entity does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrQuestionNotFound)
}
