package errors

import "errors"

var (
	ErrUserNotFound       = errors.New("User not found")
	ErrTaskNotFound       = errors.New("Todo not found")
	ErrInvalidCredentials = errors.New("Could not validate credentials")
	ErrIncorrectPassword  = errors.New("Incorrect password")
	ErrUserAlreadyExists  = errors.New("username or email already registered")
	ErrValidationFailed   = errors.New("validation failed")
	ErrUnauthorized       = errors.New("Could not validate credentials")
	ErrForbidden          = errors.New("User not authorized")
	ErrInternalServer     = errors.New("internal server error")
	ErrBadRequest         = errors.New("invalid request")
	ErrNotFound           = errors.New("resource not found")
	ErrConflict           = errors.New("resource conflict")
	ErrStoreUnavailable   = errors.New("storage unavailable")

	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrTokenExpired     = errors.New("token is expired")
	ErrMalformedClaims  = errors.New("token claims are incomplete")
	ErrMalformedToken   = errors.New("token is malformed")

	ErrMissingSecretKey     = errors.New("signing secret key is not configured")
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
	ErrInvalidHashCost      = errors.New("invalid password hashing cost")
	ErrEmptyPassword        = errors.New("password must not be empty")

	ErrConfigFileReadFailed = errors.New("failed to read config file")
	ErrConfigParseFailed    = errors.New("failed to parse config file")
	ErrConfigInvalidFormat  = errors.New("invalid config value")

	ErrInvalidGzipRequest    = errors.New("invalid gzip request body")
	ErrGzipCompressionFailed = errors.New("gzip compression failed")

	ErrInvalidPhoneNumber = errors.New("invalid phone number")
	ErrInvalidTaskID      = errors.New("id must be a positive integer")
)
