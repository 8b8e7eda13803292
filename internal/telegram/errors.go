package telegram

import "errors"

var (
	ErrMissingSignature     = errors.New("telegram: init data has no hash")
	ErrSignatureMismatch    = errors.New("telegram: init data hash mismatch")
	ErrMalformedInitData    = errors.New("telegram: init data is not a valid query string")
	ErrMissingUserField     = errors.New("telegram: init data has no user field")
	ErrMalformedUserPayload = errors.New("telegram: user field is not a valid user object")
	ErrExpired              = errors.New("telegram: init data is too old")

	// ErrEmptySecret means the service itself is misconfigured, not the client.
	ErrEmptySecret = errors.New("telegram: bot token is not configured")
)

// IsConfigError reports whether err is a server-side configuration problem
// rather than a rejected client payload.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrEmptySecret)
}
