package media

import "errors"

var (
	// ErrNotConfigured is returned when a media service is used without an API key.
	ErrNotConfigured = errors.New("media: api key not configured")

	// ErrOperationNotFound is returned when polling an unknown or expired operation.
	ErrOperationNotFound = errors.New("media: operation not found")

	// ErrNoImage is returned when the model response contains no image data.
	ErrNoImage = errors.New("media: response contained no image")
)
