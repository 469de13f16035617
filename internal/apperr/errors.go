package apperr

import (
	"errors"

	"objectsrecognition/internal/dto"
)

// Error kinds. Errors are wrapped with fmt.Errorf("%w: ...", Err...) and
// classified with errors.Is.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrTransport    = errors.New("transport failure")
	ErrService      = errors.New("service failure")
	ErrPersistence  = errors.New("persistence failure")
	ErrUnavailable  = errors.New("service unavailable")
)

// Kind returns the sentinel err wraps, or nil for unclassified errors.
func Kind(err error) error {
	for _, kind := range []error{ErrInvalidInput, ErrTransport, ErrService, ErrPersistence, ErrUnavailable} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Notice turns err into a user-visible message. The wording depends only on
// the error kind so internal details stay in the logs.
func Notice(caption string, err error) dto.Notice {
	var message string
	switch Kind(err) {
	case ErrInvalidInput:
		message = "The selected media is empty or has an unsupported format."
	case ErrTransport:
		message = "Could not reach the recognition service."
	case ErrService:
		message = "The recognition service returned an error."
	case ErrPersistence:
		message = "Could not save recognition results."
	case ErrUnavailable:
		message = "The recognition service is not connected. Connect first."
	default:
		message = "An unexpected error occurred."
	}
	return dto.Notice{Caption: caption, Message: message}
}
