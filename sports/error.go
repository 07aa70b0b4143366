package sports

import "fmt"

type ErrorReason string

const (
	REASON_FAILED_TO_TRANSLATE_TO_DB_MODEL ErrorReason = "FAILED_TO_TRANSLATE_TO_DB_MODEL"
	REASON_FAILED_TO_WRITE                 ErrorReason = "FAILED_TO_WRITE"
	REASON_SPORT_DOES_NOT_EXIST            ErrorReason = "SPORT_DOES_NOT_EXIST"
	REASON_SPORT_ALREADY_EXISTS            ErrorReason = "SPORT_ALREADY_EXISTS"
	REASON_FAILED_TO_FETCH                 ErrorReason = "FAILED_TO_FETCH"
	REASON_INVALID_CURSOR                  ErrorReason = "INVALID_CURSOR"
	REASON_INVALID_SPORT                   ErrorReason = "INVALID_SPORT"
	REASON_VERSION_CONFLICT                ErrorReason = "VERSION_CONFLICT"
	REASON_TIMEOUT                         ErrorReason = "TIMEOUT"
)

type Error struct {
	Reason  ErrorReason
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s. Cause: %s", e.Reason, e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newSportError(reason ErrorReason, message string, cause error) *Error {
	return &Error{
		Reason:  reason,
		Message: message,
		Cause:   cause,
	}
}

func NewFailedToWriteError(message string, cause error) *Error {
	return newSportError(REASON_FAILED_TO_WRITE, message, cause)
}

func NewFailedToTranslateToDBModelError(message string, cause error) *Error {
	return newSportError(REASON_FAILED_TO_TRANSLATE_TO_DB_MODEL, message, cause)
}

func NewSportAlreadyExistsError(message string, cause error) *Error {
	return newSportError(REASON_SPORT_ALREADY_EXISTS, message, cause)
}

func NewSportDoesNotExistsError(message string, cause error) *Error {
	return newSportError(REASON_SPORT_DOES_NOT_EXIST, message, cause)
}

func NewFailedToFetchError(message string, cause error) *Error {
	return newSportError(REASON_FAILED_TO_FETCH, message, cause)
}

func NewInvalidCursorError(message string, cause error) *Error {
	return newSportError(REASON_INVALID_CURSOR, message, cause)
}

func NewInvalidSportError(message string, cause error) *Error {
	return newSportError(REASON_INVALID_SPORT, message, cause)
}

func NewVersionConflictError(message string, cause error) *Error {
	return newSportError(REASON_VERSION_CONFLICT, message, cause)
}

func NewTimeoutError(message string) *Error {
	return newSportError(REASON_TIMEOUT, message, nil)
}
