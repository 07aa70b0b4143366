package registration

import (
	"fmt"
	"time"
)

type ErrorReason string

const (
	REASON_FAILED_TO_TRANSLATE_TO_DB_MODEL ErrorReason = "FAILED_TO_TRANSLATE_TO_DB_MODEL"
	REASON_FAILED_TO_WRITE                 ErrorReason = "FAILED_TO_WRITE"
	REASON_FAILED_TO_FETCH                 ErrorReason = "FAILED_TO_FETCH"
	REASON_TIMEOUT                         ErrorReason = "TIMEOUT"
	REASON_INVALID_CURSOR                  ErrorReason = "INVALID_CURSOR"
	REASON_REGISTRATION_DOES_NOT_EXIST     ErrorReason = "REGISTRATION_DOES_NOT_EXIST"
	REASON_REGISTRATION_ALREADY_EXISTS     ErrorReason = "REGISTRATION_ALREADY_EXISTS"
	REASON_CHECKPOINT_DOES_NOT_EXIST       ErrorReason = "CHECKPOINT_DOES_NOT_EXIST"
	REASON_ASSOCIATED_SPORT_DOES_NOT_EXIST ErrorReason = "ASSOCIATED_SPORT_DOES_NOT_EXIST"
	REASON_INVALID_PAYLOAD                 ErrorReason = "INVALID_PAYLOAD"
	REASON_UNKNOWN_PAYLOAD_KIND            ErrorReason = "UNKNOWN_PAYLOAD_KIND"
	REASON_UNKNOWN_FLOW                    ErrorReason = "UNKNOWN_FLOW"
	REASON_STEP_NOT_ACCEPTED               ErrorReason = "STEP_NOT_ACCEPTED"
	REASON_INCOMPLETE_REGISTRATION         ErrorReason = "INCOMPLETE_REGISTRATION"
	REASON_EMAIL_NOT_SET                   ErrorReason = "EMAIL_NOT_SET"
	REASON_STEP_SAVE_FAILED                ErrorReason = "STEP_SAVE_FAILED"
	REASON_SUBMIT_FAILED                   ErrorReason = "SUBMIT_FAILED"
	REASON_REGISTRATION_IS_CLOSED          ErrorReason = "REGISTRATION_IS_CLOSED"
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

func newRegistrationError(reason ErrorReason, message string, cause error) *Error {
	return &Error{
		Reason:  reason,
		Message: message,
		Cause:   cause,
	}
}

func NewFailedToWriteError(message string, cause error) *Error {
	return newRegistrationError(REASON_FAILED_TO_WRITE, message, cause)
}

func NewFailedToTranslateToDBModelError(message string, cause error) *Error {
	return newRegistrationError(REASON_FAILED_TO_TRANSLATE_TO_DB_MODEL, message, cause)
}

func NewFailedToFetchError(message string, cause error) *Error {
	return newRegistrationError(REASON_FAILED_TO_FETCH, message, cause)
}

func NewTimeoutError(message string) *Error {
	return newRegistrationError(REASON_TIMEOUT, message, nil)
}

func NewInvalidCursorError(message string, cause error) *Error {
	return newRegistrationError(REASON_INVALID_CURSOR, message, cause)
}

func NewRegistrationAlreadyExistsError(message string, cause error) *Error {
	return newRegistrationError(REASON_REGISTRATION_ALREADY_EXISTS, message, cause)
}

func NewRegistrationDoesNotExistsError(message string, cause error) *Error {
	return newRegistrationError(REASON_REGISTRATION_DOES_NOT_EXIST, message, cause)
}

func NewCheckpointDoesNotExistError(message string) *Error {
	return newRegistrationError(REASON_CHECKPOINT_DOES_NOT_EXIST, message, nil)
}

func NewAssociatedSportDoesNotExistError(message string, cause error) *Error {
	return newRegistrationError(REASON_ASSOCIATED_SPORT_DOES_NOT_EXIST, message, cause)
}

func NewInvalidPayloadError(message string, cause error) *Error {
	return newRegistrationError(REASON_INVALID_PAYLOAD, message, cause)
}

func NewUnknownPayloadKindError(kind PayloadKind) *Error {
	return newRegistrationError(REASON_UNKNOWN_PAYLOAD_KIND, fmt.Sprintf("Unknown payload kind %q", kind), nil)
}

func NewUnknownFlowError(name string) *Error {
	return newRegistrationError(REASON_UNKNOWN_FLOW, fmt.Sprintf("Unknown registration flow %q", name), nil)
}

func NewStepNotAcceptedError(step StepID, kind PayloadKind) *Error {
	return newRegistrationError(REASON_STEP_NOT_ACCEPTED, fmt.Sprintf("Step %s does not accept a %q payload", step, kind), nil)
}

func NewIncompleteRegistrationError(missing []StepID) *Error {
	return newRegistrationError(REASON_INCOMPLETE_REGISTRATION, fmt.Sprintf("Registration is missing steps %v", missing), nil)
}

func NewEmailNotSetError() *Error {
	return newRegistrationError(REASON_EMAIL_NOT_SET, "An email must be set before registration progress can be saved", nil)
}

func NewStepSaveFailedError(step StepID, cause error) *Error {
	return newRegistrationError(REASON_STEP_SAVE_FAILED, fmt.Sprintf("Failed to save step %s", step), cause)
}

func NewSubmitFailedError(message string, cause error) *Error {
	return newRegistrationError(REASON_SUBMIT_FAILED, message, cause)
}

func NewRegistrationIsClosedError(closedAt time.Time) *Error {
	return newRegistrationError(REASON_REGISTRATION_IS_CLOSED, fmt.Sprintf("Registration closed at %s", closedAt.Format(time.RFC3339)), nil)
}
