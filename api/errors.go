package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sports-festival/festival-registration/registration"
	"github.com/sports-festival/festival-registration/sports"
	"github.com/sports-festival/festival-registration/validation"
)

func validationErrorResponse(message string, errs validation.Errors) Response {
	return Response{
		StatusCode: http.StatusBadRequest,
		Body: Error{
			Message: message,
			Code:    InputValidationError,
			Fields:  errs,
		},
	}
}

func registrationErrorMessage(err error) string {
	var regErr *registration.Error
	if errors.As(err, &regErr) {
		return regErr.Message
	}
	return err.Error()
}

// registrationErrorResponse maps a failed registration attempt to the
// response the wizard gets back.
func registrationErrorResponse(logger *slog.Logger, err error) Response {
	var errs validation.Errors
	if errors.As(err, &errs) {
		return validationErrorResponse("Registration is invalid", errs)
	}

	var regErr *registration.Error
	if errors.As(err, &regErr) {
		switch regErr.Reason {
		case registration.REASON_INCOMPLETE_REGISTRATION:
			return errorResponse(http.StatusBadRequest, IncompleteRegistration, regErr.Message)
		case registration.REASON_STEP_NOT_ACCEPTED,
			registration.REASON_INVALID_PAYLOAD,
			registration.REASON_UNKNOWN_PAYLOAD_KIND:
			return errorResponse(http.StatusBadRequest, InvalidBody, regErr.Message)
		case registration.REASON_ASSOCIATED_SPORT_DOES_NOT_EXIST:
			return errorResponse(http.StatusBadRequest, NotFound, "A selected sport does not exist")
		case registration.REASON_REGISTRATION_ALREADY_EXISTS:
			return errorResponse(http.StatusConflict, AlreadyExists, "A registration already exists for this email")
		case registration.REASON_REGISTRATION_IS_CLOSED:
			return errorResponse(http.StatusForbidden, RegistrationClosed, regErr.Message)
		}
	}

	logger.Error("Failed to create registration", slog.String("error", err.Error()))

	return errorResponse(http.StatusInternalServerError, InternalError, "Failed to create the registration")
}

func sportsErrorResponse(logger *slog.Logger, err error, message string) Response {
	var sportErr *sports.Error
	if errors.As(err, &sportErr) {
		switch sportErr.Reason {
		case sports.REASON_SPORT_DOES_NOT_EXIST:
			return errorResponse(http.StatusNotFound, NotFound, "Sport does not exist")
		case sports.REASON_SPORT_ALREADY_EXISTS:
			return errorResponse(http.StatusConflict, AlreadyExists, "Sport already exists")
		case sports.REASON_VERSION_CONFLICT:
			return errorResponse(http.StatusConflict, VersionConflict, "Sport was changed by another request, retry")
		case sports.REASON_INVALID_CURSOR:
			return errorResponse(http.StatusBadRequest, InvalidCursor, "Passed in cursor is invalid")
		case sports.REASON_INVALID_SPORT:
			var errs validation.Errors
			if errors.As(err, &errs) {
				return validationErrorResponse("Sport is invalid", errs)
			}
			return errorResponse(http.StatusBadRequest, InputValidationError, sportErr.Message)
		}
	}

	logger.Error(message, slog.String("error", err.Error()))

	return errorResponse(http.StatusInternalServerError, InternalError, message)
}
