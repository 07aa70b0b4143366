package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sports-festival/festival-registration/registration"
	"github.com/sports-festival/festival-registration/validation"
)

type PutStepDraftRequest struct {
	Flow  string
	Email string
	Step  string
	Body  *StepPayloadBody
}

// PutStepDraft stores the payload of one completed wizard step.
func (a *API) PutStepDraft(ctx context.Context, request PutStepDraftRequest) Response {
	logger := getLoggerFromCtx(ctx)

	flow, err := registration.FlowByName(request.Flow)
	if err != nil {
		return errorResponse(http.StatusNotFound, NotFound, registrationErrorMessage(err))
	}

	step, err := registration.ParseStepID(request.Step)
	if err != nil {
		return errorResponse(http.StatusBadRequest, InputValidationError, err.Error())
	}
	rule, ok := flow.Rule(step)
	if !ok {
		return errorResponse(http.StatusNotFound, NotFound, "Flow "+flow.Name+" has no step "+step.String())
	}

	if request.Body == nil || request.Body.Payload == nil {
		return errorResponse(http.StatusBadRequest, EmptyBody, "Must specify a JSON body in the request")
	}
	payload := request.Body.Payload

	if payload.Kind() != rule.Accepts {
		return errorResponse(http.StatusBadRequest, InvalidBody, registrationErrorMessage(registration.NewStepNotAcceptedError(step, payload.Kind())))
	}

	if err := payload.Validate(); err != nil {
		var errs validation.Errors
		if errors.As(err, &errs) {
			return validationErrorResponse("Step payload is invalid", errs)
		}
		return errorResponse(http.StatusBadRequest, InputValidationError, err.Error())
	}

	err = a.db.SaveStep(ctx, flow.Name, request.Email, step, payload)
	if err != nil {
		logger.Error("Failed to save step draft",
			slog.String("flow", flow.Name),
			slog.String("step", step.String()),
			slog.String("error", err.Error()))

		return errorResponse(http.StatusInternalServerError, InternalError, "Failed to save the step")
	}

	return noContent()
}

type GetStepDraftsRequest struct {
	Flow  string
	Email string
}

func (a *API) GetStepDrafts(ctx context.Context, request GetStepDraftsRequest) Response {
	logger := getLoggerFromCtx(ctx)

	flow, err := registration.FlowByName(request.Flow)
	if err != nil {
		return errorResponse(http.StatusNotFound, NotFound, registrationErrorMessage(err))
	}

	data, err := a.db.GetStepDrafts(ctx, flow.Name, request.Email)
	if err != nil {
		logger.Error("Failed to get step drafts", slog.String("error", err.Error()))

		return errorResponse(http.StatusInternalServerError, InternalError, "Failed to get the step drafts")
	}

	return jsonResponse(http.StatusOK, StepDrafts{
		Flow:  flow.Name,
		Email: request.Email,
		Data:  data,
	})
}
