package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sports-festival/festival-registration/registration"
)

type GetCheckpointRequest struct {
	Email string
}

func (a *API) GetCheckpoint(ctx context.Context, request GetCheckpointRequest) Response {
	logger := getLoggerFromCtx(ctx)

	checkpoint, err := a.db.LoadCheckpoint(ctx, request.Email)
	if err != nil {
		var regErr *registration.Error
		if errors.As(err, &regErr) && regErr.Reason == registration.REASON_CHECKPOINT_DOES_NOT_EXIST {
			return errorResponse(http.StatusNotFound, NotFound, "No checkpoint saved for this email")
		}

		logger.Error("Failed to load checkpoint", slog.String("error", err.Error()))

		return errorResponse(http.StatusInternalServerError, InternalError, "Failed to load the checkpoint")
	}

	return jsonResponse(http.StatusOK, checkpoint)
}

type PutCheckpointRequest struct {
	Email string
	Body  *registration.Checkpoint
}

// PutCheckpoint replaces whatever is saved for the email. The last write
// wins.
func (a *API) PutCheckpoint(ctx context.Context, request PutCheckpointRequest) Response {
	logger := getLoggerFromCtx(ctx)

	if request.Body == nil {
		return errorResponse(http.StatusBadRequest, EmptyBody, "Must specify a JSON body in the request")
	}

	checkpoint := *request.Body
	if checkpoint.Email != "" && !strings.EqualFold(strings.TrimSpace(checkpoint.Email), strings.TrimSpace(request.Email)) {
		return errorResponse(http.StatusBadRequest, InvalidBody, "Checkpoint email does not match the path")
	}
	checkpoint.Email = request.Email

	flow, err := registration.FlowByName(checkpoint.Flow)
	if err != nil {
		return errorResponse(http.StatusBadRequest, InvalidBody, registrationErrorMessage(err))
	}
	if err := checkSteps(flow, checkpoint); err != nil {
		return errorResponse(http.StatusBadRequest, InvalidBody, err.Error())
	}
	if err := checkStepData(flow, checkpoint.Data); err != nil {
		return errorResponse(http.StatusBadRequest, InvalidBody, registrationErrorMessage(err))
	}

	if checkpoint.UpdatedAt.IsZero() {
		checkpoint.UpdatedAt = a.now()
	}

	err = a.db.SaveCheckpoint(ctx, checkpoint)
	if err != nil {
		logger.Error("Failed to save checkpoint", slog.String("error", err.Error()))

		return errorResponse(http.StatusInternalServerError, InternalError, "Failed to save the checkpoint")
	}

	return noContent()
}

type DeleteCheckpointRequest struct {
	Email string
}

func (a *API) DeleteCheckpoint(ctx context.Context, request DeleteCheckpointRequest) Response {
	logger := getLoggerFromCtx(ctx)

	err := a.db.ClearCheckpoint(ctx, request.Email)
	if err != nil {
		logger.Error("Failed to clear checkpoint", slog.String("error", err.Error()))

		return errorResponse(http.StatusInternalServerError, InternalError, "Failed to clear the checkpoint")
	}

	return noContent()
}

// checkSteps makes sure the current and completed steps are all steps of flow.
func checkSteps(flow registration.Flow, checkpoint registration.Checkpoint) error {
	if _, ok := flow.Rule(checkpoint.Step); !ok {
		return fmt.Errorf("flow %s has no step %d", flow.Name, int(checkpoint.Step))
	}
	for _, step := range checkpoint.CompletedSteps {
		if _, ok := flow.Rule(step); !ok {
			return fmt.Errorf("flow %s has no completed step %d", flow.Name, int(step))
		}
	}
	return nil
}

// checkStepData makes sure every payload sits on a step of flow that accepts
// its kind.
func checkStepData(flow registration.Flow, data registration.StepData) error {
	for step, payload := range data {
		rule, ok := flow.Rule(step)
		if !ok {
			return fmt.Errorf("flow %s has no step %d", flow.Name, int(step))
		}
		if rule.Accepts != payload.Kind() {
			return registration.NewStepNotAcceptedError(step, payload.Kind())
		}
	}
	return nil
}
