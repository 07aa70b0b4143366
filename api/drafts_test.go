package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/sports-festival/festival-registration/registration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutStepDraft(t *testing.T) {
	t.Run("saves a valid payload", func(t *testing.T) {
		var gotFlow string
		var gotStep registration.StepID
		db := &mockDB{
			SaveStepFunc: func(ctx context.Context, flow string, email string, step registration.StepID, payload registration.StepPayload) error {
				gotFlow = flow
				gotStep = step
				assert.Equal(t, "amani@example.com", email)
				assert.Equal(t, personalDetails(), payload)
				return nil
			},
		}

		resp := newTestAPI(db, LOCAL).PutStepDraft(testCtx, PutStepDraftRequest{
			Flow:  "student",
			Email: "amani@example.com",
			Step:  "1",
			Body:  &StepPayloadBody{Payload: personalDetails()},
		})

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, "student", gotFlow)
		assert.Equal(t, registration.StepDetails, gotStep)
	})

	t.Run("unknown flow", func(t *testing.T) {
		resp := newTestAPI(&mockDB{}, LOCAL).PutStepDraft(testCtx, PutStepDraftRequest{
			Flow: "coach", Email: "amani@example.com", Step: "1",
			Body: &StepPayloadBody{Payload: personalDetails()},
		})

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("step not in the flow", func(t *testing.T) {
		// institutions have no guardian/medical step
		resp := newTestAPI(&mockDB{}, LOCAL).PutStepDraft(testCtx, PutStepDraftRequest{
			Flow: "institution", Email: "sports@kilimani.ac.ke", Step: "3",
			Body: &StepPayloadBody{Payload: personalDetails()},
		})

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("bad step", func(t *testing.T) {
		resp := newTestAPI(&mockDB{}, LOCAL).PutStepDraft(testCtx, PutStepDraftRequest{
			Flow: "student", Email: "amani@example.com", Step: "first",
			Body: &StepPayloadBody{Payload: personalDetails()},
		})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, InputValidationError, resp.Body.(Error).Code)
	})

	t.Run("empty body", func(t *testing.T) {
		resp := newTestAPI(&mockDB{}, LOCAL).PutStepDraft(testCtx, PutStepDraftRequest{
			Flow: "student", Email: "amani@example.com", Step: "1",
		})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, EmptyBody, resp.Body.(Error).Code)
	})

	t.Run("wrong payload kind for the step", func(t *testing.T) {
		resp := newTestAPI(&mockDB{}, LOCAL).PutStepDraft(testCtx, PutStepDraftRequest{
			Flow: "student", Email: "amani@example.com", Step: "1",
			Body: &StepPayloadBody{Payload: paymentDetails()},
		})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, InvalidBody, resp.Body.(Error).Code)
	})

	t.Run("invalid payload lists every field", func(t *testing.T) {
		details := personalDetails()
		details.FirstName = ""
		details.Phone = "12"

		resp := newTestAPI(&mockDB{}, LOCAL).PutStepDraft(testCtx, PutStepDraftRequest{
			Flow: "student", Email: "amani@example.com", Step: "1",
			Body: &StepPayloadBody{Payload: details},
		})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := resp.Body.(Error)
		assert.Equal(t, InputValidationError, body.Code)
		require.Len(t, body.Fields, 2)
		assert.Equal(t, "firstName", body.Fields[0].Field)
		assert.Equal(t, "phone", body.Fields[1].Field)
	})

	t.Run("storage failure", func(t *testing.T) {
		db := &mockDB{
			SaveStepFunc: func(ctx context.Context, flow string, email string, step registration.StepID, payload registration.StepPayload) error {
				return errors.New("throttled")
			},
		}

		resp := newTestAPI(db, LOCAL).PutStepDraft(testCtx, PutStepDraftRequest{
			Flow: "student", Email: "amani@example.com", Step: "1",
			Body: &StepPayloadBody{Payload: personalDetails()},
		})

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestGetStepDrafts(t *testing.T) {
	t.Run("returns every saved step", func(t *testing.T) {
		db := &mockDB{
			GetStepDraftsFunc: func(ctx context.Context, flow string, email string) (registration.StepData, error) {
				return registration.StepData{registration.StepDetails: personalDetails()}, nil
			},
		}

		resp := newTestAPI(db, LOCAL).GetStepDrafts(testCtx, GetStepDraftsRequest{Flow: "student", Email: "amani@example.com"})

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		drafts := resp.Body.(StepDrafts)
		assert.Equal(t, "student", drafts.Flow)
		assert.Equal(t, personalDetails(), drafts.Data[registration.StepDetails])
	})

	t.Run("storage failure", func(t *testing.T) {
		db := &mockDB{
			GetStepDraftsFunc: func(ctx context.Context, flow string, email string) (registration.StepData, error) {
				return nil, errors.New("throttled")
			},
		}

		resp := newTestAPI(db, LOCAL).GetStepDrafts(testCtx, GetStepDraftsRequest{Flow: "student", Email: "amani@example.com"})

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}
