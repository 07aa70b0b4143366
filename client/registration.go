package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sports-festival/festival-registration/api"
	"github.com/sports-festival/festival-registration/registration"
)

var (
	_ registration.CheckpointStore = (*Client)(nil)
	_ registration.StepSaver       = (*Client)(nil)
	_ registration.Submitter       = (*Client)(nil)
)

func (c *Client) LoadCheckpoint(ctx context.Context, email string) (registration.Checkpoint, error) {
	var checkpoint registration.Checkpoint

	err := c.do(ctx, "LoadCheckpoint", http.MethodGet, "/checkpoints/"+url.PathEscape(email), nil, &checkpoint)
	if isStatus(err, http.StatusNotFound) {
		return registration.Checkpoint{}, registration.NewCheckpointDoesNotExistError(fmt.Sprintf("No checkpoint saved for %q", email))
	}
	if err != nil {
		return registration.Checkpoint{}, registration.NewFailedToFetchError("Failed to load checkpoint", err)
	}

	return checkpoint, nil
}

func (c *Client) SaveCheckpoint(ctx context.Context, checkpoint registration.Checkpoint) error {
	err := c.do(ctx, "SaveCheckpoint", http.MethodPut, "/checkpoints/"+url.PathEscape(checkpoint.Email), checkpoint, nil)
	if err != nil {
		return registration.NewFailedToWriteError("Failed to save checkpoint", err)
	}
	return nil
}

func (c *Client) ClearCheckpoint(ctx context.Context, email string) error {
	err := c.do(ctx, "ClearCheckpoint", http.MethodDelete, "/checkpoints/"+url.PathEscape(email), nil, nil)
	if err != nil {
		return registration.NewFailedToWriteError("Failed to clear checkpoint", err)
	}
	return nil
}

func (c *Client) SaveStep(ctx context.Context, flow string, email string, step registration.StepID, payload registration.StepPayload) error {
	path := fmt.Sprintf("/drafts/%s/%s/steps/%s", url.PathEscape(flow), url.PathEscape(email), strconv.Itoa(int(step)))

	err := c.do(ctx, "SaveStep", http.MethodPut, path, api.StepPayloadBody{Payload: payload}, nil)
	if err != nil {
		return registration.NewFailedToWriteError(fmt.Sprintf("Failed to save %s step", step), err)
	}
	return nil
}

// GetStepDrafts returns every step saved for the registration, keyed by step.
func (c *Client) GetStepDrafts(ctx context.Context, flow string, email string) (registration.StepData, error) {
	var drafts api.StepDrafts

	path := fmt.Sprintf("/drafts/%s/%s", url.PathEscape(flow), url.PathEscape(email))
	err := c.do(ctx, "GetStepDrafts", http.MethodGet, path, nil, &drafts)
	if err != nil {
		return nil, registration.NewFailedToFetchError("Failed to get step drafts", err)
	}

	return drafts.Data, nil
}

// Submit sends the completed registration. Rejections keep the API's status
// and code in the returned *APIError.
func (c *Client) Submit(ctx context.Context, flow string, state registration.State) (registration.SubmitResult, error) {
	var path string
	switch flow {
	case registration.StudentFlow.Name:
		path = "/students"
	case registration.InstitutionFlow.Name:
		path = "/institutions"
	default:
		return registration.SubmitResult{}, registration.NewUnknownFlowError(flow)
	}

	var receipt api.RegistrationReceipt
	err := c.do(ctx, "Submit", http.MethodPost, path, api.SubmitRegistration{
		Email: state.Email,
		Data:  state.Data,
	}, &receipt, withHeader("cf-turnstile-response", c.captchaToken))
	if err != nil {
		return registration.SubmitResult{}, err
	}

	return registration.SubmitResult{
		ID:       receipt.Id,
		TotalFee: receipt.TotalFee.Amount,
		Currency: receipt.TotalFee.Currency,
	}, nil
}
