package registration

import (
	"context"

	"github.com/google/uuid"
)

// CheckpointStore is the remote copy of registration progress. Email is the
// only key, so two sessions for the same email overwrite each other.
type CheckpointStore interface {
	// LoadCheckpoint returns a REASON_CHECKPOINT_DOES_NOT_EXIST error when
	// nothing is saved for email.
	LoadCheckpoint(ctx context.Context, email string) (Checkpoint, error)
	SaveCheckpoint(ctx context.Context, checkpoint Checkpoint) error
	ClearCheckpoint(ctx context.Context, email string) error
}

type StepSaver interface {
	SaveStep(ctx context.Context, flow string, email string, step StepID, payload StepPayload) error
}

type Submitter interface {
	Submit(ctx context.Context, flow string, state State) (SubmitResult, error)
}

type SubmitResult struct {
	ID       uuid.UUID `json:"id"`
	TotalFee int64     `json:"totalFee"`
	Currency string    `json:"currency"`
}
