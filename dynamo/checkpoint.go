package dynamo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/sports-festival/festival-registration/registration"
)

var _ registration.CheckpointStore = &DB{}

// checkpointDynamo keeps step data as the JSON the wizard sends so payload
// kinds survive the round trip.
type checkpointDynamo struct {
	PK             string
	SK             string
	Email          string
	Flow           string
	Step           int
	CompletedSteps []int
	Data           string
	UpdatedAt      time.Time
}

const (
	checkpointEntityName = "CHECKPOINT"
)

func checkpointPK(email string) string {
	return fmt.Sprintf("%s#%s", checkpointEntityName, normalizeEmail(email))
}

func checkpointSK(email string) string {
	return checkpointPK(email)
}

func newCheckpointDynamo(c registration.Checkpoint) (checkpointDynamo, error) {
	data, err := json.Marshal(c.Data)
	if err != nil {
		return checkpointDynamo{}, err
	}

	completed := make([]int, 0, len(c.CompletedSteps))
	for _, s := range c.CompletedSteps {
		completed = append(completed, int(s))
	}

	return checkpointDynamo{
		PK:             checkpointPK(c.Email),
		SK:             checkpointSK(c.Email),
		Email:          c.Email,
		Flow:           c.Flow,
		Step:           int(c.Step),
		CompletedSteps: completed,
		Data:           string(data),
		UpdatedAt:      c.UpdatedAt,
	}, nil
}

func checkpointFromDynamo(c checkpointDynamo) (registration.Checkpoint, error) {
	data := registration.StepData{}
	if c.Data != "" {
		err := json.Unmarshal([]byte(c.Data), &data)
		if err != nil {
			return registration.Checkpoint{}, err
		}
	}

	completed := make([]registration.StepID, 0, len(c.CompletedSteps))
	for _, s := range c.CompletedSteps {
		completed = append(completed, registration.StepID(s))
	}

	return registration.Checkpoint{
		Email:          c.Email,
		Flow:           c.Flow,
		Step:           registration.StepID(c.Step),
		CompletedSteps: registration.NewStepSet(completed...),
		Data:           data,
		UpdatedAt:      c.UpdatedAt,
	}, nil
}

func (d *DB) LoadCheckpoint(ctx context.Context, email string) (registration.Checkpoint, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	resp, err := d.dynamoClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key:       d.key(checkpointPK(email), checkpointSK(email)),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return registration.Checkpoint{}, registration.NewTimeoutError("LoadCheckpoint timed out")
		}
		return registration.Checkpoint{}, registration.NewFailedToFetchError(fmt.Sprintf("Failed to fetch checkpoint for %q", email), err)
	}

	if len(resp.Item) == 0 {
		return registration.Checkpoint{}, registration.NewCheckpointDoesNotExistError(fmt.Sprintf("No checkpoint saved for %q", email))
	}

	var item checkpointDynamo
	err = attributevalue.UnmarshalMap(resp.Item, &item)
	if err != nil {
		panic(fmt.Sprintf("failed to unmarshal checkpoint from DB: %s", err))
	}

	checkpoint, err := checkpointFromDynamo(item)
	if err != nil {
		return registration.Checkpoint{}, registration.NewFailedToTranslateToDBModelError("Stored checkpoint data is unreadable", err)
	}

	return checkpoint, nil
}

// SaveCheckpoint overwrites whatever is stored for the email.
func (d *DB) SaveCheckpoint(ctx context.Context, checkpoint registration.Checkpoint) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	dynamoItem, err := newCheckpointDynamo(checkpoint)
	if err != nil {
		return registration.NewFailedToTranslateToDBModelError("Failed to convert Checkpoint to checkpointDynamo", err)
	}

	item, err := attributevalue.MarshalMap(dynamoItem)
	if err != nil {
		return registration.NewFailedToTranslateToDBModelError("Failed to convert Checkpoint to checkpointDynamo", err)
	}

	_, err = d.dynamoClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      item,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return registration.NewTimeoutError("SaveCheckpoint timed out")
		}
		return registration.NewFailedToWriteError("Failed PutItem call", err)
	}

	return nil
}

func (d *DB) ClearCheckpoint(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	_, err := d.dynamoClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.tableName),
		Key:       d.key(checkpointPK(email), checkpointSK(email)),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return registration.NewTimeoutError("ClearCheckpoint timed out")
		}
		return registration.NewFailedToWriteError("Failed DeleteItem call", err)
	}

	return nil
}
