package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/sports-festival/festival-registration/registration"
)

var _ registration.StepSaver = &DB{}

// stepDraftDynamo is the last answer saved for one step of one registration.
// Every step of a registration shares a partition.
type stepDraftDynamo struct {
	PK        string
	SK        string
	Flow      string
	Email     string
	Step      int
	Payload   string
	UpdatedAt time.Time
}

const (
	draftEntityName = "DRAFT"
	stepEntityName  = "STEP"
)

func draftPK(flow string, email string) string {
	return fmt.Sprintf("%s#%s#%s", draftEntityName, flow, normalizeEmail(email))
}

func draftSK(step registration.StepID) string {
	return fmt.Sprintf("%s#%d", stepEntityName, step)
}

func (d *DB) SaveStep(ctx context.Context, flow string, email string, step registration.StepID, payload registration.StepPayload) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	raw, err := registration.MarshalPayload(payload)
	if err != nil {
		return registration.NewFailedToTranslateToDBModelError("Failed to encode step payload", err)
	}

	item, err := attributevalue.MarshalMap(stepDraftDynamo{
		PK:        draftPK(flow, email),
		SK:        draftSK(step),
		Flow:      flow,
		Email:     email,
		Step:      int(step),
		Payload:   string(raw),
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return registration.NewFailedToTranslateToDBModelError("Failed to convert step draft to dynamo model", err)
	}

	_, err = d.dynamoClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      item,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return registration.NewTimeoutError("SaveStep timed out")
		}
		return registration.NewFailedToWriteError("Failed PutItem call", err)
	}

	return nil
}

// GetStepDrafts returns every step saved for the registration.
func (d *DB) GetStepDrafts(ctx context.Context, flow string, email string) (registration.StepData, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	keyCond := expression.Key("PK").Equal(expression.Value(draftPK(flow, email))).
		And(expression.Key("SK").BeginsWith(stepEntityName))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build dynamo key expression: %s", err))
	}

	result, err := d.dynamoClient.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(d.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, registration.NewTimeoutError("GetStepDrafts timed out")
		}
		return nil, registration.NewFailedToFetchError("Failed to fetch step drafts from dynamo", err)
	}

	var drafts []stepDraftDynamo
	err = attributevalue.UnmarshalListOfMaps(result.Items, &drafts)
	if err != nil {
		panic(fmt.Sprintf("failed to unmarshal step drafts: %s", err))
	}

	data := registration.StepData{}
	for _, draft := range drafts {
		payload, err := registration.UnmarshalPayload([]byte(draft.Payload))
		if err != nil {
			return nil, registration.NewFailedToTranslateToDBModelError(fmt.Sprintf("Stored draft for step %d is unreadable", draft.Step), err)
		}
		data[registration.StepID(draft.Step)] = payload
	}

	return data, nil
}
