package dynamo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sports-festival/festival-registration/registration"
	"github.com/sports-festival/festival-registration/sports"
)

// emailMarkerDynamo claims an email for one record of an entity type.
type emailMarkerDynamo struct {
	PK       string
	SK       string
	RecordID string
}

func emailMarkerPK(entity string, email string) string {
	return fmt.Sprintf("%s_EMAIL#%s", entity, normalizeEmail(email))
}

// createRecord writes a new record, claims its email and bumps the selected
// sports in one transaction. The transaction items are ordered record,
// marker, then sports.
func (d *DB) createRecord(ctx context.Context, entity string, id string, email string, record map[string]types.AttributeValue, version int, selected []sports.Sport) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	marker, err := attributevalue.MarshalMap(emailMarkerDynamo{
		PK:       emailMarkerPK(entity, email),
		SK:       emailMarkerPK(entity, email),
		RecordID: id,
	})
	if err != nil {
		return registration.NewFailedToTranslateToDBModelError("Failed to translate email marker to dynamo model", err)
	}

	items := []types.TransactWriteItem{
		{Put: d.conditionalPut(record, newEntityVersionConditional(version))},
		{Put: d.conditionalPut(marker, uniqueMarkerConditional())},
	}

	for _, sport := range selected {
		sportItem, err := attributevalue.MarshalMap(newSportDynamo(sport))
		if err != nil {
			return registration.NewFailedToTranslateToDBModelError("Failed to translate sport to dynamo model", err)
		}
		items = append(items, types.TransactWriteItem{
			Put: d.conditionalPut(sportItem, existingEntityVersionConditional(sport.Version)),
		})
	}

	_, err = d.dynamoClient.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		var transactionFailedErr *types.TransactionCanceledException
		if errors.As(err, &transactionFailedErr) {
			failed := failedConditions(transactionFailedErr)
			if slices.Contains(failed, 0) {
				return registration.NewRegistrationAlreadyExistsError(fmt.Sprintf("Registration with ID %q already exists", id), err)
			}
			if slices.Contains(failed, 1) {
				return registration.NewRegistrationAlreadyExistsError(fmt.Sprintf("A registration already exists for %q", email), err)
			}
			return registration.NewFailedToWriteError("Version conflict error", err)
		} else if errors.Is(err, context.DeadlineExceeded) {
			return registration.NewTimeoutError("Create registration timed out")
		} else {
			return registration.NewFailedToWriteError("Failed TransactWriteItems call", err)
		}
	}

	return nil
}

func (d *DB) getRecord(ctx context.Context, pk string, sk string, out any) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	resp, err := d.dynamoClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key:       d.key(pk, sk),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return false, registration.NewTimeoutError("GetItem timed out")
		}
		return false, registration.NewFailedToFetchError(fmt.Sprintf("Failed to fetch %q", pk), err)
	}

	if len(resp.Item) == 0 {
		return false, nil
	}

	err = attributevalue.UnmarshalMap(resp.Item, out)
	if err != nil {
		panic(fmt.Sprintf("failed to unmarshal %q from dynamo: %s", pk, err))
	}

	return true, nil
}

func listError(err error, op string) error {
	if errors.Is(err, errInvalidCursor) {
		return registration.NewInvalidCursorError("Invalid cursor", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return registration.NewTimeoutError(op + " timed out")
	}
	return registration.NewFailedToFetchError(op+" failed", err)
}
