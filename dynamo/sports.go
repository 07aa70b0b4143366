package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/sports-festival/festival-registration/slices"
	"github.com/sports-festival/festival-registration/sports"
)

var _ sports.Repository = &DB{}

type sportDynamo struct {
	PK              string
	SK              string
	GSI1PK          string
	GSI1SK          string
	ID              string
	Version         int
	Name            string
	Category        sports.Category
	AgeGroups       []string
	Disciplines     []string
	NumStudents     int
	NumInstitutions int
}

const (
	sportEntityName = "SPORT"
)

func sportPK(id uuid.UUID) string {
	return fmt.Sprintf("%s#%s", sportEntityName, id)
}

func sportSK(id uuid.UUID) string {
	return fmt.Sprintf("%s#%s", sportEntityName, id)
}

func newSportDynamo(sport sports.Sport) sportDynamo {
	return sportDynamo{
		PK:     sportPK(sport.ID),
		SK:     sportSK(sport.ID),
		GSI1PK: sportEntityName,
		// listed alphabetically
		GSI1SK:          fmt.Sprintf("%s#%s#%s", sportEntityName, strings.ToLower(sport.Name), sport.ID),
		ID:              sport.ID.String(),
		Version:         sport.Version,
		Name:            sport.Name,
		Category:        sport.Category,
		AgeGroups:       sport.AgeGroups,
		Disciplines:     sport.Disciplines,
		NumStudents:     sport.NumStudents,
		NumInstitutions: sport.NumInstitutions,
	}
}

func sportFromSportDynamo(sport sportDynamo) sports.Sport {
	return sports.Sport{
		ID:              uuid.MustParse(sport.ID),
		Version:         sport.Version,
		Name:            sport.Name,
		Category:        sport.Category,
		AgeGroups:       sport.AgeGroups,
		Disciplines:     sport.Disciplines,
		NumStudents:     sport.NumStudents,
		NumInstitutions: sport.NumInstitutions,
	}
}

func (d *DB) GetSport(ctx context.Context, id uuid.UUID) (sports.Sport, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	resp, err := d.dynamoClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key:       d.key(sportPK(id), sportSK(id)),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return sports.Sport{}, sports.NewTimeoutError("GetSport timed out")
		}
		return sports.Sport{}, sports.NewFailedToFetchError(fmt.Sprintf("Failed to fetch sport with ID %q", id), err)
	}

	if len(resp.Item) == 0 {
		return sports.Sport{}, sports.NewSportDoesNotExistsError(fmt.Sprintf("Sport with ID %q not found", id), nil)
	}

	var sport sportDynamo
	err = attributevalue.UnmarshalMap(resp.Item, &sport)
	if err != nil {
		panic(fmt.Sprintf("failed to unmarshal sport from DB: %s", err))
	}
	return sportFromSportDynamo(sport), nil
}

func (d *DB) GetSports(ctx context.Context, limit int32, cursor *string) (sports.GetSportsResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	result, err := queryEntities[sportDynamo](ctx, d, sportEntityName, limit, cursor, false)
	if err != nil {
		if errors.Is(err, errInvalidCursor) {
			return sports.GetSportsResponse{}, sports.NewInvalidCursorError("Invalid cursor", err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return sports.GetSportsResponse{}, sports.NewTimeoutError("GetSports timed out")
		}
		return sports.GetSportsResponse{}, sports.NewFailedToFetchError("Failed to fetch sports from dynamo", err)
	}

	return sports.GetSportsResponse{
		Data:        slices.Map(result.items, sportFromSportDynamo),
		Cursor:      result.cursor,
		HasNextPage: result.hasNextPage,
	}, nil
}

func (d *DB) CreateSport(ctx context.Context, sport sports.Sport) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	dynamoItem := newSportDynamo(sport)

	item, err := attributevalue.MarshalMap(dynamoItem)
	if err != nil {
		return sports.NewFailedToTranslateToDBModelError("Failed to convert Sport to sportDynamo", err)
	}

	expr := exprMustBuild(expression.NewBuilder().
		WithCondition(newEntityVersionConditional(dynamoItem.Version)))

	_, err = d.dynamoClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(d.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var condCheckFailedErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailedErr) {
			return sports.NewSportAlreadyExistsError(fmt.Sprintf("Sport with ID %q already exists", sport.ID), err)
		} else if errors.Is(err, context.DeadlineExceeded) {
			return sports.NewTimeoutError("CreateSport timed out")
		} else {
			return sports.NewFailedToWriteError("Failed PutItem call", err)
		}
	}

	return nil
}

// UpdateSport writes sport over the stored copy, which must be at
// sport.Version-1.
func (d *DB) UpdateSport(ctx context.Context, sport sports.Sport) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	dynamoItem := newSportDynamo(sport)

	item, err := attributevalue.MarshalMap(dynamoItem)
	if err != nil {
		return sports.NewFailedToTranslateToDBModelError("Failed to convert Sport to sportDynamo", err)
	}

	expr := exprMustBuild(expression.NewBuilder().
		WithCondition(existingEntityVersionConditional(dynamoItem.Version)))

	_, err = d.dynamoClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(d.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var condCheckFailedErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailedErr) {
			return sports.NewVersionConflictError(fmt.Sprintf("Sport with ID %q does not exist at version %d", sport.ID, sport.Version-1), err)
		} else if errors.Is(err, context.DeadlineExceeded) {
			return sports.NewTimeoutError("UpdateSport timed out")
		} else {
			return sports.NewFailedToWriteError("Failed PutItem call", err)
		}
	}

	return nil
}
