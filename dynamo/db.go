package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	gsi1 = "GSI1"

	conditionalCheckFailed = "ConditionalCheckFailed"
)

// DB stores every entity in one table. Items are keyed by PK/SK and entities
// that can be listed carry GSI1PK/GSI1SK.
type DB struct {
	dynamoClient *dynamodb.Client
	tableName    string
}

func NewDB(dynamoClient *dynamodb.Client, tableName string) *DB {
	return &DB{
		dynamoClient: dynamoClient,
		tableName:    tableName,
	}
}

func newEntityVersionConditional(version int) expression.ConditionBuilder {
	return expression.Name("PK").AttributeNotExists().
		And(expression.Value(version).Equal(expression.Value(1)))
}

func existingEntityVersionConditional(version int) expression.ConditionBuilder {
	return expression.Name("PK").AttributeExists().
		And(expression.Name("Version").Equal(expression.Value(version - 1)))
}

func uniqueMarkerConditional() expression.ConditionBuilder {
	return expression.Name("PK").AttributeNotExists()
}

func exprMustBuild(builder expression.Builder) expression.Expression {
	expr, err := builder.Build()
	if err != nil {
		panic("failed to build dynamo expression")
	}

	return expr
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (d *DB) key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

func (d *DB) conditionalPut(item map[string]types.AttributeValue, cond expression.ConditionBuilder) *types.Put {
	expr := exprMustBuild(expression.NewBuilder().WithCondition(cond))

	return &types.Put{
		TableName:                 aws.String(d.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
}

// failedConditions lists the positions of the transaction items whose
// condition failed.
func failedConditions(err *types.TransactionCanceledException) []int {
	var failed []int
	for i, reason := range err.CancellationReasons {
		if aws.ToString(reason.Code) == conditionalCheckFailed {
			failed = append(failed, i)
		}
	}
	return failed
}

var errInvalidCursor = errors.New("invalid cursor")

type page[T any] struct {
	items       []T
	cursor      *string
	hasNextPage bool
}

// queryEntities reads one page of an entity type from GSI1.
func queryEntities[T any](ctx context.Context, d *DB, entity string, limit int32, cursor *string, newestFirst bool) (page[T], error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(entity)).
		And(expression.Key("GSI1SK").BeginsWith(entity))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build dynamo key expression: %s", err))
	}

	var startKey map[string]types.AttributeValue
	if cursor != nil {
		startKey, err = cursorToLastEval(*cursor)
		if err != nil {
			return page[T]{}, fmt.Errorf("%w: %w", errInvalidCursor, err)
		}
	}

	result, err := d.dynamoClient.Query(ctx, &dynamodb.QueryInput{
		IndexName:                 aws.String(gsi1),
		TableName:                 aws.String(d.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(!newestFirst),
		// Fetch 1 more than limit to check if there is another page or not
		Limit:             aws.Int32(limit + 1),
		ExclusiveStartKey: startKey,
	})
	if err != nil {
		return page[T]{}, err
	}

	var items []T
	err = attributevalue.UnmarshalListOfMaps(result.Items, &items)
	if err != nil {
		panic(fmt.Sprintf("failed to unmarshal %s items: %s", entity, err))
	}

	hasNextPage := len(items) > int(limit)

	var newCursor *string
	if hasNextPage && len(result.LastEvaluatedKey) > 0 {
		// Can't use LastEvalKey directly because we grabbed an extra item to check for next page
		lastItemGivenToUser := result.Items[len(result.Items)-2]
		lastItemKey := getKeyFromItem(result.LastEvaluatedKey, lastItemGivenToUser)
		c, err := lastEvalKeyToCursor(lastItemKey)
		if err != nil {
			panic(fmt.Sprintf("failed to make cursor from lastEvalKey: %s", err))
		}
		newCursor = &c
	}

	return page[T]{
		items:       items[:min(int(limit), len(items))],
		cursor:      newCursor,
		hasNextPage: hasNextPage,
	}, nil
}

func stringAttribute(name string) types.AttributeDefinition {
	return types.AttributeDefinition{
		AttributeName: aws.String(name),
		AttributeType: types.ScalarAttributeTypeS,
	}
}

func keySchema(hash, rangeKey string) []types.KeySchemaElement {
	return []types.KeySchemaElement{
		{AttributeName: aws.String(hash), KeyType: types.KeyTypeHash},
		{AttributeName: aws.String(rangeKey), KeyType: types.KeyTypeRange},
	}
}

// CreateTable creates the table and its GSI. A table that already exists is
// left alone.
func (d *DB) CreateTable(ctx context.Context) error {
	_, err := d.dynamoClient.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(d.tableName),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			stringAttribute("PK"),
			stringAttribute("SK"),
			stringAttribute("GSI1PK"),
			stringAttribute("GSI1SK"),
		},
		KeySchema: keySchema("PK", "SK"),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName:  aws.String(gsi1),
				KeySchema:  keySchema("GSI1PK", "GSI1SK"),
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
		},
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			return nil
		}
		return fmt.Errorf("failed to create table: %w", err)
	}

	return nil
}
