package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/google/uuid"
	"github.com/sports-festival/festival-registration/registration"
	"github.com/sports-festival/festival-registration/slices"
	"github.com/sports-festival/festival-registration/sports"
)

type institutionDynamo struct {
	PK     string
	SK     string
	GSI1PK string
	GSI1SK string

	ID               uuid.UUID
	Version          int
	RegisteredAt     time.Time
	Email            string
	Details          registration.InstitutionDetails
	Documents        registration.Documents
	Sports           registration.SportsSelection
	Payment          registration.PaymentDetails
	TotalFeeAmount   int64
	TotalFeeCurrency string
	Paid             bool
}

const (
	institutionEntityName = "INSTITUTION"
)

func institutionPK(id uuid.UUID) string {
	return fmt.Sprintf("%s#%s", institutionEntityName, id)
}

func institutionSK(id uuid.UUID) string {
	return fmt.Sprintf("%s#%s", institutionEntityName, id)
}

func institutionToDynamo(i registration.Institution) institutionDynamo {
	return institutionDynamo{
		PK:     institutionPK(i.ID),
		SK:     institutionSK(i.ID),
		GSI1PK: institutionEntityName,
		GSI1SK: fmt.Sprintf("%s#%s#%s", institutionEntityName, i.RegisteredAt.UTC().Format(time.RFC3339Nano), i.ID),

		ID:               i.ID,
		Version:          i.Version,
		RegisteredAt:     i.RegisteredAt,
		Email:            i.Email,
		Details:          i.Details,
		Documents:        i.Documents,
		Sports:           i.Sports,
		Payment:          i.Payment,
		TotalFeeAmount:   i.TotalFee.Amount(),
		TotalFeeCurrency: i.TotalFee.Currency().Code,
		Paid:             i.Paid(),
	}
}

func dynamoToInstitution(i institutionDynamo) registration.Institution {
	return registration.Institution{
		ID:           i.ID,
		Version:      i.Version,
		RegisteredAt: i.RegisteredAt,
		Email:        i.Email,
		Details:      i.Details,
		Documents:    i.Documents,
		Sports:       i.Sports,
		Payment:      i.Payment,
		TotalFee:     money.New(i.TotalFeeAmount, i.TotalFeeCurrency),
	}
}

func (d *DB) CreateInstitution(ctx context.Context, institution registration.Institution, selected []sports.Sport) error {
	item, err := attributevalue.MarshalMap(institutionToDynamo(institution))
	if err != nil {
		return registration.NewFailedToTranslateToDBModelError("Failed to translate institution to dynamo model", err)
	}

	return d.createRecord(ctx, institutionEntityName, institution.ID.String(), institution.Email, item, institution.Version, selected)
}

func (d *DB) GetInstitution(ctx context.Context, id uuid.UUID) (registration.Institution, error) {
	var item institutionDynamo
	found, err := d.getRecord(ctx, institutionPK(id), institutionSK(id), &item)
	if err != nil {
		return registration.Institution{}, err
	}
	if !found {
		return registration.Institution{}, registration.NewRegistrationDoesNotExistsError(fmt.Sprintf("Institution with ID %q not found", id), nil)
	}

	return dynamoToInstitution(item), nil
}

// ListInstitutions pages through institutions, most recent registration first.
func (d *DB) ListInstitutions(ctx context.Context, limit int32, cursor *string) (registration.ListInstitutionsResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	result, err := queryEntities[institutionDynamo](ctx, d, institutionEntityName, limit, cursor, true)
	if err != nil {
		return registration.ListInstitutionsResponse{}, listError(err, "ListInstitutions")
	}

	return registration.ListInstitutionsResponse{
		Data:        slices.Map(result.items, dynamoToInstitution),
		Cursor:      result.cursor,
		HasNextPage: result.hasNextPage,
	}, nil
}
