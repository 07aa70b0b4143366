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

var _ registration.Repository = &DB{}

type studentDynamo struct {
	PK     string
	SK     string
	GSI1PK string
	GSI1SK string

	ID               uuid.UUID
	Version          int
	RegisteredAt     time.Time
	Email            string
	Details          registration.PersonalDetails
	Documents        registration.Documents
	GuardianMedical  registration.GuardianMedical
	Sports           registration.SportsSelection
	Payment          registration.PaymentDetails
	TotalFeeAmount   int64
	TotalFeeCurrency string
	Paid             bool
}

const (
	studentEntityName = "STUDENT"
)

func studentPK(id uuid.UUID) string {
	return fmt.Sprintf("%s#%s", studentEntityName, id)
}

func studentSK(id uuid.UUID) string {
	return fmt.Sprintf("%s#%s", studentEntityName, id)
}

func studentToDynamo(s registration.Student) studentDynamo {
	return studentDynamo{
		PK:     studentPK(s.ID),
		SK:     studentSK(s.ID),
		GSI1PK: studentEntityName,
		GSI1SK: fmt.Sprintf("%s#%s#%s", studentEntityName, s.RegisteredAt.UTC().Format(time.RFC3339Nano), s.ID),

		ID:               s.ID,
		Version:          s.Version,
		RegisteredAt:     s.RegisteredAt,
		Email:            s.Email,
		Details:          s.Details,
		Documents:        s.Documents,
		GuardianMedical:  s.GuardianMedical,
		Sports:           s.Sports,
		Payment:          s.Payment,
		TotalFeeAmount:   s.TotalFee.Amount(),
		TotalFeeCurrency: s.TotalFee.Currency().Code,
		Paid:             s.Paid(),
	}
}

func dynamoToStudent(s studentDynamo) registration.Student {
	return registration.Student{
		ID:              s.ID,
		Version:         s.Version,
		RegisteredAt:    s.RegisteredAt,
		Email:           s.Email,
		Details:         s.Details,
		Documents:       s.Documents,
		GuardianMedical: s.GuardianMedical,
		Sports:          s.Sports,
		Payment:         s.Payment,
		TotalFee:        money.New(s.TotalFeeAmount, s.TotalFeeCurrency),
	}
}

func (d *DB) CreateStudent(ctx context.Context, student registration.Student, selected []sports.Sport) error {
	item, err := attributevalue.MarshalMap(studentToDynamo(student))
	if err != nil {
		return registration.NewFailedToTranslateToDBModelError("Failed to translate student to dynamo model", err)
	}

	return d.createRecord(ctx, studentEntityName, student.ID.String(), student.Email, item, student.Version, selected)
}

func (d *DB) GetStudent(ctx context.Context, id uuid.UUID) (registration.Student, error) {
	var item studentDynamo
	found, err := d.getRecord(ctx, studentPK(id), studentSK(id), &item)
	if err != nil {
		return registration.Student{}, err
	}
	if !found {
		return registration.Student{}, registration.NewRegistrationDoesNotExistsError(fmt.Sprintf("Student with ID %q not found", id), nil)
	}

	return dynamoToStudent(item), nil
}

// ListStudents pages through students, most recent registration first.
func (d *DB) ListStudents(ctx context.Context, limit int32, cursor *string) (registration.ListStudentsResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	result, err := queryEntities[studentDynamo](ctx, d, studentEntityName, limit, cursor, true)
	if err != nil {
		return registration.ListStudentsResponse{}, listError(err, "ListStudents")
	}

	return registration.ListStudentsResponse{
		Data:        slices.Map(result.items, dynamoToStudent),
		Cursor:      result.cursor,
		HasNextPage: result.hasNextPage,
	}, nil
}
