package api

import (
	"net/http"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/sports-festival/festival-registration/registration"
	"github.com/sports-festival/festival-registration/validation"
)

type ErrorCode string

const (
	AlreadyExists          ErrorCode = "AlreadyExists"
	AuthError              ErrorCode = "AuthError"
	CaptchaInvalid         ErrorCode = "CaptchaInvalid"
	EmptyBody              ErrorCode = "EmptyBody"
	IncompleteRegistration ErrorCode = "IncompleteRegistration"
	InputValidationError   ErrorCode = "InputValidationError"
	InternalError          ErrorCode = "InternalError"
	InvalidBody            ErrorCode = "InvalidBody"
	InvalidCursor          ErrorCode = "InvalidCursor"
	LimitOutOfBounds       ErrorCode = "LimitOutOfBounds"
	NotFound               ErrorCode = "NotFound"
	RegistrationClosed     ErrorCode = "RegistrationClosed"
	VersionConflict        ErrorCode = "VersionConflict"
)

type Error struct {
	Message string                  `json:"message"`
	Code    ErrorCode               `json:"code"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
}

type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Display  string `json:"display,omitempty"`
}

func moneyToApiMoney(m *money.Money) Money {
	if m == nil {
		return Money{}
	}
	return Money{
		Amount:   m.Amount(),
		Currency: m.Currency().Code,
		Display:  m.Display(),
	}
}

type Sport struct {
	Id              *uuid.UUID `json:"id,omitempty"`
	Version         *int       `json:"version,omitempty"`
	Name            string     `json:"name"`
	Category        string     `json:"category"`
	AgeGroups       []string   `json:"ageGroups"`
	Disciplines     []string   `json:"disciplines,omitempty"`
	NumStudents     *int       `json:"numStudents,omitempty"`
	NumInstitutions *int       `json:"numInstitutions,omitempty"`
}

type SportsPage struct {
	Data        []Sport `json:"data"`
	Cursor      *string `json:"cursor,omitempty"`
	HasNextPage bool    `json:"hasNextPage"`
}

// StepPayloadBody is a single step payload in its {"kind", "data"} envelope.
type StepPayloadBody struct {
	Payload registration.StepPayload
}

func (b *StepPayloadBody) UnmarshalJSON(data []byte) error {
	p, err := registration.UnmarshalPayload(data)
	if err != nil {
		return err
	}
	b.Payload = p
	return nil
}

func (b StepPayloadBody) MarshalJSON() ([]byte, error) {
	return registration.MarshalPayload(b.Payload)
}

type StepDrafts struct {
	Flow  string                `json:"flow"`
	Email string                `json:"email"`
	Data  registration.StepData `json:"data"`
}

type SubmitRegistration struct {
	Email string                `json:"email"`
	Data  registration.StepData `json:"data"`
}

type RegistrationReceipt struct {
	Id       uuid.UUID `json:"id"`
	TotalFee Money     `json:"totalFee"`
	Paid     bool      `json:"paid"`
}

type Student struct {
	Id              uuid.UUID                    `json:"id"`
	Version         int                          `json:"version"`
	RegisteredAt    time.Time                    `json:"registeredAt"`
	Email           string                       `json:"email"`
	Details         registration.PersonalDetails `json:"details"`
	Documents       registration.Documents       `json:"documents"`
	GuardianMedical registration.GuardianMedical `json:"guardianMedical"`
	Sports          registration.SportsSelection `json:"sports"`
	Payment         registration.PaymentDetails  `json:"payment"`
	TotalFee        Money                        `json:"totalFee"`
	Paid            bool                         `json:"paid"`
}

type StudentsPage struct {
	Data        []Student `json:"data"`
	Cursor      *string   `json:"cursor,omitempty"`
	HasNextPage bool      `json:"hasNextPage"`
}

type Institution struct {
	Id           uuid.UUID                       `json:"id"`
	Version      int                             `json:"version"`
	RegisteredAt time.Time                       `json:"registeredAt"`
	Email        string                          `json:"email"`
	Details      registration.InstitutionDetails `json:"details"`
	Documents    registration.Documents          `json:"documents"`
	Sports       registration.SportsSelection    `json:"sports"`
	Payment      registration.PaymentDetails     `json:"payment"`
	TotalFee     Money                           `json:"totalFee"`
	Paid         bool                            `json:"paid"`
}

type InstitutionsPage struct {
	Data        []Institution `json:"data"`
	Cursor      *string       `json:"cursor,omitempty"`
	HasNextPage bool          `json:"hasNextPage"`
}

type GoogleLogin struct {
	GoogleJWT string `json:"googleJWT"`
}

type Health struct {
	Status string `json:"status"`
}

// Response is what every handler returns. Body is written as JSON when set.
type Response struct {
	StatusCode int
	Body       any
	Cookie     *http.Cookie
}

func jsonResponse(status int, body any) Response {
	return Response{StatusCode: status, Body: body}
}

func errorResponse(status int, code ErrorCode, message string) Response {
	return Response{
		StatusCode: status,
		Body: Error{
			Message: message,
			Code:    code,
		},
	}
}

func noContent() Response {
	return Response{StatusCode: http.StatusNoContent}
}
