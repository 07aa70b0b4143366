package registration

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sports-festival/festival-registration/validation"
)

const dateLayout = "2006-01-02"

type PayloadKind string

const (
	PERSONAL_DETAILS    PayloadKind = "personal_details"
	INSTITUTION_DETAILS PayloadKind = "institution_details"
	DOCUMENTS           PayloadKind = "documents"
	GUARDIAN_MEDICAL    PayloadKind = "guardian_medical"
	SPORTS_SELECTION    PayloadKind = "sports_selection"
	PAYMENT_DETAILS     PayloadKind = "payment_details"
)

// StepPayload is the validated form data of one wizard step. The set of
// implementations is closed; switch on the concrete type to handle each one.
type StepPayload interface {
	Kind() PayloadKind
	Validate() error
	isStepPayload()
}

var (
	_ StepPayload = PersonalDetails{}
	_ StepPayload = InstitutionDetails{}
	_ StepPayload = Documents{}
	_ StepPayload = GuardianMedical{}
	_ StepPayload = SportsSelection{}
	_ StepPayload = PaymentDetails{}
)

type PersonalDetails struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	DateOfBirth     string `json:"dateOfBirth"`
	Gender          string `json:"gender"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	SchoolName      string `json:"schoolName"`
	AdmissionNumber string `json:"admissionNumber"`
	County          string `json:"county"`
}

func (PersonalDetails) Kind() PayloadKind { return PERSONAL_DETAILS }
func (PersonalDetails) isStepPayload()    {}

func (p PersonalDetails) Validate() error {
	var v validation.Collector
	v.Require("firstName", p.FirstName)
	v.Require("lastName", p.LastName)
	if v.Require("dateOfBirth", p.DateOfBirth) {
		dob, err := time.Parse(dateLayout, p.DateOfBirth)
		if v.Check(err == nil, "dateOfBirth", "must be a date in the format YYYY-MM-DD") {
			v.Check(dob.Before(time.Now()), "dateOfBirth", "must be in the past")
		}
	}
	v.Check(isOneOf(p.Gender, "MALE", "FEMALE"), "gender", "must be MALE or FEMALE")
	v.Email("email", p.Email)
	v.StrictPhone("phone", p.Phone)
	v.Require("schoolName", p.SchoolName)
	v.Require("admissionNumber", p.AdmissionNumber)
	v.Require("county", p.County)
	return v.Err()
}

func (p PersonalDetails) BirthDate() (time.Time, error) {
	return time.Parse(dateLayout, p.DateOfBirth)
}

type InstitutionDetails struct {
	Name               string        `json:"name"`
	Type               string        `json:"type"`
	RegistrationNumber string        `json:"registrationNumber"`
	County             string        `json:"county"`
	Email              string        `json:"email"`
	Phone              string        `json:"phone"`
	ContactPerson      ContactPerson `json:"contactPerson"`
}

type ContactPerson struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (InstitutionDetails) Kind() PayloadKind { return INSTITUTION_DETAILS }
func (InstitutionDetails) isStepPayload()    {}

func (p InstitutionDetails) Validate() error {
	var v validation.Collector
	v.Require("name", p.Name)
	v.Check(isOneOf(p.Type, "PRIMARY", "SECONDARY", "UNIVERSITY", "CLUB"), "type", "must be PRIMARY, SECONDARY, UNIVERSITY or CLUB")
	v.Require("registrationNumber", p.RegistrationNumber)
	v.Require("county", p.County)
	v.Email("email", p.Email)
	v.Phone("phone", p.Phone)
	v.Require("contactPerson.name", p.ContactPerson.Name)
	v.Email("contactPerson.email", p.ContactPerson.Email)
	v.Phone("contactPerson.phone", p.ContactPerson.Phone)
	return v.Err()
}

type Documents struct {
	Files []DocumentRef `json:"files"`
}

// DocumentRef points at an already uploaded file.
type DocumentRef struct {
	Type     string `json:"type"`
	FileName string `json:"fileName"`
	URL      string `json:"url"`
}

func (Documents) Kind() PayloadKind { return DOCUMENTS }
func (Documents) isStepPayload()    {}

func (p Documents) Validate() error {
	var v validation.Collector
	v.Range("files", len(p.Files), 1, 10)
	for i, f := range p.Files {
		field := fmt.Sprintf("files[%d]", i)
		v.Check(isOneOf(f.Type, "BIRTH_CERTIFICATE", "SCHOOL_ID", "PASSPORT_PHOTO", "REGISTRATION_CERTIFICATE", "OTHER"), field+".type", "is not a known document type")
		v.Require(field+".fileName", f.FileName)
		if v.Require(field+".url", f.URL) {
			v.Check(strings.HasPrefix(f.URL, "https://") || strings.HasPrefix(f.URL, "http://"), field+".url", "must be an http(s) URL")
		}
	}
	return v.Err()
}

type GuardianMedical struct {
	Guardians    []Guardian  `json:"guardians"`
	Medical      MedicalInfo `json:"medical"`
	ConsentGiven bool        `json:"consentGiven"`
}

type Guardian struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
	Email        string `json:"email,omitempty"`
}

type MedicalInfo struct {
	BloodGroup            string `json:"bloodGroup,omitempty"`
	Allergies             string `json:"allergies,omitempty"`
	Conditions            string `json:"conditions,omitempty"`
	EmergencyContactName  string `json:"emergencyContactName"`
	EmergencyContactPhone string `json:"emergencyContactPhone"`
}

func (GuardianMedical) Kind() PayloadKind { return GUARDIAN_MEDICAL }
func (GuardianMedical) isStepPayload()    {}

func (p GuardianMedical) Validate() error {
	var v validation.Collector
	v.Range("guardians", len(p.Guardians), 1, 2)
	for i, g := range p.Guardians {
		field := fmt.Sprintf("guardians[%d]", i)
		v.Require(field+".name", g.Name)
		v.Require(field+".relationship", g.Relationship)
		v.StrictPhone(field+".phone", g.Phone)
		if g.Email != "" {
			v.Email(field+".email", g.Email)
		}
	}
	if p.Medical.BloodGroup != "" {
		v.Check(isOneOf(p.Medical.BloodGroup, "A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"), "medical.bloodGroup", "is not a known blood group")
	}
	v.Require("medical.emergencyContactName", p.Medical.EmergencyContactName)
	v.StrictPhone("medical.emergencyContactPhone", p.Medical.EmergencyContactPhone)
	v.Check(p.ConsentGiven, "consentGiven", "consent must be given")
	return v.Err()
}

type SportsSelection struct {
	// ParticipantAge is the age of a student participant, derived from the
	// date of birth on the details step. Every entry's age group is checked
	// against it. It is left empty for institutions.
	ParticipantAge *int         `json:"participantAge,omitempty"`
	Entries        []SportEntry `json:"entries"`
}

type SportEntry struct {
	SportID      uuid.UUID `json:"sportId"`
	SportName    string    `json:"sportName"`
	AgeGroup     string    `json:"ageGroup"`
	Disciplines  []string  `json:"disciplines,omitempty"`
	Participants int       `json:"participants"`
}

func (SportsSelection) Kind() PayloadKind { return SPORTS_SELECTION }
func (SportsSelection) isStepPayload()    {}

func (p SportsSelection) Validate() error {
	var v validation.Collector
	v.Range("entries", len(p.Entries), 1, 5)
	seen := map[uuid.UUID]bool{}
	for i, e := range p.Entries {
		field := fmt.Sprintf("entries[%d]", i)
		v.Check(e.SportID != uuid.Nil, field+".sportId", "is required")
		v.Check(!seen[e.SportID], field+".sportId", "sport selected more than once")
		seen[e.SportID] = true
		if p.ParticipantAge != nil {
			v.AgeInBracket(field+".ageGroup", *p.ParticipantAge, e.AgeGroup)
		} else {
			_, ok := validation.BracketRange(e.AgeGroup)
			v.Check(ok, field+".ageGroup", fmt.Sprintf("unknown age group %q", e.AgeGroup))
		}
		v.Range(field+".participants", e.Participants, 1, 50)
	}
	return v.Err()
}

// withAgeFrom replaces the participant age with the age on at of the person
// described by details. A date of birth that does not parse clears it.
func (p SportsSelection) withAgeFrom(details PersonalDetails, at time.Time) SportsSelection {
	dob, err := details.BirthDate()
	if err != nil {
		p.ParticipantAge = nil
		return p
	}
	age := validation.AgeOn(dob, at)
	p.ParticipantAge = &age
	return p
}

func (p SportsSelection) TotalParticipants() int {
	total := 0
	for _, e := range p.Entries {
		total += e.Participants
	}
	return total
}

func (p SportsSelection) Disciplines() []string {
	var all []string
	for _, e := range p.Entries {
		all = append(all, e.Disciplines...)
	}
	return all
}

type PaymentDetails struct {
	Method     string `json:"method"`
	Reference  string `json:"reference,omitempty"`
	PayerName  string `json:"payerName"`
	PayerPhone string `json:"payerPhone"`
	AmountPaid int64  `json:"amountPaid"`
	Currency   string `json:"currency"`
}

func (PaymentDetails) Kind() PayloadKind { return PAYMENT_DETAILS }
func (PaymentDetails) isStepPayload()    {}

func (p PaymentDetails) Validate() error {
	var v validation.Collector
	v.Check(isOneOf(p.Method, "MPESA", "BANK_TRANSFER", "CHEQUE", "CASH"), "method", "must be MPESA, BANK_TRANSFER, CHEQUE or CASH")
	if p.Method == "MPESA" || p.Method == "BANK_TRANSFER" {
		v.Require("reference", p.Reference)
	}
	v.Require("payerName", p.PayerName)
	v.Phone("payerPhone", p.PayerPhone)
	v.Check(p.AmountPaid >= 0, "amountPaid", "must not be negative")
	v.Check(len(p.Currency) == 3, "currency", "must be a 3 letter currency code")
	return v.Err()
}

func isOneOf(value string, options ...string) bool {
	for _, o := range options {
		if value == o {
			return true
		}
	}
	return false
}

type payloadEnvelope struct {
	Kind PayloadKind     `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func MarshalPayload(p StepPayload) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", p.Kind(), err)
	}
	return json.Marshal(payloadEnvelope{Kind: p.Kind(), Data: data})
}

func UnmarshalPayload(b []byte) (StepPayload, error) {
	var env payloadEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, NewInvalidPayloadError("Payload is not a valid envelope", err)
	}
	return decodePayload(env.Kind, env.Data)
}

func decodePayload(kind PayloadKind, data []byte) (StepPayload, error) {
	switch kind {
	case PERSONAL_DETAILS:
		return decodeInto[PersonalDetails](kind, data)
	case INSTITUTION_DETAILS:
		return decodeInto[InstitutionDetails](kind, data)
	case DOCUMENTS:
		return decodeInto[Documents](kind, data)
	case GUARDIAN_MEDICAL:
		return decodeInto[GuardianMedical](kind, data)
	case SPORTS_SELECTION:
		return decodeInto[SportsSelection](kind, data)
	case PAYMENT_DETAILS:
		return decodeInto[PaymentDetails](kind, data)
	default:
		return nil, NewUnknownPayloadKindError(kind)
	}
}

func decodeInto[T StepPayload](kind PayloadKind, data []byte) (StepPayload, error) {
	var p T
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, NewInvalidPayloadError(fmt.Sprintf("Failed to decode %s payload", kind), err)
	}
	return p, nil
}

// StepData holds the payload of every step submitted so far.
type StepData map[StepID]StepPayload

func (d StepData) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(d))
	for step, p := range d {
		b, err := MarshalPayload(p)
		if err != nil {
			return nil, err
		}
		out[fmt.Sprintf("%d", int(step))] = b
	}
	return json.Marshal(out)
}

func (d *StepData) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(StepData, len(raw))
	for k, v := range raw {
		step, err := ParseStepID(k)
		if err != nil {
			return NewInvalidPayloadError("Step data has an invalid step key", err)
		}
		p, err := UnmarshalPayload(v)
		if err != nil {
			return err
		}
		out[step] = p
	}
	*d = out
	return nil
}
