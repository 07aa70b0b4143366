package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/International-Combat-Archery-Alliance/captcha"
	"github.com/International-Combat-Archery-Alliance/email"
	"github.com/google/uuid"
	"github.com/sports-festival/festival-registration/fees"
	"github.com/sports-festival/festival-registration/registration"
	"github.com/sports-festival/festival-registration/sports"
	"google.golang.org/api/idtoken"
)

var noopLogger = slog.New(slog.DiscardHandler)

var testCtx = ctxWithLogger(context.Background(), noopLogger)

const (
	testClientID    = "festival-client-id.apps.googleusercontent.com"
	testAdminDomain = "festival.example.com"
)

var testPricing = fees.StaticPricing{
	fees.SPORT:      fees.FlatTable(fees.SPORT, "KES", 1000),
	fees.DISCIPLINE: {Kind: fees.DISCIPLINE, Currency: "KES", Tiers: []fees.Tier{{Category: "100m", Amount: 200}}},
	fees.PARENT:     fees.FlatTable(fees.PARENT, "KES", 500),
}

type mockEmailSender struct {
	mu            sync.Mutex
	SendEmailFunc func(ctx context.Context, e email.Email) error
	sent          []email.Email
}

func (m *mockEmailSender) SendEmail(ctx context.Context, e email.Email) error {
	m.mu.Lock()
	m.sent = append(m.sent, e)
	m.mu.Unlock()
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, e)
	}
	return nil
}

type mockCaptchaValidator struct {
	ValidateFunc func(ctx context.Context, token string, remoteIP string) (captcha.ValidatedData, error)
}

type mockCaptchaValidatedData struct{}

func (m *mockCaptchaValidatedData) Hostname() string       { return testAdminDomain }
func (m *mockCaptchaValidatedData) Action() string         { return "" }
func (m *mockCaptchaValidatedData) ChallengeTS() time.Time { return testNow }

func (m *mockCaptchaValidator) Validate(ctx context.Context, token string, remoteIP string) (captcha.ValidatedData, error) {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, token, remoteIP)
	}
	return &mockCaptchaValidatedData{}, nil
}

type mockGoogleIdVerifier struct {
	ValidateFunc func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)
}

func (m *mockGoogleIdVerifier) Validate(ctx context.Context, idToken, audience string) (*idtoken.Payload, error) {
	return m.ValidateFunc(ctx, idToken, audience)
}

func adminVerifier() *mockGoogleIdVerifier {
	return &mockGoogleIdVerifier{
		ValidateFunc: func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error) {
			return &idtoken.Payload{
				Expires: time.Now().Add(time.Hour).Unix(),
				Claims: map[string]any{
					"email": "admin@" + testAdminDomain,
					"hd":    testAdminDomain,
				},
			}, nil
		},
	}
}

var _ DB = &mockDB{}

type mockDB struct {
	GetSportFunc    func(ctx context.Context, id uuid.UUID) (sports.Sport, error)
	GetSportsFunc   func(ctx context.Context, limit int32, cursor *string) (sports.GetSportsResponse, error)
	CreateSportFunc func(ctx context.Context, sport sports.Sport) error
	UpdateSportFunc func(ctx context.Context, sport sports.Sport) error

	CreateStudentFunc     func(ctx context.Context, student registration.Student, sports []sports.Sport) error
	CreateInstitutionFunc func(ctx context.Context, institution registration.Institution, sports []sports.Sport) error
	GetStudentFunc        func(ctx context.Context, id uuid.UUID) (registration.Student, error)
	GetInstitutionFunc    func(ctx context.Context, id uuid.UUID) (registration.Institution, error)
	ListStudentsFunc      func(ctx context.Context, limit int32, cursor *string) (registration.ListStudentsResponse, error)
	ListInstitutionsFunc  func(ctx context.Context, limit int32, cursor *string) (registration.ListInstitutionsResponse, error)

	LoadCheckpointFunc  func(ctx context.Context, email string) (registration.Checkpoint, error)
	SaveCheckpointFunc  func(ctx context.Context, checkpoint registration.Checkpoint) error
	ClearCheckpointFunc func(ctx context.Context, email string) error

	SaveStepFunc      func(ctx context.Context, flow string, email string, step registration.StepID, payload registration.StepPayload) error
	GetStepDraftsFunc func(ctx context.Context, flow string, email string) (registration.StepData, error)
}

func (m *mockDB) GetSport(ctx context.Context, id uuid.UUID) (sports.Sport, error) {
	return m.GetSportFunc(ctx, id)
}

func (m *mockDB) GetSports(ctx context.Context, limit int32, cursor *string) (sports.GetSportsResponse, error) {
	return m.GetSportsFunc(ctx, limit, cursor)
}

func (m *mockDB) CreateSport(ctx context.Context, sport sports.Sport) error {
	return m.CreateSportFunc(ctx, sport)
}

func (m *mockDB) UpdateSport(ctx context.Context, sport sports.Sport) error {
	return m.UpdateSportFunc(ctx, sport)
}

func (m *mockDB) CreateStudent(ctx context.Context, student registration.Student, sports []sports.Sport) error {
	return m.CreateStudentFunc(ctx, student, sports)
}

func (m *mockDB) CreateInstitution(ctx context.Context, institution registration.Institution, sports []sports.Sport) error {
	return m.CreateInstitutionFunc(ctx, institution, sports)
}

func (m *mockDB) GetStudent(ctx context.Context, id uuid.UUID) (registration.Student, error) {
	return m.GetStudentFunc(ctx, id)
}

func (m *mockDB) GetInstitution(ctx context.Context, id uuid.UUID) (registration.Institution, error) {
	return m.GetInstitutionFunc(ctx, id)
}

func (m *mockDB) ListStudents(ctx context.Context, limit int32, cursor *string) (registration.ListStudentsResponse, error) {
	return m.ListStudentsFunc(ctx, limit, cursor)
}

func (m *mockDB) ListInstitutions(ctx context.Context, limit int32, cursor *string) (registration.ListInstitutionsResponse, error) {
	return m.ListInstitutionsFunc(ctx, limit, cursor)
}

func (m *mockDB) LoadCheckpoint(ctx context.Context, email string) (registration.Checkpoint, error) {
	return m.LoadCheckpointFunc(ctx, email)
}

func (m *mockDB) SaveCheckpoint(ctx context.Context, checkpoint registration.Checkpoint) error {
	return m.SaveCheckpointFunc(ctx, checkpoint)
}

func (m *mockDB) ClearCheckpoint(ctx context.Context, email string) error {
	return m.ClearCheckpointFunc(ctx, email)
}

func (m *mockDB) SaveStep(ctx context.Context, flow string, email string, step registration.StepID, payload registration.StepPayload) error {
	return m.SaveStepFunc(ctx, flow, email, step, payload)
}

func (m *mockDB) GetStepDrafts(ctx context.Context, flow string, email string) (registration.StepData, error) {
	return m.GetStepDraftsFunc(ctx, flow, email)
}

func newTestAPI(db *mockDB, env Environment) *API {
	api := NewAPI(db, noopLogger, env, adminVerifier(), &mockCaptchaValidator{}, &mockEmailSender{}, testPricing, Config{
		GoogleClientID: testClientID,
		AdminDomain:    testAdminDomain,
		CookieDomain:   testAdminDomain,
		AllowedOrigins: []string{"https://" + testAdminDomain},
		EmailFrom:      "info@" + testAdminDomain,
	})
	api.now = func() time.Time { return testNow }
	return api
}

var testNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

var athleticsID = uuid.MustParse("6f1c2a6e-3f64-4a52-9e77-3f4f6b8f1a01")

func athletics() sports.Sport {
	return sports.Sport{
		ID:          athleticsID,
		Version:     3,
		Name:        "Athletics",
		Category:    sports.INDIVIDUAL,
		AgeGroups:   []string{"U12", "U14"},
		Disciplines: []string{"100m", "Long Jump"},
		NumStudents: 7,
	}
}

func personalDetails() registration.PersonalDetails {
	return registration.PersonalDetails{
		FirstName:       "Amani",
		LastName:        "Otieno",
		DateOfBirth:     "2015-03-14",
		Gender:          "FEMALE",
		Email:           "amani@example.com",
		Phone:           "+254712345678",
		SchoolName:      "Kilimani Primary",
		AdmissionNumber: "KP-1042",
		County:          "Nairobi",
	}
}

func institutionDetails() registration.InstitutionDetails {
	return registration.InstitutionDetails{
		Name:               "Kilimani Primary",
		Type:               "PRIMARY",
		RegistrationNumber: "MOE/123/456",
		County:             "Nairobi",
		Email:              "sports@kilimani.ac.ke",
		Phone:              "020 123 4567",
		ContactPerson: registration.ContactPerson{
			Name:  "Grace Wanjiru",
			Role:  "Games teacher",
			Email: "grace@kilimani.ac.ke",
			Phone: "0712345678",
		},
	}
}

func paymentDetails() registration.PaymentDetails {
	return registration.PaymentDetails{
		Method:     "MPESA",
		Reference:  "QK12ABC34D",
		PayerName:  "Peter Otieno",
		PayerPhone: "0712345678",
		AmountPaid: 1700,
		Currency:   "KES",
	}
}

func studentStepData() registration.StepData {
	age := 11
	return registration.StepData{
		registration.StepDetails: personalDetails(),
		registration.StepDocuments: registration.Documents{Files: []registration.DocumentRef{
			{Type: "BIRTH_CERTIFICATE", FileName: "birth.pdf", URL: "https://files.example.com/birth.pdf"},
		}},
		registration.StepGuardianMedical: registration.GuardianMedical{
			Guardians: []registration.Guardian{{Name: "Peter Otieno", Relationship: "Father", Phone: "+254700000001"}},
			Medical: registration.MedicalInfo{
				BloodGroup:            "O+",
				EmergencyContactName:  "Peter Otieno",
				EmergencyContactPhone: "+254700000001",
			},
			ConsentGiven: true,
		},
		registration.StepSports: registration.SportsSelection{
			ParticipantAge: &age,
			Entries: []registration.SportEntry{
				{SportID: athleticsID, SportName: "Athletics", AgeGroup: "U12", Disciplines: []string{"100m"}, Participants: 1},
			},
		},
		registration.StepPayment: paymentDetails(),
	}
}
