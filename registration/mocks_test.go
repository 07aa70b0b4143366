package registration

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/sports-festival/festival-registration/fees"
	"github.com/sports-festival/festival-registration/sports"
)

var noopLogger = slog.New(slog.DiscardHandler)

type mapStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMapStore() *mapStore {
	return &mapStore{data: map[string]string{}}
}

func (m *mapStore) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *mapStore) Set(key string, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

func (m *mapStore) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

func (m *mapStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

var _ CheckpointStore = &mockCheckpointStore{}

type mockCheckpointStore struct {
	mu sync.Mutex

	LoadCheckpointFunc  func(ctx context.Context, email string) (Checkpoint, error)
	SaveCheckpointFunc  func(ctx context.Context, checkpoint Checkpoint) error
	ClearCheckpointFunc func(ctx context.Context, email string) error

	saved   []Checkpoint
	cleared []string
}

func (m *mockCheckpointStore) LoadCheckpoint(ctx context.Context, email string) (Checkpoint, error) {
	if m.LoadCheckpointFunc != nil {
		return m.LoadCheckpointFunc(ctx, email)
	}
	return Checkpoint{}, NewCheckpointDoesNotExistError("not found")
}

func (m *mockCheckpointStore) SaveCheckpoint(ctx context.Context, checkpoint Checkpoint) error {
	m.mu.Lock()
	m.saved = append(m.saved, checkpoint)
	m.mu.Unlock()
	if m.SaveCheckpointFunc != nil {
		return m.SaveCheckpointFunc(ctx, checkpoint)
	}
	return nil
}

func (m *mockCheckpointStore) ClearCheckpoint(ctx context.Context, email string) error {
	m.mu.Lock()
	m.cleared = append(m.cleared, email)
	m.mu.Unlock()
	if m.ClearCheckpointFunc != nil {
		return m.ClearCheckpointFunc(ctx, email)
	}
	return nil
}

func (m *mockCheckpointStore) Saved() []Checkpoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Checkpoint(nil), m.saved...)
}

func (m *mockCheckpointStore) Cleared() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.cleared...)
}

type mockStepSaver struct {
	SaveStepFunc func(ctx context.Context, flow string, email string, step StepID, payload StepPayload) error
	calls        []StepID
}

func (m *mockStepSaver) SaveStep(ctx context.Context, flow string, email string, step StepID, payload StepPayload) error {
	m.calls = append(m.calls, step)
	if m.SaveStepFunc != nil {
		return m.SaveStepFunc(ctx, flow, email, step, payload)
	}
	return nil
}

type mockSubmitter struct {
	SubmitFunc func(ctx context.Context, flow string, state State) (SubmitResult, error)
}

func (m *mockSubmitter) Submit(ctx context.Context, flow string, state State) (SubmitResult, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, flow, state)
	}
	return SubmitResult{ID: uuid.New()}, nil
}

type mockSportsRepository struct {
	sports.Repository
	GetSportFunc func(ctx context.Context, id uuid.UUID) (sports.Sport, error)
}

func (m *mockSportsRepository) GetSport(ctx context.Context, id uuid.UUID) (sports.Sport, error) {
	return m.GetSportFunc(ctx, id)
}

var _ Repository = &mockRepository{}

type mockRepository struct {
	CreateStudentFunc     func(ctx context.Context, student Student, sports []sports.Sport) error
	CreateInstitutionFunc func(ctx context.Context, institution Institution, sports []sports.Sport) error
	GetStudentFunc        func(ctx context.Context, id uuid.UUID) (Student, error)
	GetInstitutionFunc    func(ctx context.Context, id uuid.UUID) (Institution, error)
	ListStudentsFunc      func(ctx context.Context, limit int32, cursor *string) (ListStudentsResponse, error)
	ListInstitutionsFunc  func(ctx context.Context, limit int32, cursor *string) (ListInstitutionsResponse, error)
}

func (m *mockRepository) CreateStudent(ctx context.Context, student Student, sports []sports.Sport) error {
	return m.CreateStudentFunc(ctx, student, sports)
}

func (m *mockRepository) CreateInstitution(ctx context.Context, institution Institution, sports []sports.Sport) error {
	return m.CreateInstitutionFunc(ctx, institution, sports)
}

func (m *mockRepository) GetStudent(ctx context.Context, id uuid.UUID) (Student, error) {
	return m.GetStudentFunc(ctx, id)
}

func (m *mockRepository) GetInstitution(ctx context.Context, id uuid.UUID) (Institution, error) {
	return m.GetInstitutionFunc(ctx, id)
}

func (m *mockRepository) ListStudents(ctx context.Context, limit int32, cursor *string) (ListStudentsResponse, error) {
	return m.ListStudentsFunc(ctx, limit, cursor)
}

func (m *mockRepository) ListInstitutions(ctx context.Context, limit int32, cursor *string) (ListInstitutionsResponse, error) {
	return m.ListInstitutionsFunc(ctx, limit, cursor)
}

var testPricing = fees.StaticPricing{
	fees.SPORT:      fees.FlatTable(fees.SPORT, "KES", 1000),
	fees.DISCIPLINE: {Kind: fees.DISCIPLINE, Currency: "KES", Tiers: []fees.Tier{{Category: "100m", Amount: 200}}},
	fees.PARENT:     fees.FlatTable(fees.PARENT, "KES", 500),
}

var athleticsID = uuid.MustParse("6f1c2a6e-3f64-4a52-9e77-3f4f6b8f1a01")

func validPersonalDetails() PersonalDetails {
	return PersonalDetails{
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

func validInstitutionDetails() InstitutionDetails {
	return InstitutionDetails{
		Name:               "Kilimani Primary",
		Type:               "PRIMARY",
		RegistrationNumber: "MOE/123/456",
		County:             "Nairobi",
		Email:              "sports@kilimani.ac.ke",
		Phone:              "020 123 4567",
		ContactPerson: ContactPerson{
			Name:  "Grace Wanjiru",
			Role:  "Games teacher",
			Email: "grace@kilimani.ac.ke",
			Phone: "0712345678",
		},
	}
}

func validDocuments() Documents {
	return Documents{Files: []DocumentRef{{Type: "BIRTH_CERTIFICATE", FileName: "birth.pdf", URL: "https://files.example.com/birth.pdf"}}}
}

func validGuardianMedical() GuardianMedical {
	return GuardianMedical{
		Guardians: []Guardian{{Name: "Peter Otieno", Relationship: "Father", Phone: "+254700000001"}},
		Medical: MedicalInfo{
			BloodGroup:            "O+",
			EmergencyContactName:  "Peter Otieno",
			EmergencyContactPhone: "+254700000001",
		},
		ConsentGiven: true,
	}
}

func validSportsSelection() SportsSelection {
	age := 11
	return SportsSelection{
		ParticipantAge: &age,
		Entries: []SportEntry{
			{SportID: athleticsID, SportName: "Athletics", AgeGroup: "U12", Disciplines: []string{"100m"}, Participants: 1},
		},
	}
}

func validPaymentDetails() PaymentDetails {
	return PaymentDetails{
		Method:     "MPESA",
		Reference:  "QK12ABC34D",
		PayerName:  "Peter Otieno",
		PayerPhone: "0712345678",
		AmountPaid: 1700,
		Currency:   "KES",
	}
}

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

func completeStudentState() State {
	return State{
		CurrentStep:    StepPayment,
		CompletedSteps: NewStepSet(StepDetails, StepDocuments, StepGuardianMedical, StepSports, StepPayment),
		Email:          "amani@example.com",
		Data: StepData{
			StepDetails:         validPersonalDetails(),
			StepDocuments:       validDocuments(),
			StepGuardianMedical: validGuardianMedical(),
			StepSports:          validSportsSelection(),
			StepPayment:         validPaymentDetails(),
		},
	}
}
