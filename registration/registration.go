package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/sports-festival/festival-registration/fees"
	"github.com/sports-festival/festival-registration/sports"
	"github.com/sports-festival/festival-registration/validation"
)

type Repository interface {
	CreateStudent(ctx context.Context, student Student, sports []sports.Sport) error
	CreateInstitution(ctx context.Context, institution Institution, sports []sports.Sport) error
	GetStudent(ctx context.Context, id uuid.UUID) (Student, error)
	GetInstitution(ctx context.Context, id uuid.UUID) (Institution, error)
	ListStudents(ctx context.Context, limit int32, cursor *string) (ListStudentsResponse, error)
	ListInstitutions(ctx context.Context, limit int32, cursor *string) (ListInstitutionsResponse, error)
}

type ListStudentsResponse struct {
	Data        []Student
	Cursor      *string
	HasNextPage bool
}

type ListInstitutionsResponse struct {
	Data        []Institution
	Cursor      *string
	HasNextPage bool
}

type Student struct {
	ID              uuid.UUID
	Version         int
	RegisteredAt    time.Time
	Email           string
	Details         PersonalDetails
	Documents       Documents
	GuardianMedical GuardianMedical
	Sports          SportsSelection
	Payment         PaymentDetails
	TotalFee        *money.Money
}

func (s Student) Paid() bool {
	return s.TotalFee != nil && s.Payment.AmountPaid >= s.TotalFee.Amount()
}

type Institution struct {
	ID           uuid.UUID
	Version      int
	RegisteredAt time.Time
	Email        string
	Details      InstitutionDetails
	Documents    Documents
	Sports       SportsSelection
	Payment      PaymentDetails
	TotalFee     *money.Money
}

func (i Institution) Paid() bool {
	return i.TotalFee != nil && i.Payment.AmountPaid >= i.TotalFee.Amount()
}

// Window limits when registrations are accepted. A nil ClosesAt never closes.
type Window struct {
	ClosesAt *time.Time
}

func (w Window) check(at time.Time) error {
	if w.ClosesAt != nil && at.After(*w.ClosesAt) {
		return NewRegistrationIsClosedError(*w.ClosesAt)
	}
	return nil
}

type Dependencies struct {
	Sports  sports.Repository
	Pricing fees.PricingSource
	Repo    Repository
	Window  Window
	Now     func() time.Time
}

func (d Dependencies) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

// BuildStudent assembles a student from the step data of a finished student
// registration. Every payload is validated and all problems are reported.
// The participant age is always recomputed from the date of birth as of at.
func BuildStudent(state State, at time.Time) (Student, error) {
	if err := requireSteps(StudentFlow, state); err != nil {
		return Student{}, err
	}

	s := Student{
		Email:           state.Email,
		Details:         state.Data[StepDetails].(PersonalDetails),
		Documents:       state.Data[StepDocuments].(Documents),
		GuardianMedical: state.Data[StepGuardianMedical].(GuardianMedical),
		Sports:          state.Data[StepSports].(SportsSelection),
		Payment:         state.Data[StepPayment].(PaymentDetails),
	}
	if s.Email == "" {
		s.Email = s.Details.Email
	}
	s.Sports = s.Sports.withAgeFrom(s.Details, at)

	var v validation.Collector
	v.Merge("details", s.Details.Validate())
	v.Merge("documents", s.Documents.Validate())
	v.Merge("guardianMedical", s.GuardianMedical.Validate())
	v.Merge("sports", s.Sports.Validate())
	v.Merge("payment", s.Payment.Validate())
	v.Email("email", s.Email)
	if err := v.Err(); err != nil {
		return Student{}, NewInvalidPayloadError("Student registration is invalid", err)
	}

	return s, nil
}

func BuildInstitution(state State) (Institution, error) {
	if err := requireSteps(InstitutionFlow, state); err != nil {
		return Institution{}, err
	}

	i := Institution{
		Email:     state.Email,
		Details:   state.Data[StepDetails].(InstitutionDetails),
		Documents: state.Data[StepDocuments].(Documents),
		Sports:    state.Data[StepSports].(SportsSelection),
		Payment:   state.Data[StepPayment].(PaymentDetails),
	}
	if i.Email == "" {
		i.Email = i.Details.Email
	}

	var v validation.Collector
	v.Merge("details", i.Details.Validate())
	v.Merge("documents", i.Documents.Validate())
	v.Merge("sports", i.Sports.Validate())
	v.Merge("payment", i.Payment.Validate())
	v.Email("email", i.Email)
	if err := v.Err(); err != nil {
		return Institution{}, NewInvalidPayloadError("Institution registration is invalid", err)
	}

	return i, nil
}

// requireSteps checks that every step of flow has a payload of the kind the
// step accepts.
func requireSteps(flow Flow, state State) error {
	var missing []StepID
	for _, step := range flow.Path() {
		p, ok := state.Data[step]
		if !ok {
			missing = append(missing, step)
			continue
		}
		if rule, _ := flow.Rule(step); p.Kind() != rule.Accepts {
			return NewStepNotAcceptedError(step, p.Kind())
		}
	}
	if len(missing) > 0 {
		return NewIncompleteRegistrationError(missing)
	}
	return nil
}

func AttemptStudentRegistration(ctx context.Context, state State, deps Dependencies) (Student, error) {
	now := deps.now()
	if err := deps.Window.check(now); err != nil {
		return Student{}, err
	}

	student, err := BuildStudent(state, now)
	if err != nil {
		return Student{}, err
	}

	selected, err := loadSelectedSports(ctx, deps.Sports, student.Sports)
	if err != nil {
		return Student{}, err
	}

	sportFee, err := priceOf(ctx, deps.Pricing, fees.SPORT, func(t fees.Table) *money.Money {
		return fees.CalculateFee(len(student.Sports.Entries), t)
	})
	if err != nil {
		return Student{}, err
	}
	disciplineFee, err := priceOf(ctx, deps.Pricing, fees.DISCIPLINE, func(t fees.Table) *money.Money {
		return fees.CalculateCategoryFee(student.Sports.Disciplines(), t)
	})
	if err != nil {
		return Student{}, err
	}
	parentFee, err := priceOf(ctx, deps.Pricing, fees.PARENT, func(t fees.Table) *money.Money {
		return fees.CalculateFee(len(student.GuardianMedical.Guardians), t)
	})
	if err != nil {
		return Student{}, err
	}

	student.TotalFee, err = sumFees(sportFee, disciplineFee, parentFee)
	if err != nil {
		return Student{}, err
	}

	student.ID = uuid.New()
	student.Version = 1
	student.RegisteredAt = now

	for i := range selected {
		selected[i].NumStudents++
		selected[i].Version++
	}

	err = deps.Repo.CreateStudent(ctx, student, selected)
	if err != nil {
		return Student{}, err
	}

	return student, nil
}

func AttemptInstitutionRegistration(ctx context.Context, state State, deps Dependencies) (Institution, error) {
	now := deps.now()
	if err := deps.Window.check(now); err != nil {
		return Institution{}, err
	}

	institution, err := BuildInstitution(state)
	if err != nil {
		return Institution{}, err
	}

	selected, err := loadSelectedSports(ctx, deps.Sports, institution.Sports)
	if err != nil {
		return Institution{}, err
	}

	sportFee, err := priceOf(ctx, deps.Pricing, fees.SPORT, func(t fees.Table) *money.Money {
		return fees.CalculateFee(institution.Sports.TotalParticipants(), t)
	})
	if err != nil {
		return Institution{}, err
	}
	disciplineFee, err := priceOf(ctx, deps.Pricing, fees.DISCIPLINE, func(t fees.Table) *money.Money {
		return fees.CalculateCategoryFee(institution.Sports.Disciplines(), t)
	})
	if err != nil {
		return Institution{}, err
	}

	institution.TotalFee, err = sumFees(sportFee, disciplineFee)
	if err != nil {
		return Institution{}, err
	}

	institution.ID = uuid.New()
	institution.Version = 1
	institution.RegisteredAt = now

	for i := range selected {
		selected[i].NumInstitutions++
		selected[i].Version++
	}

	err = deps.Repo.CreateInstitution(ctx, institution, selected)
	if err != nil {
		return Institution{}, err
	}

	return institution, nil
}

// loadSelectedSports fetches every selected sport and checks that it runs the
// chosen age group and disciplines.
func loadSelectedSports(ctx context.Context, repo sports.Repository, selection SportsSelection) ([]sports.Sport, error) {
	var v validation.Collector
	var selected []sports.Sport

	for i, entry := range selection.Entries {
		sport, err := repo.GetSport(ctx, entry.SportID)
		if err != nil {
			var sportErr *sports.Error
			if errors.As(err, &sportErr) && sportErr.Reason == sports.REASON_SPORT_DOES_NOT_EXIST {
				return nil, NewAssociatedSportDoesNotExistError(fmt.Sprintf("Sport does not exist with ID %q", entry.SportID), err)
			}
			return nil, NewFailedToFetchError(fmt.Sprintf("Failed to fetch sport with ID %q", entry.SportID), err)
		}

		field := fmt.Sprintf("sports.entries[%d]", i)
		v.Check(sport.OffersAgeGroup(entry.AgeGroup), field+".ageGroup", fmt.Sprintf("%s has no %s competition", sport.Name, entry.AgeGroup))
		for _, d := range entry.Disciplines {
			v.Check(sport.OffersDiscipline(d), field+".disciplines", fmt.Sprintf("%s has no %q discipline", sport.Name, d))
		}
		selected = append(selected, sport)
	}

	if err := v.Err(); err != nil {
		return nil, NewInvalidPayloadError("Sports selection does not match the sports on offer", err)
	}

	return selected, nil
}

func priceOf(ctx context.Context, pricing fees.PricingSource, kind fees.ItemKind, calc func(fees.Table) *money.Money) (*money.Money, error) {
	table, err := pricing.GetPricing(ctx, kind)
	if err != nil {
		return nil, NewFailedToFetchError(fmt.Sprintf("Failed to fetch %s pricing", kind), err)
	}
	return calc(table), nil
}

func sumFees(parts ...*money.Money) (*money.Money, error) {
	total := parts[0]
	for _, p := range parts[1:] {
		sum, err := total.Add(p)
		if err != nil {
			return nil, NewFailedToFetchError("Pricing tables use different currencies", err)
		}
		total = sum
	}
	return total, nil
}
