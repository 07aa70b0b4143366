package sports

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/sports-festival/festival-registration/validation"
)

type Category string

const (
	TEAM       Category = "TEAM"
	INDIVIDUAL Category = "INDIVIDUAL"
)

type Sport struct {
	ID          uuid.UUID
	Version     int
	Name        string
	Category    Category
	AgeGroups   []string
	Disciplines []string

	NumStudents     int
	NumInstitutions int
}

// OffersAgeGroup reports whether the sport runs a competition for ageGroup.
func (s Sport) OffersAgeGroup(ageGroup string) bool {
	return slices.ContainsFunc(s.AgeGroups, func(g string) bool {
		return strings.EqualFold(g, ageGroup)
	})
}

func (s Sport) OffersDiscipline(discipline string) bool {
	return slices.ContainsFunc(s.Disciplines, func(d string) bool {
		return strings.EqualFold(d, discipline)
	})
}

func (s Sport) Validate() error {
	var v validation.Collector
	v.Require("name", s.Name)
	v.Check(s.Category == TEAM || s.Category == INDIVIDUAL, "category", "must be TEAM or INDIVIDUAL")
	v.Check(len(s.AgeGroups) > 0, "ageGroups", "must list at least one age group")
	for i, g := range s.AgeGroups {
		_, ok := validation.BracketRange(g)
		v.Check(ok, fmt.Sprintf("ageGroups[%d]", i), fmt.Sprintf("unknown age group %q", g))
	}
	return v.Err()
}

type GetSportsResponse struct {
	Data        []Sport
	Cursor      *string
	HasNextPage bool
}

type Repository interface {
	GetSport(ctx context.Context, id uuid.UUID) (Sport, error)
	GetSports(ctx context.Context, limit int32, cursor *string) (GetSportsResponse, error)
	CreateSport(ctx context.Context, sport Sport) error
	UpdateSport(ctx context.Context, sport Sport) error
}

func CreateSport(ctx context.Context, repo Repository, sport Sport) (Sport, error) {
	if err := sport.Validate(); err != nil {
		return Sport{}, NewInvalidSportError("Sport is invalid", err)
	}

	sport.ID = uuid.New()
	sport.Version = 1
	sport.NumStudents = 0
	sport.NumInstitutions = 0

	err := repo.CreateSport(ctx, sport)
	if err != nil {
		return Sport{}, err
	}

	return sport, nil
}

// UpdateSport replaces the editable fields of an existing sport. Registration
// counts are owned by the registration flow and are never taken from updated.
func UpdateSport(ctx context.Context, repo Repository, id uuid.UUID, updated Sport) (Sport, error) {
	if err := updated.Validate(); err != nil {
		return Sport{}, NewInvalidSportError("Sport is invalid", err)
	}

	existing, err := repo.GetSport(ctx, id)
	if err != nil {
		return Sport{}, err
	}

	updated.ID = existing.ID
	updated.Version = existing.Version + 1
	updated.NumStudents = existing.NumStudents
	updated.NumInstitutions = existing.NumInstitutions

	err = repo.UpdateSport(ctx, updated)
	if err != nil {
		return Sport{}, err
	}

	return updated, nil
}
