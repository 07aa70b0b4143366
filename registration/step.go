package registration

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
)

type StepID int

const (
	StepNone StepID = iota
	StepDetails
	StepDocuments
	StepGuardianMedical
	StepSports
	StepPayment
)

func (s StepID) String() string {
	switch s {
	case StepNone:
		return "none"
	case StepDetails:
		return "details"
	case StepDocuments:
		return "documents"
	case StepGuardianMedical:
		return "guardian-medical"
	case StepSports:
		return "sports"
	case StepPayment:
		return "payment"
	default:
		return "StepID(" + strconv.Itoa(int(s)) + ")"
	}
}

func ParseStepID(s string) (StepID, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return StepNone, fmt.Errorf("invalid step %q: %w", s, err)
	}
	step := StepID(n)
	if step < StepDetails || step > StepPayment {
		return StepNone, fmt.Errorf("step %d out of range", n)
	}
	return step, nil
}

// StepSet is a set of completed steps. It is kept sorted and free of
// duplicates so that its JSON form is stable.
type StepSet []StepID

func (s StepSet) Contains(step StepID) bool {
	_, found := slices.BinarySearch(s, step)
	return found
}

// Add returns the set with step in it. Adding a step twice is a no-op.
func (s StepSet) Add(step StepID) StepSet {
	i, found := slices.BinarySearch(s, step)
	if found {
		return s
	}
	return slices.Insert(slices.Clone(s), i, step)
}

func NewStepSet(steps ...StepID) StepSet {
	var s StepSet
	for _, step := range steps {
		s = s.Add(step)
	}
	return s
}

func (s StepSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]StepID(s))
}

func (s *StepSet) UnmarshalJSON(b []byte) error {
	var raw []StepID
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = NewStepSet(raw...)
	return nil
}
