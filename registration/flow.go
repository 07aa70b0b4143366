package registration

import (
	"fmt"

	"github.com/sports-festival/festival-registration/slices"
)

// StepRule is one row of a flow's transition table.
type StepRule struct {
	Accepts PayloadKind
	Next    StepID
	Back    StepID
	// Terminal steps submit the whole registration instead of advancing.
	Terminal bool
	// BlockOnSaveFailure stops the user from advancing when the per-step
	// server save fails. Steps without it advance and only log the failure.
	BlockOnSaveFailure bool
}

type Flow struct {
	Name    string
	Start   StepID
	Steps   map[StepID]StepRule
	Landing string
}

var StudentFlow = Flow{
	Name:    "student",
	Start:   StepDetails,
	Landing: "/registration/student/complete",
	Steps: map[StepID]StepRule{
		StepDetails:         {Accepts: PERSONAL_DETAILS, Next: StepDocuments, Back: StepNone, BlockOnSaveFailure: true},
		StepDocuments:       {Accepts: DOCUMENTS, Next: StepGuardianMedical, Back: StepDetails, BlockOnSaveFailure: true},
		StepGuardianMedical: {Accepts: GUARDIAN_MEDICAL, Next: StepSports, Back: StepDocuments},
		StepSports:          {Accepts: SPORTS_SELECTION, Next: StepPayment, Back: StepGuardianMedical},
		StepPayment:         {Accepts: PAYMENT_DETAILS, Back: StepSports, Terminal: true, BlockOnSaveFailure: true},
	},
}

// InstitutionFlow has no guardian/medical step: documents go straight to
// sports and back again.
var InstitutionFlow = Flow{
	Name:    "institution",
	Start:   StepDetails,
	Landing: "/registration/institution/complete",
	Steps: map[StepID]StepRule{
		StepDetails:   {Accepts: INSTITUTION_DETAILS, Next: StepDocuments, Back: StepNone, BlockOnSaveFailure: true},
		StepDocuments: {Accepts: DOCUMENTS, Next: StepSports, Back: StepDetails},
		StepSports:    {Accepts: SPORTS_SELECTION, Next: StepPayment, Back: StepDocuments},
		StepPayment:   {Accepts: PAYMENT_DETAILS, Back: StepSports, Terminal: true, BlockOnSaveFailure: true},
	},
}

func FlowByName(name string) (Flow, error) {
	switch name {
	case StudentFlow.Name:
		return StudentFlow, nil
	case InstitutionFlow.Name:
		return InstitutionFlow, nil
	default:
		return Flow{}, NewUnknownFlowError(name)
	}
}

func (f Flow) Rule(step StepID) (StepRule, bool) {
	r, ok := f.Steps[step]
	return r, ok
}

// Next is the step reached by completing step. Terminal and unknown steps
// stay where they are.
func (f Flow) Next(step StepID) StepID {
	r, ok := f.Steps[step]
	if !ok || r.Terminal {
		return step
	}
	return r.Next
}

// Back is the predecessor of step, or step itself at the start of the flow.
func (f Flow) Back(step StepID) StepID {
	r, ok := f.Steps[step]
	if !ok || r.Back == StepNone {
		return step
	}
	return r.Back
}

// Path lists the steps of the flow from start to the terminal step.
func (f Flow) Path() []StepID {
	var path []StepID
	for step := f.Start; ; {
		r, ok := f.Steps[step]
		if !ok {
			panic(fmt.Sprintf("flow %q has no rule for step %s", f.Name, step))
		}
		path = append(path, step)
		if r.Terminal {
			return path
		}
		step = r.Next
	}
}

// Missing returns the steps of the flow that completed does not contain.
func (f Flow) Missing(completed StepSet) []StepID {
	missing := slices.Filter(f.Path(), func(step StepID) bool {
		return !completed.Contains(step)
	})
	if len(missing) == 0 {
		return nil
	}
	return missing
}
