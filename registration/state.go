package registration

import (
	"maps"
	"time"
)

// State is the progress of one registration. The orchestrator owns it; it is
// mirrored to local storage on every change and to the remote checkpoint on
// every completed step.
type State struct {
	CurrentStep    StepID   `json:"currentStep"`
	CompletedSteps StepSet  `json:"completedSteps"`
	Data           StepData `json:"data"`
	Email          string   `json:"email"`
	EmailVerified  bool     `json:"emailVerified"`
}

func NewState(flow Flow) State {
	return State{
		CurrentStep: flow.Start,
		Data:        StepData{},
	}
}

func (s State) Clone() State {
	c := s
	c.CompletedSteps = append(StepSet(nil), s.CompletedSteps...)
	c.Data = maps.Clone(s.Data)
	if c.Data == nil {
		c.Data = StepData{}
	}
	return c
}

func (s State) IsCompleted(step StepID) bool {
	return s.CompletedSteps.Contains(step)
}

// Checkpoint is the server side copy of a registration's progress, keyed by
// email.
type Checkpoint struct {
	Email          string    `json:"email"`
	Flow           string    `json:"flow"`
	Step           StepID    `json:"step"`
	CompletedSteps StepSet   `json:"completedSteps"`
	Data           StepData  `json:"data"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (s State) ToCheckpoint(flow Flow, now time.Time) Checkpoint {
	c := s.Clone()
	return Checkpoint{
		Email:          c.Email,
		Flow:           flow.Name,
		Step:           c.CurrentStep,
		CompletedSteps: c.CompletedSteps,
		Data:           c.Data,
		UpdatedAt:      now,
	}
}

// applyCheckpoint overwrites progress with the checkpoint. Email verification
// is a local concern and is kept.
func (s State) applyCheckpoint(c Checkpoint) State {
	s.CurrentStep = c.Step
	s.CompletedSteps = append(StepSet(nil), c.CompletedSteps...)
	s.Data = maps.Clone(c.Data)
	if s.Data == nil {
		s.Data = StepData{}
	}
	if c.Email != "" {
		s.Email = c.Email
	}
	return s
}
