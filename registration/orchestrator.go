package registration

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sports-festival/festival-registration/metrics"
	"github.com/sports-festival/festival-registration/validation"
)

type OrchestratorDeps struct {
	Local       LocalStore
	Checkpoints CheckpointStore
	Steps       StepSaver
	Submitter   Submitter
	Replicator  *Replicator
	Logger      *slog.Logger
	Now         func() time.Time
}

// Outcome is the result of a step submission.
type Outcome struct {
	State    State
	Finished bool
	Landing  string
	Result   SubmitResult
	// Warnings are non-blocking problems the user should be told about.
	Warnings []string
}

// Orchestrator drives one registration through its flow. It owns the
// registration state, writes every change through to local storage and
// replicates completed steps to the remote checkpoint in the background.
type Orchestrator struct {
	flow        Flow
	local       LocalStore
	checkpoints CheckpointStore
	steps       StepSaver
	submitter   Submitter
	replicator  *Replicator
	logger      *slog.Logger
	now         func() time.Time

	mu    sync.Mutex
	state State
	// generation is bumped by every state change so a slow checkpoint load
	// can tell whether the user moved on while it was in flight.
	generation uint64
}

func NewOrchestrator(flow Flow, deps OrchestratorDeps) *Orchestrator {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		flow:        flow,
		local:       deps.Local,
		checkpoints: deps.Checkpoints,
		steps:       deps.Steps,
		submitter:   deps.Submitter,
		replicator:  deps.Replicator,
		logger:      deps.Logger.With(slog.String("flow", flow.Name)),
		now:         now,
		state:       NewState(flow),
	}
}

func (o *Orchestrator) Flow() Flow {
	return o.flow
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.state.Clone()
}

// Restore loads the locally saved state.
func (o *Orchestrator) Restore() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.state = LoadSnapshot(o.local, o.flow, o.logger)
	o.generation++

	return o.state.Clone()
}

// Mount restores the local state and reconciles it with the remote checkpoint
// in the background. The returned channel is closed once reconciliation ends.
func (o *Orchestrator) Mount(ctx context.Context) <-chan struct{} {
	o.Restore()

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.Reconcile(ctx)
	}()

	return done
}

// Reconcile replaces the state with the remote checkpoint when one exists
// with a step past the start. Remote wins over local. Any failure leaves the
// local state in charge and is only logged. A checkpoint that arrives after
// the state has changed is discarded.
func (o *Orchestrator) Reconcile(ctx context.Context) bool {
	o.mu.Lock()
	email := o.state.Email
	generation := o.generation
	o.mu.Unlock()

	if email == "" {
		return false
	}

	checkpoint, err := o.checkpoints.LoadCheckpoint(ctx, email)
	if err != nil {
		var regErr *Error
		if errors.As(err, &regErr) && regErr.Reason == REASON_CHECKPOINT_DOES_NOT_EXIST {
			o.logger.Debug("no remote checkpoint", slog.String("email", email))
		} else {
			o.logger.Warn("failed to load remote checkpoint, keeping local state", slog.String("email", email), slog.String("error", err.Error()))
		}
		return false
	}

	if checkpoint.Step <= StepNone {
		return false
	}
	if checkpoint.Flow != "" && checkpoint.Flow != o.flow.Name {
		o.logger.Warn("remote checkpoint belongs to another flow", slog.String("email", email), slog.String("checkpointFlow", checkpoint.Flow))
		return false
	}
	if _, ok := o.flow.Rule(checkpoint.Step); !ok {
		o.logger.Warn("remote checkpoint has an unknown step", slog.String("email", email), slog.Int("step", int(checkpoint.Step)))
		return false
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.generation != generation {
		o.logger.Info("discarding remote checkpoint that arrived after local changes", slog.String("email", email))
		return false
	}

	o.state = o.state.applyCheckpoint(checkpoint)
	o.changedLocked()

	return true
}

// SetEmail sets the email that keys the remote checkpoint. Changing it clears
// the verification flag.
func (o *Orchestrator) SetEmail(email string) error {
	if !validation.IsValidEmail(email) {
		return NewInvalidPayloadError("Email is invalid", validation.Errors{{Field: "email", Message: "must be a valid email address"}})
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state.Email != email {
		o.state.EmailVerified = false
	}
	o.state.Email = email
	o.changedLocked()

	return nil
}

func (o *Orchestrator) MarkEmailVerified() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.state.EmailVerified = true
	o.changedLocked()
}

// SubmitStep validates payload for the current step, saves it to the server
// and advances the flow. Submitting the terminal step submits the whole
// registration and clears the saved progress.
func (o *Orchestrator) SubmitStep(ctx context.Context, payload StepPayload) (Outcome, error) {
	o.mu.Lock()
	step := o.state.CurrentStep
	email := o.state.Email
	if email == "" {
		email = payloadEmail(payload)
	}
	payload = o.withParticipantAgeLocked(payload)
	o.mu.Unlock()

	logger := o.logger.With(slog.String("step", step.String()))

	rule, ok := o.flow.Rule(step)
	if !ok || rule.Accepts != payload.Kind() {
		metrics.IncStepSubmission(o.flow.Name, step.String(), "rejected")
		return Outcome{}, NewStepNotAcceptedError(step, payload.Kind())
	}

	err := payload.Validate()
	if err != nil {
		metrics.IncStepSubmission(o.flow.Name, step.String(), "invalid")
		return Outcome{}, NewInvalidPayloadError("Step data is invalid", err)
	}

	if email == "" {
		return Outcome{}, NewEmailNotSetError()
	}

	var warnings []string
	err = o.steps.SaveStep(ctx, o.flow.Name, email, step, payload)
	if err != nil {
		if rule.BlockOnSaveFailure {
			metrics.IncStepSubmission(o.flow.Name, step.String(), "save_failed")
			logger.Error("failed to save step", slog.String("error", err.Error()))
			return Outcome{}, NewStepSaveFailedError(step, err)
		}
		logger.Warn("failed to save step, continuing", slog.String("error", err.Error()))
		warnings = append(warnings, "Your answers for this step could not be saved to the server yet.")
	}

	o.mu.Lock()
	if o.state.Email == "" {
		o.state.Email = email
	}
	o.state.Data[step] = payload
	o.state.CompletedSteps = o.state.CompletedSteps.Add(step)
	if !rule.Terminal {
		o.state.CurrentStep = rule.Next
	}
	o.changedLocked()
	snapshot := o.state.Clone()
	o.mu.Unlock()

	metrics.IncStepSubmission(o.flow.Name, step.String(), "accepted")

	if !rule.Terminal {
		o.replicateSave(snapshot)
		return Outcome{State: snapshot, Warnings: warnings}, nil
	}

	return o.finish(ctx, snapshot, warnings)
}

func (o *Orchestrator) finish(ctx context.Context, snapshot State, warnings []string) (Outcome, error) {
	if missing := o.flow.Missing(snapshot.CompletedSteps); len(missing) > 0 {
		o.replicateSave(snapshot)
		return Outcome{State: snapshot, Warnings: warnings}, NewIncompleteRegistrationError(missing)
	}

	result, err := o.submitter.Submit(ctx, o.flow.Name, snapshot)
	if err != nil {
		o.logger.Error("failed to submit registration", slog.String("email", snapshot.Email), slog.String("error", err.Error()))
		o.replicateSave(snapshot)
		return Outcome{State: snapshot, Warnings: warnings}, NewSubmitFailedError("Failed to submit registration", err)
	}

	o.mu.Lock()
	ClearSnapshot(o.local, o.flow)
	o.state = NewState(o.flow)
	o.generation++
	fresh := o.state.Clone()
	o.mu.Unlock()

	o.replicateClear(snapshot.Email)

	o.logger.Info("registration submitted", slog.String("email", snapshot.Email), slog.String("id", result.ID.String()))

	return Outcome{
		State:    fresh,
		Finished: true,
		Landing:  o.flow.Landing,
		Result:   result,
		Warnings: warnings,
	}, nil
}

// Back moves to the previous step of the flow. Completed steps and their data
// are kept.
func (o *Orchestrator) Back() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.state.CurrentStep = o.flow.Back(o.state.CurrentStep)
	o.changedLocked()

	return o.state.Clone()
}

// StartOver throws away all progress, locally and remotely.
func (o *Orchestrator) StartOver(ctx context.Context) State {
	o.mu.Lock()
	email := o.state.Email
	ClearSnapshot(o.local, o.flow)
	o.state = NewState(o.flow)
	o.generation++
	fresh := o.state.Clone()
	o.mu.Unlock()

	if email != "" {
		o.replicateClear(email)
	}

	return fresh
}

// changedLocked writes the state through to local storage. o.mu must be held.
func (o *Orchestrator) changedLocked() {
	o.generation++

	err := SaveSnapshot(o.local, o.flow, o.state)
	if err != nil {
		o.logger.Error("failed to write local snapshot", slog.String("error", err.Error()))
	}
}

func (o *Orchestrator) replicateSave(snapshot State) {
	checkpoint := snapshot.ToCheckpoint(o.flow, o.now())
	o.replicator.Enqueue("save-checkpoint", func(ctx context.Context) error {
		return o.checkpoints.SaveCheckpoint(ctx, checkpoint)
	})
}

func (o *Orchestrator) replicateClear(email string) {
	o.replicator.Enqueue("clear-checkpoint", func(ctx context.Context) error {
		return o.checkpoints.ClearCheckpoint(ctx, email)
	})
}

// withParticipantAgeLocked replaces the participant age of a sports selection
// with the age derived from the date of birth given on the details step.
func (o *Orchestrator) withParticipantAgeLocked(payload StepPayload) StepPayload {
	selection, ok := payload.(SportsSelection)
	if !ok {
		return payload
	}
	details, ok := o.state.Data[StepDetails].(PersonalDetails)
	if !ok {
		return payload
	}
	return selection.withAgeFrom(details, o.now())
}

func payloadEmail(payload StepPayload) string {
	switch p := payload.(type) {
	case PersonalDetails:
		return p.Email
	case InstitutionDetails:
		return p.Email
	default:
		return ""
	}
}
