package registration

import (
	"encoding/json"
	"log/slog"
	"strconv"
)

// LocalStore is string key/value storage that lives with the user's session,
// like browser local storage. Writes are treated as infallible.
type LocalStore interface {
	Get(key string) (string, bool)
	Set(key string, value string)
	Remove(key string)
}

type snapshotKeys struct {
	step, completed, data, email, verified string
}

func keysFor(flow Flow) snapshotKeys {
	return snapshotKeys{
		step:      flow.Name + "_registration_step",
		completed: flow.Name + "_completed_steps",
		data:      flow.Name + "_registration_data",
		email:     flow.Name + "_registration_email",
		verified:  flow.Name + "_email_verified",
	}
}

func (k snapshotKeys) all() []string {
	return []string{k.step, k.completed, k.data, k.email, k.verified}
}

func SaveSnapshot(store LocalStore, flow Flow, state State) error {
	keys := keysFor(flow)

	completed, err := json.Marshal(state.CompletedSteps)
	if err != nil {
		return err
	}
	data, err := json.Marshal(state.Data)
	if err != nil {
		return err
	}

	store.Set(keys.step, strconv.Itoa(int(state.CurrentStep)))
	store.Set(keys.completed, string(completed))
	store.Set(keys.data, string(data))
	store.Set(keys.email, state.Email)
	store.Set(keys.verified, strconv.FormatBool(state.EmailVerified))

	return nil
}

// LoadSnapshot reads the state saved for flow. Missing or unreadable keys fall
// back to the defaults of a new registration.
func LoadSnapshot(store LocalStore, flow Flow, logger *slog.Logger) State {
	keys := keysFor(flow)
	state := NewState(flow)

	if v, ok := store.Get(keys.step); ok {
		n, err := strconv.Atoi(v)
		if _, known := flow.Rule(StepID(n)); err == nil && known {
			state.CurrentStep = StepID(n)
		} else {
			logger.Warn("ignoring stored step", slog.String("flow", flow.Name), slog.String("value", v))
		}
	}

	if v, ok := store.Get(keys.completed); ok {
		var completed StepSet
		if err := json.Unmarshal([]byte(v), &completed); err != nil {
			logger.Warn("ignoring stored completed steps", slog.String("flow", flow.Name), slog.String("error", err.Error()))
		} else {
			state.CompletedSteps = completed
		}
	}

	if v, ok := store.Get(keys.data); ok {
		var data StepData
		if err := json.Unmarshal([]byte(v), &data); err != nil {
			logger.Warn("ignoring stored registration data", slog.String("flow", flow.Name), slog.String("error", err.Error()))
		} else {
			state.Data = data
		}
	}

	if v, ok := store.Get(keys.email); ok {
		state.Email = v
	}

	if v, ok := store.Get(keys.verified); ok {
		state.EmailVerified, _ = strconv.ParseBool(v)
	}

	return state
}

func ClearSnapshot(store LocalStore, flow Flow) {
	for _, key := range keysFor(flow).all() {
		store.Remove(key)
	}
}
