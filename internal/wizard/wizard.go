package wizard

import (
	"context"
	"fmt"
	"strings"

	"driverhire/internal/models"
	"driverhire/internal/services"
)

type Step int

const (
	StepLocations Step = 1
	StepLogin     Step = 2
	StepConfirm   Step = 3
)

// Progress is derived from the step and session state, never stored.
// The login step is skipped for authenticated customers, so they see
// two steps instead of three.
func Progress(step Step, authenticated bool) (current, total int, ratio float64) {
	total = 3
	current = int(step)
	if authenticated {
		total = 2
		if step >= StepLogin {
			current = 2
		}
	}
	return current, total, float64(current) / float64(total)
}

// Wizard is the multi-step flow for one-way, round-trip and outstation trips.
type Wizard struct {
	*core
	step Step
}

func New(id string, tripType models.TripType, deps Deps) (*Wizard, error) {
	if !allowWizardTrip(tripType) {
		return nil, fmt.Errorf("%w: trip type %q", ErrInvalidPatch, tripType)
	}
	w := &Wizard{
		core: newCore(id, tripType, services.FareModeWizard, deps),
		step: StepLocations,
	}
	w.unsubscribe = deps.Sessions.Subscribe(w.onSession)
	return w, nil
}

func allowWizardTrip(t models.TripType) bool {
	return t == models.TripTypeOneWay || t == models.TripTypeRoundTrip || t == models.TripTypeOutstation
}

// onSession keeps the step consistent with login or logout that happens
// outside the flow.
func (w *Wizard) onSession(session *models.Session) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case session != nil && w.step == StepLogin:
		if strings.TrimSpace(w.draft.PhoneNumber) == "" {
			w.draft.PhoneNumber = session.MobileNumber
		}
		w.draft.ClearError(models.FieldSession)
		w.step = StepConfirm
	case session == nil && w.step == StepConfirm:
		w.step = StepLogin
	}
}

func (w *Wizard) Update(patch *Patch) (State, error) {
	err := w.update(patch, allowWizardTrip)
	return w.State(), err
}

// Next advances one step. Leaving step 1 requires valid locations and
// schedule; leaving the login step requires a session.
func (w *Wizard) Next() (State, error) {
	w.mu.Lock()
	w.touchLocked()
	err := w.nextLocked()
	w.mu.Unlock()
	return w.State(), err
}

func (w *Wizard) nextLocked() error {
	switch w.step {
	case StepLocations:
		errs := ValidateSchedule(w.draft, w.deps.Clock.Now())
		w.replaceErrorsLocked(scheduleFields, errs)
		if errs.HasErrors() {
			return errs
		}
		if session := w.deps.Sessions.Get(); session != nil {
			if strings.TrimSpace(w.draft.PhoneNumber) == "" {
				w.draft.PhoneNumber = session.MobileNumber
			}
			w.step = StepConfirm
			return nil
		}
		w.step = StepLogin
		return nil

	case StepLogin:
		errs := models.ValidationErrors{}
		if strings.TrimSpace(w.draft.PhoneNumber) == "" {
			errs.Add(models.FieldPhone, "Mobile number is required.")
		}
		if w.deps.Sessions.Get() == nil {
			errs.Add(models.FieldSession, "Please verify your mobile number to continue.")
		}
		w.replaceErrorsLocked(loginFields, errs)
		if errs.HasErrors() {
			return errs
		}
		w.step = StepConfirm
		return nil
	}
	return ErrWrongStep
}

// Back never clears entered values. From confirmation an authenticated
// customer returns to step 1, since the login step is skipped for them.
func (w *Wizard) Back() State {
	w.mu.Lock()
	w.touchLocked()
	switch w.step {
	case StepConfirm:
		if w.deps.Sessions.Get() != nil {
			w.step = StepLocations
		} else {
			w.step = StepLogin
		}
	case StepLogin:
		w.step = StepLocations
	}
	w.mu.Unlock()
	return w.State()
}

func (w *Wizard) SendOTP(ctx context.Context, phone string) (*services.OTPSendResult, error) {
	if err := w.requireStep(StepLogin); err != nil {
		return nil, err
	}
	return w.sendOTP(ctx, phone)
}

func (w *Wizard) VerifyOTP(ctx context.Context, code string) (State, error) {
	if err := w.requireStep(StepLogin); err != nil {
		return w.State(), err
	}
	_, err := w.verifyOTP(ctx, code)
	return w.State(), err
}

// Authenticate attaches a session established elsewhere, e.g. a bearer
// token on the request.
func (w *Wizard) Authenticate(session *models.Session) {
	if session == nil {
		return
	}
	if current := w.deps.Sessions.Get(); current != nil && current.ID == session.ID {
		return
	}
	w.deps.Sessions.Set(session)
}

func (w *Wizard) Submit(ctx context.Context) (*services.SubmitResult, State, error) {
	if err := w.requireStep(StepConfirm); err != nil {
		return nil, w.State(), err
	}
	result, err := w.submit(ctx,
		func() models.ValidationErrors {
			return ValidateSchedule(w.draft, w.deps.Clock.Now())
		},
		func() { w.step = StepLocations },
	)
	return result, w.State(), err
}

func (w *Wizard) Cancel() State {
	w.mu.Lock()
	w.touchLocked()
	w.resetLocked()
	w.step = StepLocations
	w.mu.Unlock()
	return w.State()
}

func (w *Wizard) Close() {
	w.close()
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	state := w.baseStateLocked("wizard")
	state.Step, state.TotalSteps, state.Progress = Progress(w.step, state.Authenticated)
	return state
}

func (w *Wizard) requireStep(step Step) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != step {
		return fmt.Errorf("%w: at step %d", ErrWrongStep, w.step)
	}
	return nil
}
