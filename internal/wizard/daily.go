package wizard

import (
	"context"
	"strings"

	"driverhire/internal/models"
	"driverhire/internal/services"
)

// DailyFlow is the single-screen form for hourly daily hire. Login happens
// inline on the same screen, so there is no step machine.
type DailyFlow struct {
	*core
}

func NewDaily(id string, deps Deps) *DailyFlow {
	d := &DailyFlow{core: newCore(id, models.TripTypeDaily, services.FareModeDaily, deps)}
	d.unsubscribe = deps.Sessions.Subscribe(d.onSession)
	return d
}

func (d *DailyFlow) onSession(session *models.Session) {
	if session == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if strings.TrimSpace(d.draft.PhoneNumber) == "" {
		d.draft.PhoneNumber = session.MobileNumber
	}
	d.draft.ClearError(models.FieldSession)
}

func allowDailyTrip(t models.TripType) bool {
	return t == models.TripTypeDaily
}

func (d *DailyFlow) Update(patch *Patch) (State, error) {
	err := d.update(patch, allowDailyTrip)
	return d.State(), err
}

func (d *DailyFlow) SendOTP(ctx context.Context, phone string) (*services.OTPSendResult, error) {
	return d.sendOTP(ctx, phone)
}

func (d *DailyFlow) VerifyOTP(ctx context.Context, code string) (State, error) {
	_, err := d.verifyOTP(ctx, code)
	return d.State(), err
}

func (d *DailyFlow) Authenticate(session *models.Session) {
	if session == nil {
		return
	}
	if current := d.deps.Sessions.Get(); current != nil && current.ID == session.ID {
		return
	}
	d.deps.Sessions.Set(session)
}

func (d *DailyFlow) Submit(ctx context.Context) (*services.SubmitResult, State, error) {
	result, err := d.submit(ctx, func() models.ValidationErrors {
		return ValidateDaily(d.draft, d.deps.Clock.Now())
	}, nil)
	return result, d.State(), err
}

func (d *DailyFlow) Cancel() State {
	d.mu.Lock()
	d.touchLocked()
	d.resetLocked()
	d.mu.Unlock()
	return d.State()
}

func (d *DailyFlow) Close() {
	d.close()
}

func (d *DailyFlow) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()

	state := d.baseStateLocked("daily")
	state.Step, state.TotalSteps, state.Progress = 1, 1, 1
	return state
}
