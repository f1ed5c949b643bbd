// Package wizard drives the customer booking flows: the multi-step wizard
// for one-way, round-trip and outstation trips and the single-screen daily
// form. Each flow owns its draft; nothing is shared between customers.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"driverhire/internal/models"
	"driverhire/internal/services"
	"driverhire/internal/utils"
	"driverhire/pkg/logger"
)

var (
	ErrWrongStep        = errors.New("action not available at this step")
	ErrNotAuthenticated = errors.New("mobile number not verified")
	ErrBusy             = errors.New("a submission is already in progress")
	ErrInvalidPatch     = errors.New("invalid field update")
)

// Publisher pushes live updates to subscribers of a flow.
type Publisher interface {
	Publish(roomID, messageType string, data map[string]interface{})
}

// Deps are the collaborators of a single flow. Estimator and Sessions
// must be dedicated to that flow.
type Deps struct {
	Auth      services.Authenticator
	Estimator services.FareEstimator
	Submitter services.BookingSubmitter
	Sessions  services.SessionProvider
	Publisher Publisher
	Clock     services.Clock
	Logger    *logger.Logger
}

// Each check owns a set of draft error fields and replaces them wholesale,
// so a message never outlives the check that produced it.
var (
	scheduleFields = []string{
		models.FieldPickup, models.FieldDrop, models.FieldScheduledTime,
		models.FieldReturnTime, models.FieldVehicleSize, models.FieldUsageHours,
	}
	loginFields  = []string{models.FieldPhone, models.FieldSession}
	submitFields = append(append([]string{}, scheduleFields...), models.FieldSession, models.FieldFare)
)

// SuccessSummary is exposed once after a booking and cleared by the next interaction.
type SuccessSummary struct {
	BookingReference    string `json:"bookingReference"`
	PaymentMode         string `json:"paymentMode"`
	PaymentInstructions string `json:"paymentInstructions"`
	Total               int64  `json:"total"`
	IsEstimate          bool   `json:"isEstimate"`
}

type State struct {
	ID            string               `json:"id"`
	Flow          string               `json:"flow"`
	Step          int                  `json:"step"`
	TotalSteps    int                  `json:"totalSteps"`
	Progress      float64              `json:"progress"`
	Authenticated bool                 `json:"authenticated"`
	Draft         *models.BookingDraft `json:"draft"`
	Fare          services.FareUpdate  `json:"fare"`
	OTPSentTo     string               `json:"otpSentTo,omitempty"`
	Error         string               `json:"error,omitempty"`
	Submitting    bool                 `json:"submitting"`
	Summary       *SuccessSummary      `json:"summary,omitempty"`
}

// core is the state and behaviour shared by both flows. All fields below
// mu are guarded by it; network calls are made without holding it.
type core struct {
	id          string
	initialTrip models.TripType
	fareMode    services.FareMode
	deps        Deps

	mu          sync.Mutex
	draft       *models.BookingDraft
	summary     *SuccessSummary
	lastError   string
	otpSentTo   string
	submitting  bool
	updatedAt   time.Time
	unsubscribe func()
}

func newCore(id string, tripType models.TripType, mode services.FareMode, deps Deps) *core {
	if deps.Clock == nil {
		deps.Clock = services.SystemClock()
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	c := &core{
		id:          id,
		initialTrip: tripType,
		fareMode:    mode,
		deps:        deps,
		draft:       models.NewBookingDraft(tripType),
		updatedAt:   deps.Clock.Now(),
	}
	deps.Estimator.SetListener(c.publishFare)
	return c
}

func (c *core) publishFare(update services.FareUpdate) {
	if c.deps.Publisher == nil {
		return
	}
	c.deps.Publisher.Publish(c.id, "fare_update", map[string]interface{}{
		"seq":     update.Seq,
		"fare":    update.Fare,
		"notice":  update.Notice,
		"pending": update.Pending,
	})
}

// touchLocked records an interaction, which also retires the one-shot summary.
func (c *core) touchLocked() {
	c.summary = nil
	c.lastError = ""
	c.updatedAt = c.deps.Clock.Now()
}

func (c *core) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updatedAt
}

func (c *core) update(patch *Patch, allowTripType func(models.TripType) bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitting {
		return ErrBusy
	}
	c.touchLocked()

	_, fareChanged, err := patch.apply(c.draft, allowTripType)
	if err != nil {
		return err
	}
	if fareChanged {
		// Requested under the lock so estimator requests keep input order.
		c.deps.Estimator.Request(c.draft.Clone(), c.fareMode)
	}
	return nil
}

func (c *core) sendOTP(ctx context.Context, phone string) (*services.OTPSendResult, error) {
	c.mu.Lock()
	c.touchLocked()
	if strings.TrimSpace(phone) == "" {
		phone = c.draft.PhoneNumber
	}
	normalized, ok := ValidatePhone(phone)
	if !ok {
		c.draft.Errors[models.FieldPhone] = services.OTPErrorMessage(services.ErrInvalidMobile)
		c.mu.Unlock()
		return nil, models.ValidationErrors{models.FieldPhone: c.draft.Errors[models.FieldPhone]}
	}
	c.draft.PhoneNumber = normalized
	c.draft.ClearError(models.FieldPhone)
	c.mu.Unlock()

	result, err := c.deps.Auth.SendCode(ctx, normalized)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.draft.Errors[models.FieldPhone] = services.OTPErrorMessage(err)
		return nil, err
	}
	c.otpSentTo = normalized
	c.draft.ClearError(models.FieldOTP)
	return result, nil
}

func (c *core) verifyOTP(ctx context.Context, code string) (*models.Session, error) {
	c.mu.Lock()
	c.touchLocked()
	phone := c.otpSentTo
	if phone == "" {
		c.draft.Errors[models.FieldPhone] = "Request a verification code first."
		c.mu.Unlock()
		return nil, models.ValidationErrors{models.FieldPhone: "Request a verification code first."}
	}
	c.mu.Unlock()

	session, err := c.deps.Auth.VerifyCode(ctx, phone, strings.TrimSpace(code))

	c.mu.Lock()
	if err != nil {
		c.draft.Errors[models.FieldOTP] = services.OTPErrorMessage(err)
		c.mu.Unlock()
		return nil, err
	}
	c.draft.ClearError(models.FieldOTP)
	c.draft.ClearError(models.FieldSession)
	if strings.TrimSpace(c.draft.PhoneNumber) == "" {
		c.draft.PhoneNumber = session.MobileNumber
	}
	c.mu.Unlock()

	// Outside the lock: observers of the provider re-enter the flow.
	c.deps.Sessions.Set(session)
	return session, nil
}

// submit runs the final booking. validate is called with the lock held
// and must not block.
func (c *core) submit(ctx context.Context, validate func() models.ValidationErrors, onSuccess func()) (*services.SubmitResult, error) {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.touchLocked()

	errs := validate()
	session := c.deps.Sessions.Get()
	if session == nil {
		errs.Add(models.FieldSession, "Please verify your mobile number to continue.")
	}
	fare := c.deps.Estimator.Current()
	if fare.Fare == nil {
		if fare.Pending {
			errs.Add(models.FieldFare, "Fare is still being calculated.")
		} else {
			errs.Add(models.FieldFare, "Fare is not available yet.")
		}
	}
	c.replaceErrorsLocked(submitFields, errs)
	if errs.HasErrors() {
		c.mu.Unlock()
		return nil, errs
	}

	c.submitting = true
	snapshot := c.draft.Clone()
	c.mu.Unlock()

	result, err := c.deps.Submitter.Submit(ctx, snapshot, fare.Fare, session)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false

	var verrs models.ValidationErrors
	if errors.As(err, &verrs) {
		c.attachErrorsLocked(verrs)
		return nil, verrs
	}
	if err != nil {
		c.lastError = utils.ErrBookingFailed
		return nil, fmt.Errorf("submit booking: %w", err)
	}
	if !result.Success {
		// Draft is kept so the customer can retry.
		c.lastError = result.Message
		return result, nil
	}

	c.resetLocked()
	c.summary = &SuccessSummary{
		BookingReference:    result.BookingReference,
		PaymentMode:         result.PaymentMode,
		PaymentInstructions: paymentInstructions(result.PaymentMode),
		Total:               fare.Fare.Total,
		IsEstimate:          fare.Fare.IsEstimate,
	}
	if onSuccess != nil {
		onSuccess()
	}
	c.deps.Logger.LogBookingEvent(result.BookingReference, "wizard_completed", map[string]interface{}{
		"flow_id": c.id,
	})
	return result, nil
}

func (c *core) attachErrorsLocked(errs models.ValidationErrors) {
	for field, msg := range errs {
		c.draft.Errors[field] = msg
	}
}

func (c *core) replaceErrorsLocked(fields []string, errs models.ValidationErrors) {
	for _, field := range fields {
		c.draft.ClearError(field)
	}
	c.attachErrorsLocked(errs)
}

// SignOut drops the held session if it is sessionID, e.g. after the
// customer logged out through another request. It reports whether the
// flow was signed out.
func (c *core) SignOut(sessionID string) bool {
	current := c.deps.Sessions.Get()
	if current == nil || current.ID != sessionID {
		return false
	}
	// Outside the lock: observers of the provider re-enter the flow.
	c.deps.Sessions.Clear()
	return true
}

// resetLocked returns the draft to defaults and drops any pending quote.
func (c *core) resetLocked() {
	c.draft = models.NewBookingDraft(c.initialTrip)
	c.otpSentTo = ""
	c.deps.Estimator.Reset()
}

func (c *core) close() {
	c.deps.Estimator.Cancel()
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

func (c *core) baseStateLocked(flow string) State {
	session := c.deps.Sessions.Get()
	state := State{
		ID:            c.id,
		Flow:          flow,
		Authenticated: session != nil,
		Draft:         c.draft.Clone(),
		Fare:          c.deps.Estimator.Current(),
		Error:         c.lastError,
		Submitting:    c.submitting,
	}
	if c.otpSentTo != "" {
		state.OTPSentTo = utils.MaskPhone(c.otpSentTo)
	}
	if c.summary != nil {
		s := *c.summary
		state.Summary = &s
	}
	return state
}

func paymentInstructions(mode string) string {
	if mode == "" {
		return "Pay your driver directly at the end of the trip."
	}
	return fmt.Sprintf("Payment mode: %s. Pay your driver directly at the end of the trip.", mode)
}
