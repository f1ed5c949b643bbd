package services

import (
	"context"
	"math"
	"sync"
	"time"

	"driverhire/internal/gateway"
	"driverhire/internal/models"
	"driverhire/pkg/logger"
)

// Local fallback pricing, whole currency units.
const (
	NightSurcharge       int64 = 200
	ProtectionFee        int64 = 50
	nightStartHour             = 22
	nightEndHour               = 6
	PickupTypeLocal            = "local"
	PickupTypeOutstation       = "outstation"
)

// FareEstimateNotice is shown alongside a fallback fare.
const FareEstimateNotice = "Live pricing is unavailable right now. Showing an estimated fare."

var fallbackBaseFares = map[models.VehicleSize]int64{
	models.VehicleSizeHatchback: 349,
	models.VehicleSizeSedan:     399,
	models.VehicleSizeSUV:       499,
}

var vehicleClassIDs = map[models.VehicleSize]int{
	models.VehicleSizeHatchback: 1,
	models.VehicleSizeSedan:     2,
	models.VehicleSizeSUV:       3,
}

var tripTypeCodes = map[models.TripType]int{
	models.TripTypeOneWay:     1,
	models.TripTypeRoundTrip:  2,
	models.TripTypeOutstation: 3,
	models.TripTypeDaily:      4,
}

// FareMode selects which inputs are needed before a quote is attempted.
type FareMode int

const (
	// FareModeWizard needs pickup, drop and a scheduled time.
	FareModeWizard FareMode = iota
	// FareModeDaily needs only a pickup.
	FareModeDaily
)

// FareUpdate is published whenever the estimate changes. A nil Fare means
// no result, either because inputs are incomplete or a quote is pending.
type FareUpdate struct {
	Seq     uint64                `json:"seq"`
	Fare    *models.FareBreakdown `json:"fare"`
	Notice  string                `json:"notice,omitempty"`
	Pending bool                  `json:"pending"`
}

// FareEstimator produces a fare for a draft, debouncing input changes and
// canceling superseded quotes. One estimator belongs to one draft owner.
type FareEstimator interface {
	// Request invalidates the current result and restarts the debounce cycle.
	Request(draft *models.BookingDraft, mode FareMode)
	Current() FareUpdate
	SetListener(fn func(FareUpdate))
	// Cancel stops the pending quote and its timer, keeping any result.
	Cancel()
	// Reset cancels and clears the result.
	Reset()
}

type FareEstimatorConfig struct {
	Debounce     time.Duration
	QuoteTimeout time.Duration
	// Location is the service zone; nil keeps each timestamp's own zone.
	Location *time.Location
}

// pendingQuote pairs the debounce timer with the cancel func of the
// request it will issue; both are dropped together.
type pendingQuote struct {
	seq    uint64
	timer  Timer
	cancel context.CancelFunc
}

type fareEstimator struct {
	quoter   FareQuoter
	distance DistanceService
	config   FareEstimatorConfig
	clock    Clock
	logger   *logger.Logger

	mu       sync.Mutex
	seq      uint64
	pending  *pendingQuote
	current  *models.FareBreakdown
	notice   string
	listener func(FareUpdate)

	// emitMu serializes listener calls; emitted is the highest seq delivered.
	emitMu  sync.Mutex
	emitted uint64
}

func NewFareEstimator(quoter FareQuoter, distance DistanceService, config FareEstimatorConfig, clock Clock, logger *logger.Logger) FareEstimator {
	if clock == nil {
		clock = SystemClock()
	}
	if config.QuoteTimeout <= 0 {
		config.QuoteTimeout = 10 * time.Second
	}
	return &fareEstimator{
		quoter:   quoter,
		distance: distance,
		config:   config,
		clock:    clock,
		logger:   logger,
	}
}

func (e *fareEstimator) SetListener(fn func(FareUpdate)) {
	e.mu.Lock()
	e.listener = fn
	e.mu.Unlock()
}

func (e *fareEstimator) Request(draft *models.BookingDraft, mode FareMode) {
	e.mu.Lock()
	e.cancelPendingLocked()
	e.seq++
	seq := e.seq
	e.current = nil
	e.notice = ""

	if !FareQuotable(draft, mode) {
		e.mu.Unlock()
		e.emit(FareUpdate{Seq: seq})
		return
	}

	snapshot := draft.Clone()
	ctx, cancel := context.WithCancel(context.Background())
	p := &pendingQuote{seq: seq, cancel: cancel}
	p.timer = e.clock.AfterFunc(e.config.Debounce, func() {
		e.fire(ctx, p, snapshot)
	})
	e.pending = p
	e.mu.Unlock()

	e.emit(FareUpdate{Seq: seq, Pending: true})
}

func (e *fareEstimator) fire(ctx context.Context, p *pendingQuote, draft *models.BookingDraft) {
	if ctx.Err() != nil {
		return
	}

	fare, notice, ok := e.quote(ctx, draft)
	if !ok {
		return
	}

	e.mu.Lock()
	if e.pending != p {
		e.mu.Unlock()
		return
	}
	e.pending = nil
	e.current = &fare
	e.notice = notice
	e.mu.Unlock()

	result := fare
	e.emit(FareUpdate{Seq: p.seq, Fare: &result, Notice: notice})
}

// quote reports ok=false only when ctx was canceled; that result is discarded.
func (e *fareEstimator) quote(ctx context.Context, draft *models.BookingDraft) (models.FareBreakdown, string, bool) {
	if e.quoter == nil {
		return FallbackFare(draft, e.config.Location), FareEstimateNotice, true
	}

	qctx, cancel := context.WithTimeout(ctx, e.config.QuoteTimeout)
	defer cancel()

	var km float64
	if e.distance != nil && draft.DropLocation != nil {
		km = e.distance.Kilometers(qctx, draft.PickupLocation, draft.DropLocation)
	}

	quote, err := e.quoter.GetFareAmount(qctx, BuildFareQuoteRequest(draft, km, e.clock.Now(), e.config.Location))
	if ctx.Err() != nil {
		return models.FareBreakdown{}, "", false
	}
	if err != nil {
		e.logger.WithError(err).WithField("vehicle_size", string(draft.VehicleSize)).Warn("Live fare quote failed, using estimate")
		return FallbackFare(draft, e.config.Location), FareEstimateNotice, true
	}
	return FareFromQuote(quote, draft), "", true
}

func (e *fareEstimator) Current() FareUpdate {
	e.mu.Lock()
	defer e.mu.Unlock()

	update := FareUpdate{Seq: e.seq, Notice: e.notice, Pending: e.pending != nil}
	if e.current != nil {
		fare := *e.current
		update.Fare = &fare
	}
	return update
}

func (e *fareEstimator) Cancel() {
	e.mu.Lock()
	e.cancelPendingLocked()
	e.mu.Unlock()
}

func (e *fareEstimator) Reset() {
	e.mu.Lock()
	e.cancelPendingLocked()
	e.seq++
	seq := e.seq
	e.current = nil
	e.notice = ""
	e.mu.Unlock()

	e.emit(FareUpdate{Seq: seq})
}

func (e *fareEstimator) cancelPendingLocked() {
	if e.pending == nil {
		return
	}
	e.pending.timer.Stop()
	e.pending.cancel()
	e.pending = nil
}

// emit delivers updates to the listener in seq order. An update that lost
// the race to a newer one is dropped, so a stale fare never follows a
// newer pending marker.
func (e *fareEstimator) emit(update FareUpdate) {
	e.mu.Lock()
	fn := e.listener
	e.mu.Unlock()

	e.emitMu.Lock()
	defer e.emitMu.Unlock()
	if update.Seq < e.emitted {
		return
	}
	e.emitted = update.Seq
	if fn != nil {
		fn(update)
	}
}

// FareQuotable reports whether draft has the inputs a quote needs.
func FareQuotable(draft *models.BookingDraft, mode FareMode) bool {
	if draft == nil || draft.VehicleSize == "" || draft.PickupLocation == nil {
		return false
	}
	if mode == FareModeDaily {
		return true
	}
	return draft.DropLocation != nil && draft.ScheduledTime != nil
}

// FallbackFare is the deterministic local estimate: base fare for the
// vehicle, a night surcharge for pickups between 22:00 and 06:00 and the
// damage protection fee.
func FallbackFare(draft *models.BookingDraft, loc *time.Location) models.FareBreakdown {
	fare := models.FareBreakdown{
		BaseFare:   fallbackBaseFares[draft.VehicleSize],
		IsEstimate: true,
	}
	if draft.ScheduledTime != nil && isNightHour(inZone(*draft.ScheduledTime, loc).Hour()) {
		fare.NightCharge = NightSurcharge
	}
	if draft.DamageProtection {
		fare.ProtectionFee = ProtectionFee
	}
	fare.Total = fare.BaseFare + fare.NightCharge + fare.ProtectionFee
	return fare
}

// FareFromQuote rounds the remote amounts to whole units and adds the
// protection fee, which the legacy API does not price.
func FareFromQuote(quote *gateway.FareQuote, draft *models.BookingDraft) models.FareBreakdown {
	fare := models.FareBreakdown{
		BaseFare:    int64(math.Round(quote.BaseFare)),
		NightCharge: int64(math.Round(quote.NightCharge)),
		Total:       int64(math.Round(quote.Total)),
	}
	if draft.DamageProtection {
		fare.ProtectionFee = ProtectionFee
		fare.Total += ProtectionFee
	}
	return fare
}

// BuildFareQuoteRequest maps a draft onto the legacy GetFareAmount shape.
// Without a scheduled time the quote is for now. Date and time are sent
// as wall clock in loc.
func BuildFareQuoteRequest(draft *models.BookingDraft, km float64, now time.Time, loc *time.Location) *gateway.FareQuoteRequest {
	at := now
	if draft.ScheduledTime != nil {
		at = *draft.ScheduledTime
	}
	at = inZone(at, loc)
	return &gateway.FareQuoteRequest{
		ClassID:     vehicleClassIDs[draft.VehicleSize],
		Hours:       draft.EstimatedUsageHours,
		TripType:    tripTypeCodes[draft.TripType],
		PickupType:  PickupTypeFor(draft.TripType),
		PickupPlace: draft.PickupLocation.Label(),
		DropPlace:   draft.DropLocation.Label(),
		RequestDate: at.Format("02/01/2006"),
		PickupTime:  at.Format("15:04"),
		TripKms:     km,
	}
}

func PickupTypeFor(tripType models.TripType) string {
	if tripType == models.TripTypeOutstation {
		return PickupTypeOutstation
	}
	return PickupTypeLocal
}

func inZone(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t
	}
	return t.In(loc)
}

func isNightHour(hour int) bool {
	return hour >= nightStartHour || hour < nightEndHour
}
