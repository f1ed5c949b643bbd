package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"driverhire/internal/gateway"
	"driverhire/internal/models"
	"driverhire/pkg/logger"
)

const debounce = 700 * time.Millisecond

func newTestEstimator(quoter FareQuoter, clock *ManualClock) FareEstimator {
	return NewFareEstimator(quoter, nil, FareEstimatorConfig{Debounce: debounce, QuoteTimeout: time.Minute}, clock, logger.NewNop())
}

func TestFareDebounceCoalescesRequests(t *testing.T) {
	clock := NewManualClock(time.Now())
	quoter := &fakeQuoter{quote: &gateway.FareQuote{BaseFare: 399, Total: 399}}
	estimator := newTestEstimator(quoter, clock)
	draft := fullDraft(clock.Now().Add(24 * time.Hour))

	for i, hours := range []int{2, 3, 5} {
		if i > 0 {
			clock.Advance(100 * time.Millisecond)
		}
		d := draft.Clone()
		d.EstimatedUsageHours = hours
		estimator.Request(d, FareModeWizard)
	}

	clock.Advance(debounce - time.Millisecond)
	if n := len(quoter.calls()); n != 0 {
		t.Fatalf("calls before quiet period got %d want 0", n)
	}

	clock.Advance(time.Millisecond)
	calls := quoter.calls()
	if len(calls) != 1 {
		t.Fatalf("calls got %d want 1", len(calls))
	}
	if calls[0].Hours != 5 {
		t.Fatalf("quoted hours got %d want 5 (latest request)", calls[0].Hours)
	}
	if cur := estimator.Current(); cur.Fare == nil || cur.Fare.Total != 399 || cur.Fare.IsEstimate {
		t.Fatalf("current fare got %+v", cur.Fare)
	}
}

func TestFareCanceledResultIsDiscarded(t *testing.T) {
	clock := NewManualClock(time.Now())
	quoter := &fakeQuoter{
		quote:   &gateway.FareQuote{BaseFare: 500, Total: 600},
		started: make(chan struct{}),
		release: make(chan struct{}),
		blocked: &gateway.FareQuote{BaseFare: 900, Total: 999},
	}
	estimator := newTestEstimator(quoter, clock)

	var mu sync.Mutex
	var updates []FareUpdate
	estimator.SetListener(func(u FareUpdate) {
		mu.Lock()
		updates = append(updates, u)
		mu.Unlock()
	})

	draft := fullDraft(clock.Now().Add(24 * time.Hour))
	estimator.Request(draft, FareModeWizard)

	done := make(chan struct{})
	go func() {
		clock.Advance(debounce)
		close(done)
	}()
	<-quoter.started

	estimator.Request(draft.Clone(), FareModeWizard)
	clock.Advance(debounce)
	if cur := estimator.Current(); cur.Fare == nil || cur.Fare.Total != 600 {
		t.Fatalf("fare after second quote got %+v want total 600", cur.Fare)
	}

	close(quoter.release)
	<-done

	if cur := estimator.Current(); cur.Fare == nil || cur.Fare.Total != 600 {
		t.Fatalf("late result overwrote fare: got %+v", cur.Fare)
	}
	mu.Lock()
	defer mu.Unlock()
	for _, u := range updates {
		if u.Fare != nil && u.Fare.Total == 999 {
			t.Fatalf("canceled result was published: %+v", u)
		}
	}
}

func TestFareFallbackOnRemoteFailure(t *testing.T) {
	clock := NewManualClock(time.Date(2030, 1, 10, 9, 0, 0, 0, time.UTC))
	quoter := &fakeQuoter{err: gateway.ErrRemoteUnavailable}
	estimator := newTestEstimator(quoter, clock)

	draft := fullDraft(clock.Now().Add(24 * time.Hour))
	draft.DamageProtection = true
	estimator.Request(draft, FareModeWizard)
	clock.Advance(debounce)

	cur := estimator.Current()
	if cur.Fare == nil {
		t.Fatalf("no fare after fallback")
	}
	if cur.Fare.Total != 449 || !cur.Fare.IsEstimate {
		t.Fatalf("fallback fare got %+v want total 449 estimate", cur.Fare)
	}
	if cur.Notice != FareEstimateNotice {
		t.Fatalf("notice got %q", cur.Notice)
	}
}

func TestFareNoResultWhenInputsIncomplete(t *testing.T) {
	clock := NewManualClock(time.Now())
	quoter := &fakeQuoter{quote: &gateway.FareQuote{Total: 399}}
	estimator := newTestEstimator(quoter, clock)

	draft := fullDraft(clock.Now().Add(time.Hour))
	estimator.Request(draft, FareModeWizard)
	clock.Advance(debounce)
	if estimator.Current().Fare == nil {
		t.Fatalf("expected a fare for complete draft")
	}

	draft.DropLocation = nil
	estimator.Request(draft, FareModeWizard)
	clock.Advance(debounce)

	cur := estimator.Current()
	if cur.Fare != nil || cur.Notice != "" || cur.Pending {
		t.Fatalf("incomplete draft produced %+v", cur)
	}
	if n := len(quoter.calls()); n != 1 {
		t.Fatalf("calls got %d want 1", n)
	}
}

func TestFareDailyNeedsOnlyPickup(t *testing.T) {
	d := models.NewBookingDraft(models.TripTypeDaily)
	d.VehicleSize = models.VehicleSizeSUV
	if FareQuotable(d, FareModeDaily) {
		t.Fatalf("quotable without pickup")
	}
	d.PickupLocation = &models.Location{ID: "A", Name: "Andheri"}
	if !FareQuotable(d, FareModeDaily) {
		t.Fatalf("daily draft with pickup not quotable")
	}
	if FareQuotable(d, FareModeWizard) {
		t.Fatalf("wizard draft without drop and schedule quotable")
	}
}

func TestFareRemoteQuoteRoundsAndAddsProtection(t *testing.T) {
	draft := fullDraft(time.Now())
	draft.DamageProtection = true

	fare := FareFromQuote(&gateway.FareQuote{BaseFare: 399.4, NightCharge: 199.6, Total: 599.5}, draft)
	if fare.BaseFare != 399 || fare.NightCharge != 200 || fare.Total != 650 || fare.IsEstimate {
		t.Fatalf("fare got %+v", fare)
	}
}

func TestFallbackNightSurcharge(t *testing.T) {
	cases := map[int]int64{21: 0, 22: 200, 2: 200, 5: 200, 6: 0}
	for hour, want := range cases {
		draft := fullDraft(time.Date(2030, 1, 10, hour, 30, 0, 0, time.UTC))
		draft.VehicleSize = models.VehicleSizeHatchback
		fare := FallbackFare(draft, nil)
		if fare.NightCharge != want || fare.Total != 349+want {
			t.Fatalf("hour %d got %+v", hour, fare)
		}
	}
}

func TestFareRequestMapping(t *testing.T) {
	draft := fullDraft(time.Date(2030, 3, 7, 18, 45, 0, 0, time.UTC))
	draft.TripType = models.TripTypeOutstation
	draft.VehicleSize = models.VehicleSizeSUV

	req := BuildFareQuoteRequest(draft, 12.5, time.Now(), nil)
	if req.ClassID != 3 || req.TripType != 3 || req.PickupType != "outstation" {
		t.Fatalf("codes got %+v", req)
	}
	if req.RequestDate != "07/03/2030" || req.PickupTime != "18:45" {
		t.Fatalf("date/time got %s %s", req.RequestDate, req.PickupTime)
	}
	if req.PickupPlace != "Andheri, Mumbai" || req.TripKms != 12.5 || req.Hours != models.DefaultUsageHours {
		t.Fatalf("request got %+v", req)
	}
}

func TestFareResetCancelsPending(t *testing.T) {
	clock := NewManualClock(time.Now())
	quoter := &fakeQuoter{err: errors.New("unused")}
	estimator := newTestEstimator(quoter, clock)

	estimator.Request(fullDraft(clock.Now().Add(time.Hour)), FareModeWizard)
	estimator.Reset()
	clock.Advance(debounce)

	if n := len(quoter.calls()); n != 0 {
		t.Fatalf("calls after reset got %d want 0", n)
	}
	if cur := estimator.Current(); cur.Fare != nil || cur.Pending {
		t.Fatalf("current after reset got %+v", cur)
	}
}

func TestFareUpdatesNeverGoBackwards(t *testing.T) {
	estimator := newTestEstimator(nil, NewManualClock(time.Now())).(*fareEstimator)
	var seen []FareUpdate
	estimator.SetListener(func(u FareUpdate) { seen = append(seen, u) })

	// A quote for seq 1 finishing after seq 2 was requested.
	estimator.emit(FareUpdate{Seq: 2, Pending: true})
	estimator.emit(FareUpdate{Seq: 1, Fare: &models.FareBreakdown{Total: 349}})
	estimator.emit(FareUpdate{Seq: 2, Fare: &models.FareBreakdown{Total: 399}})

	if len(seen) != 2 {
		t.Fatalf("updates got %d want 2: %+v", len(seen), seen)
	}
	if !seen[0].Pending || seen[1].Fare == nil || seen[1].Fare.Total != 399 {
		t.Fatalf("updates got %+v", seen)
	}
}

var ist = time.FixedZone("IST", 5*3600+1800)

func TestNightWindowUsesServiceZone(t *testing.T) {
	cases := []struct {
		utc  time.Time
		want int64
	}{
		{time.Date(2030, 1, 10, 17, 0, 0, 0, time.UTC), 200}, // 22:30 local
		{time.Date(2030, 1, 10, 1, 0, 0, 0, time.UTC), 0},    // 06:30 local
		{time.Date(2030, 1, 10, 16, 0, 0, 0, time.UTC), 0},   // 21:30 local
	}
	for _, tc := range cases {
		draft := fullDraft(tc.utc)
		draft.VehicleSize = models.VehicleSizeHatchback
		if fare := FallbackFare(draft, ist); fare.NightCharge != tc.want {
			t.Fatalf("%s got night charge %d want %d", tc.utc, fare.NightCharge, tc.want)
		}
	}
}

func TestFareRequestUsesServiceZone(t *testing.T) {
	draft := fullDraft(time.Date(2030, 3, 7, 20, 0, 0, 0, time.UTC))

	req := BuildFareQuoteRequest(draft, 0, time.Now(), ist)
	if req.RequestDate != "08/03/2030" || req.PickupTime != "01:30" {
		t.Fatalf("date/time got %s %s want 08/03/2030 01:30", req.RequestDate, req.PickupTime)
	}
}
