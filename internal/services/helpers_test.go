package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"driverhire/internal/gateway"
	"driverhire/internal/models"
	"driverhire/internal/repositories/memory"
	"driverhire/pkg/logger"
	"driverhire/pkg/sms"
)

type testEnv struct {
	clock    *ManualClock
	otp      OTPService
	sessions SessionService
	sender   *fakeSender
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := NewManualClock(time.Now())
	log := logger.NewNop()
	sessions := NewSessionService(memory.NewSessionStore(), NewTokenIssuer("test-secret", "driverhire"), 24*time.Hour, clock, log)
	sender := &fakeSender{}
	otp := NewOTPService(memory.NewOTPStore(), memory.NewUserStore(), sessions, sender, OTPConfig{
		BookingLength: 4,
		SignupLength:  6,
		Expiry:        5 * time.Minute,
		MaxAttempts:   3,
		ExposeCode:    true,
	}, clock, log)
	return &testEnv{clock: clock, otp: otp, sessions: sessions, sender: sender}
}

type fakeSender struct {
	mu       sync.Mutex
	requests []*sms.SMSRequest
	err      error
}

func (f *fakeSender) SendSMS(ctx context.Context, request *sms.SMSRequest) (*sms.SMSResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, request)
	if f.err != nil {
		return nil, f.err
	}
	return &sms.SMSResponse{MessageID: "SM1", Status: "queued"}, nil
}

type fakeQuoter struct {
	mu       sync.Mutex
	requests []*gateway.FareQuoteRequest
	quote    *gateway.FareQuote
	err      error
	// when set, the first call waits for release before returning blocked
	started chan struct{}
	release chan struct{}
	blocked *gateway.FareQuote
}

func (f *fakeQuoter) GetFareAmount(ctx context.Context, request *gateway.FareQuoteRequest) (*gateway.FareQuote, error) {
	f.mu.Lock()
	f.requests = append(f.requests, request)
	first := len(f.requests) == 1
	f.mu.Unlock()

	if first && f.release != nil {
		close(f.started)
		<-f.release
		return f.blocked, nil
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.quote, nil
}

func (f *fakeQuoter) calls() []*gateway.FareQuoteRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*gateway.FareQuoteRequest(nil), f.requests...)
}

func wrongCode(code string) string {
	last := code[len(code)-1]
	return code[:len(code)-1] + string(rune('0'+(last-'0'+1)%10))
}

func ptrFloat(f float64) *float64 { return &f }

func fullDraft(scheduled time.Time) *models.BookingDraft {
	d := models.NewBookingDraft(models.TripTypeOneWay)
	d.PickupLocation = &models.Location{ID: "A", Name: "Andheri", City: "Mumbai"}
	d.DropLocation = &models.Location{ID: "B", Name: "Bandra", City: "Mumbai"}
	d.ScheduledTime = &scheduled
	d.VehicleSize = models.VehicleSizeSedan
	return d
}
