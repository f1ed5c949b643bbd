package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"driverhire/internal/gateway"
	"driverhire/internal/models"
	"driverhire/internal/repositories/memory"
	"driverhire/internal/utils"
	"driverhire/pkg/logger"
)

type fakeBookingAPI struct {
	payloads     []*gateway.BookingPayload
	confirmation *gateway.BookingConfirmation
	err          error
	history      *models.BookingHistory
	historyArgs  []int
}

func (f *fakeBookingAPI) InsertBooking(ctx context.Context, payload *gateway.BookingPayload) (*gateway.BookingConfirmation, error) {
	f.payloads = append(f.payloads, payload)
	if f.err != nil {
		return nil, f.err
	}
	return f.confirmation, nil
}

func (f *fakeBookingAPI) BookingHistory(ctx context.Context, mobile string, skip, total int) (*models.BookingHistory, error) {
	f.historyArgs = []int{skip, total}
	return f.history, f.err
}

func TestSubmitValidatesBeforeCallingAPI(t *testing.T) {
	api := &fakeBookingAPI{}
	submitter := NewBookingSubmitter(api, nil, nil, nil, logger.NewNop())

	draft := models.NewBookingDraft(models.TripTypeOneWay)
	_, err := submitter.Submit(context.Background(), draft, &models.FareBreakdown{}, nil)

	var verrs models.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("got %v want ValidationErrors", err)
	}
	for _, field := range []string{models.FieldPhone, models.FieldVehicleSize, models.FieldFare} {
		if _, ok := verrs[field]; !ok {
			t.Fatalf("missing %s error in %v", field, verrs)
		}
	}
	if len(api.payloads) != 0 {
		t.Fatalf("api called despite validation failure")
	}
}

func TestSubmitFallsBackToSessionPhone(t *testing.T) {
	api := &fakeBookingAPI{confirmation: &gateway.BookingConfirmation{Reference: "DH42", PaymentType: "Cash"}}
	store := memory.NewBookingStore()
	submitter := NewBookingSubmitter(api, store, nil, nil, logger.NewNop())

	scheduled := time.Date(2030, 5, 1, 8, 15, 0, 0, time.UTC)
	draft := fullDraft(scheduled)
	lat, lng := 19.1197, 72.8468
	draft.PickupLocation.Lat, draft.PickupLocation.Lng = &lat, &lng
	session := &models.Session{UserID: "u1", MobileNumber: testMobile}

	result, err := submitter.Submit(context.Background(), draft, &models.FareBreakdown{Total: 449}, session)
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if !result.Success || result.BookingReference != "DH42" || result.PaymentMode != "Cash" {
		t.Fatalf("result got %+v", result)
	}

	p := api.payloads[0]
	if p.MobileNumber != testMobile || p.Price != 449 || p.PickupTime != "2030-05-01 08:15:00" {
		t.Fatalf("payload got %+v", p)
	}
	if p.PickupLatLong != "19.119700, 72.846800" || p.ReqType != "local" {
		t.Fatalf("payload location fields got %+v", p)
	}

	record, err := store.GetByReference(context.Background(), "DH42")
	if err != nil {
		t.Fatalf("booking not mirrored: %v", err)
	}
	if record.Status != models.BookingStatusPending || record.UserID != "u1" {
		t.Fatalf("record got %+v", record)
	}
}

func TestSubmitRemoteRejectionKeepsMessage(t *testing.T) {
	api := &fakeBookingAPI{err: &gateway.RemoteRejection{Operation: gateway.OpInsertBooking, Message: "No drivers available"}}
	submitter := NewBookingSubmitter(api, nil, nil, nil, logger.NewNop())

	draft := fullDraft(time.Now().Add(time.Hour))
	draft.PhoneNumber = testMobile
	result, err := submitter.Submit(context.Background(), draft, &models.FareBreakdown{Total: 399}, nil)
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if result.Success || result.Message != "No drivers available" {
		t.Fatalf("result got %+v", result)
	}
}

func TestSubmitNetworkErrorUsesGenericMessage(t *testing.T) {
	api := &fakeBookingAPI{err: errors.New("dial tcp 10.0.0.1:443: i/o timeout")}
	submitter := NewBookingSubmitter(api, nil, nil, nil, logger.NewNop())

	draft := fullDraft(time.Now().Add(time.Hour))
	draft.PhoneNumber = testMobile
	result, _ := submitter.Submit(context.Background(), draft, &models.FareBreakdown{Total: 399}, nil)
	if result.Success || result.Message != utils.ErrBookingFailed {
		t.Fatalf("result got %+v", result)
	}
	if len(api.payloads) != 1 {
		t.Fatalf("submission retried: %d calls", len(api.payloads))
	}
}

func TestBookingStatusTransitions(t *testing.T) {
	ctx := context.Background()
	store := memory.NewBookingStore()
	store.Create(ctx, &models.BookingRecord{Reference: "DH1", Status: models.BookingStatusPending, UserID: "owner"})
	svc := NewBookingService(&fakeBookingAPI{}, store, nil, logger.NewNop())
	owner := &models.Session{ID: "s1", UserID: "owner", MobileNumber: testMobile}

	for _, next := range []models.BookingStatus{models.BookingStatusConfirmed, models.BookingStatusInProgress, models.BookingStatusCompleted} {
		if _, err := svc.UpdateStatus(ctx, owner, "DH1", next); err != nil {
			t.Fatalf("advance to %s: %v", next, err)
		}
	}
	if _, err := svc.UpdateStatus(ctx, owner, "DH1", models.BookingStatusPending); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("completed to pending got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, owner, "DH1", models.BookingStatusCancelled); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("completed to cancelled got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, owner, "missing", models.BookingStatusCancelled); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("missing booking got %v", err)
	}
}

func TestBookingOwnership(t *testing.T) {
	ctx := context.Background()
	store := memory.NewBookingStore()
	store.Create(ctx, &models.BookingRecord{Reference: "DH1", Status: models.BookingStatusPending, UserID: "owner", MobileNumber: testMobile})
	store.Create(ctx, &models.BookingRecord{Reference: "DH2", Status: models.BookingStatusPending, MobileNumber: testMobile})
	svc := NewBookingService(&fakeBookingAPI{}, store, nil, logger.NewNop())

	stranger := &models.Session{ID: "s2", UserID: "stranger", MobileNumber: "9123456780"}
	if _, err := svc.Get(ctx, stranger, "DH1"); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("stranger get got %v want ErrBookingNotFound", err)
	}
	if _, err := svc.UpdateStatus(ctx, stranger, "DH1", models.BookingStatusCancelled); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("stranger update got %v want ErrBookingNotFound", err)
	}
	if _, err := svc.Get(ctx, nil, "DH1"); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("anonymous get got %v want ErrBookingNotFound", err)
	}

	// Same number, different account: the user id on the record wins.
	sameMobile := &models.Session{ID: "s3", UserID: "other", MobileNumber: testMobile}
	if _, err := svc.Get(ctx, sameMobile, "DH1"); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("same mobile other user got %v", err)
	}
	if record, err := svc.Get(ctx, sameMobile, "DH2"); err != nil || record.Reference != "DH2" {
		t.Fatalf("record without user id got %v, %v", record, err)
	}

	record, err := svc.Get(ctx, &models.Session{ID: "s1", UserID: "owner", MobileNumber: testMobile}, "DH1")
	if err != nil || record.Status != models.BookingStatusPending {
		t.Fatalf("owner get got %v, %v", record, err)
	}
}

func TestBookingHistoryPaging(t *testing.T) {
	api := &fakeBookingAPI{history: &models.BookingHistory{}}
	svc := NewBookingService(api, memory.NewBookingStore(), nil, logger.NewNop())

	if _, err := svc.History(context.Background(), testMobile, &utils.PaginationParams{Page: 3, PageSize: 10}); err != nil {
		t.Fatalf("History error: %v", err)
	}
	if api.historyArgs[0] != 20 || api.historyArgs[1] != 10 {
		t.Fatalf("skip/total got %v want [20 10]", api.historyArgs)
	}
}

func TestBookingPayloadUsesServiceZone(t *testing.T) {
	draft := fullDraft(time.Date(2030, 3, 7, 20, 0, 0, 0, time.UTC))
	draft.TripType = models.TripTypeRoundTrip
	ret := time.Date(2030, 3, 8, 4, 0, 0, 0, time.UTC)
	draft.ReturnTime = &ret

	payload := BuildBookingPayload(draft, &models.FareBreakdown{Total: 449}, testMobile, time.Now(), time.FixedZone("IST", 5*3600+1800))
	if payload.PickupTime != "2030-03-08 01:30:00" {
		t.Fatalf("pickup time got %s", payload.PickupTime)
	}
	if payload.ReturnTime != "2030-03-08 09:30:00" {
		t.Fatalf("return time got %s", payload.ReturnTime)
	}
}
