package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"driverhire/internal/config"
	"driverhire/internal/gateway"
	"driverhire/internal/middleware"
	"driverhire/internal/models"
	"driverhire/internal/repositories/interfaces"
	"driverhire/internal/repositories/memory"
	"driverhire/internal/services"
	"driverhire/internal/wizard"
	"driverhire/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func newProxyRouter(baseURL string) *gin.Engine {
	fwd := gateway.NewForwarder(&config.BookingConfig{
		BaseURL:   baseURL,
		BasePath:  "api/V1/booking",
		AuthToken: "secret-token",
		Timeout:   2 * time.Second,
	}, logger.NewNop())
	router := gin.New()
	router.Any("/api/booking/*path", NewProxyHandler(fwd, logger.NewNop()).Forward)
	return router
}

func TestProxyRelaysStatusHeadersAndBody(t *testing.T) {
	var gotPath, gotAuth, gotBody string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("X-Upstream", "yes")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"success":true}`))
	}))
	defer upstream.Close()

	router := newProxyRouter(upstream.URL)
	raw := `{"mobileno":"9876543210" , "x":1}`
	req := httptest.NewRequest(http.MethodPost, "/api/booking/booking/sendOTP", strings.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "client-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if gotPath != "/api/V1/booking/sendOTP" {
		t.Fatalf("upstream path = %q", gotPath)
	}
	if gotAuth != "secret-token" {
		t.Fatalf("upstream auth = %q, want server credential", gotAuth)
	}
	if gotBody != raw {
		t.Fatalf("body = %q, want bytes preserved", gotBody)
	}
	if rec.Header().Get("X-Upstream") != "yes" {
		t.Fatal("upstream header not relayed")
	}
	if rec.Body.String() != `{"success":true}` {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestProxyUnavailableIsStructured502(t *testing.T) {
	router := newProxyRouter("http://127.0.0.1:1")
	rec, env := doJSON(t, router, http.MethodGet, "/api/booking/GetFareAmount", "", nil)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "UPSTREAM_FAILED" {
		t.Fatalf("error = %+v", env.Error)
	}
	if strings.Contains(rec.Body.String(), "secret-token") {
		t.Fatal("credential leaked in error response")
	}
}

type fakeBookingAPI struct {
	history *models.BookingHistory
}

func (f *fakeBookingAPI) InsertBooking(ctx context.Context, payload *gateway.BookingPayload) (*gateway.BookingConfirmation, error) {
	return &gateway.BookingConfirmation{BookingNo: "DH1", PaymentType: "Cash"}, nil
}

func (f *fakeBookingAPI) BookingHistory(ctx context.Context, mobile string, skip, total int) (*models.BookingHistory, error) {
	return f.history, nil
}

type authFixture struct {
	router   *gin.Engine
	bookings interfaces.BookingStore
	registry *wizard.Registry
}

func newAuthFixture() *authFixture {
	log := logger.NewNop()
	clock := services.SystemClock()
	users := memory.NewUserStore()
	sessions := services.NewSessionService(memory.NewSessionStore(), services.NewTokenIssuer("test-secret", "driverhire"), time.Hour, clock, log)
	otp := services.NewOTPService(memory.NewOTPStore(), users, sessions, nil, services.OTPConfig{
		BookingLength: 4,
		SignupLength:  6,
		Expiry:        5 * time.Minute,
		MaxAttempts:   3,
		ExposeCode:    true,
	}, clock, log)
	auth := services.NewAuthService(users, otp, sessions, 8, clock, log)
	store := memory.NewBookingStore()
	bookings := services.NewBookingService(&fakeBookingAPI{history: &models.BookingHistory{
		Upcoming: []models.BookingSummary{{Reference: "DH1"}},
	}}, store, clock, log)
	registry := wizard.NewRegistry(func(id string) wizard.Deps {
		return wizard.Deps{
			Estimator: services.NewFareEstimator(nil, nil, services.FareEstimatorConfig{Debounce: time.Hour}, clock, log),
			Sessions:  services.NewSessionProvider(clock),
			Clock:     clock,
			Logger:    log,
		}
	}, time.Hour, clock, log)

	router := gin.New()
	v1 := router.Group("/api/v1")
	authHandler := NewAuthHandler(otp, auth, registry, log)
	bookingHandler := NewBookingHandler(bookings, log)
	v1.POST("/auth/otp/send", authHandler.SendOTP)
	v1.POST("/auth/otp/verify", authHandler.VerifyOTP)
	v1.POST("/auth/logout", middleware.AuthRequired(sessions), authHandler.Logout)
	v1.GET("/bookings/history", middleware.AuthRequired(sessions), bookingHandler.History)
	v1.GET("/bookings/:ref", middleware.AuthRequired(sessions), bookingHandler.Get)
	v1.PATCH("/bookings/:ref/status", middleware.AuthRequired(sessions), bookingHandler.UpdateStatus)
	return &authFixture{router: router, bookings: store, registry: registry}
}

func newAuthRouter() *gin.Engine {
	return newAuthFixture().router
}

// login runs the OTP exchange for mobile and returns the issued session.
func login(t *testing.T, router http.Handler, mobile string) models.Session {
	t.Helper()
	rec, env := doJSON(t, router, http.MethodPost, "/api/v1/auth/otp/send", "", gin.H{"mobileno": mobile})
	if rec.Code != http.StatusOK {
		t.Fatalf("send status = %d: %s", rec.Code, rec.Body.String())
	}
	var sent services.OTPSendResult
	json.Unmarshal(env.Data, &sent)

	rec, env = doJSON(t, router, http.MethodPost, "/api/v1/auth/otp/verify", "", gin.H{"mobileno": mobile, "otp": sent.DevCode})
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status = %d: %s", rec.Code, rec.Body.String())
	}
	var verified struct {
		Session models.Session `json:"session"`
	}
	json.Unmarshal(env.Data, &verified)
	return verified.Session
}

func TestBookingOfAnotherCustomerIsHidden(t *testing.T) {
	fx := newAuthFixture()
	owner := login(t, fx.router, "9876543210")
	stranger := login(t, fx.router, "9123456780")
	fx.bookings.Create(context.Background(), &models.BookingRecord{
		Reference:    "DH1",
		Status:       models.BookingStatusPending,
		MobileNumber: "9876543210",
		UserID:       owner.UserID,
	})

	rec, _ := doJSON(t, fx.router, http.MethodGet, "/api/v1/bookings/DH1", stranger.IssuedToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("stranger get status = %d, want 404", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "9876543210") {
		t.Fatalf("owner mobile leaked: %s", rec.Body.String())
	}
	rec, _ = doJSON(t, fx.router, http.MethodPatch, "/api/v1/bookings/DH1/status", stranger.IssuedToken, gin.H{"status": "cancelled"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("stranger patch status = %d, want 404", rec.Code)
	}

	rec, _ = doJSON(t, fx.router, http.MethodGet, "/api/v1/bookings/DH1", owner.IssuedToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner get status = %d: %s", rec.Code, rec.Body.String())
	}
	record, _ := fx.bookings.GetByReference(context.Background(), "DH1")
	if record.Status != models.BookingStatusPending {
		t.Fatalf("status = %s, want pending", record.Status)
	}
}

func TestLogoutSignsOutLiveFlows(t *testing.T) {
	fx := newAuthFixture()
	session := login(t, fx.router, "9876543210")

	flow, _, err := fx.registry.CreateWizard(models.TripTypeOneWay, &session)
	if err != nil {
		t.Fatalf("CreateWizard: %v", err)
	}
	if state := flow.State(); !state.Authenticated || state.TotalSteps != 2 {
		t.Fatalf("before logout: authenticated=%v total=%d", state.Authenticated, state.TotalSteps)
	}

	rec, _ := doJSON(t, fx.router, http.MethodPost, "/api/v1/auth/logout", session.IssuedToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}
	if state := flow.State(); state.Authenticated || state.TotalSteps != 3 {
		t.Fatalf("after logout: authenticated=%v total=%d", state.Authenticated, state.TotalSteps)
	}
}

func TestOTPLoginHistoryAndLogout(t *testing.T) {
	router := newAuthRouter()

	rec, env := doJSON(t, router, http.MethodPost, "/api/v1/auth/otp/send", "", gin.H{"mobileno": "9876543210"})
	if rec.Code != http.StatusOK {
		t.Fatalf("send status = %d: %s", rec.Code, rec.Body.String())
	}
	var sent services.OTPSendResult
	json.Unmarshal(env.Data, &sent)
	if len(sent.DevCode) != 4 {
		t.Fatalf("dev code = %q, want 4 digits", sent.DevCode)
	}

	rec, env = doJSON(t, router, http.MethodPost, "/api/v1/auth/otp/verify", "", gin.H{"mobileno": "9876543210", "otp": sent.DevCode})
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status = %d: %s", rec.Code, rec.Body.String())
	}
	var verified struct {
		Session models.Session `json:"session"`
	}
	json.Unmarshal(env.Data, &verified)
	if verified.Session.MobileNumber != "9876543210" || verified.Session.IssuedToken == "" {
		t.Fatalf("session = %+v", verified.Session)
	}
	token := verified.Session.IssuedToken

	rec, _ = doJSON(t, router, http.MethodGet, "/api/v1/bookings/history", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d: %s", rec.Code, rec.Body.String())
	}

	rec, _ = doJSON(t, router, http.MethodPost, "/api/v1/auth/logout", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}

	rec, _ = doJSON(t, router, http.MethodGet, "/api/v1/bookings/history", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("history after logout status = %d, want 401", rec.Code)
	}
}

func TestVerifyWrongCodeIsFieldError(t *testing.T) {
	router := newAuthRouter()
	doJSON(t, router, http.MethodPost, "/api/v1/auth/otp/send", "", gin.H{"mobileno": "9876543210"})

	rec, env := doJSON(t, router, http.MethodPost, "/api/v1/auth/otp/verify", "", gin.H{"mobileno": "9876543210", "otp": "99999"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if env.Error == nil || env.Error.Details["otp"] == "" {
		t.Fatalf("error = %+v, want otp field message", env.Error)
	}
}

func TestSendOTPRejectsBadMobile(t *testing.T) {
	router := newAuthRouter()
	rec, env := doJSON(t, router, http.MethodPost, "/api/v1/auth/otp/send", "", gin.H{"mobileno": "12345"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env.Error == nil || env.Error.Details["mobileNumber"] == "" {
		t.Fatalf("error = %+v", env.Error)
	}
}

func TestHealthReportsDegradedCheck(t *testing.T) {
	router := gin.New()
	router.GET("/health", NewHealthHandler("1.0.0",
		HealthCheck{Name: "redis", Check: func(ctx context.Context) error { return context.DeadlineExceeded }},
	).Health)

	rec, _ := doJSON(t, router, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

type ctxSubmitter struct {
	err         error
	hasDeadline bool
}

func (s *ctxSubmitter) Submit(ctx context.Context, draft *models.BookingDraft, fare *models.FareBreakdown, session *models.Session) (*services.SubmitResult, error) {
	s.err = ctx.Err()
	_, s.hasDeadline = ctx.Deadline()
	return &services.SubmitResult{Success: true, BookingReference: "DH7"}, nil
}

func TestSubmitOutlivesClientDisconnect(t *testing.T) {
	log := logger.NewNop()
	clock := services.NewManualClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	submitter := &ctxSubmitter{}
	registry := wizard.NewRegistry(func(id string) wizard.Deps {
		return wizard.Deps{
			Estimator: services.NewFareEstimator(nil, nil, services.FareEstimatorConfig{Debounce: time.Second}, clock, log),
			Submitter: submitter,
			Sessions:  services.NewSessionProvider(clock),
			Clock:     clock,
			Logger:    log,
		}
	}, time.Hour, clock, log)

	session := &models.Session{ID: "s1", UserID: "u1", MobileNumber: "9876543210", Expiry: clock.Now().Add(time.Hour)}
	flow, id, err := registry.CreateWizard(models.TripTypeOneWay, session)
	if err != nil {
		t.Fatalf("CreateWizard: %v", err)
	}
	scheduled := clock.Now().Add(24 * time.Hour)
	sedan := "sedan"
	if _, err := flow.Update(&wizard.Patch{
		PickupLocation: &models.Location{ID: "A", Name: "Andheri", City: "Mumbai"},
		DropLocation:   &models.Location{ID: "B", Name: "Bandra", City: "Mumbai"},
		ScheduledTime:  &scheduled,
		VehicleSize:    &sedan,
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	clock.Advance(time.Second)
	if _, err := flow.(*wizard.Wizard).Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}

	router := gin.New()
	router.POST("/wizards/:id/submit", NewWizardHandler(registry, nil, time.Minute, log).Submit)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/wizards/"+id+"/submit", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if submitter.err != nil {
		t.Fatalf("submit context err = %v, want live context", submitter.err)
	}
	if !submitter.hasDeadline {
		t.Fatal("submit context has no deadline")
	}
}
