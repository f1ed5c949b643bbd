package wizard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"driverhire/internal/models"
	"driverhire/internal/services"
	"driverhire/pkg/logger"
)

var ErrFlowNotFound = errors.New("booking flow not found")

// Flow is the surface shared by the wizard and the daily form.
type Flow interface {
	Update(patch *Patch) (State, error)
	SendOTP(ctx context.Context, phone string) (*services.OTPSendResult, error)
	VerifyOTP(ctx context.Context, code string) (State, error)
	Authenticate(session *models.Session)
	Submit(ctx context.Context) (*services.SubmitResult, State, error)
	Cancel() State
	State() State
	// SignOut drops the held session if it is sessionID.
	SignOut(sessionID string) bool
	LastActive() time.Time
	Close()
}

// DepsFactory builds the collaborators for a new flow. Estimator and
// Sessions must be fresh instances.
type DepsFactory func(flowID string) Deps

// Registry keeps the live flows of all customers, keyed by flow ID.
type Registry struct {
	mu      sync.RWMutex
	flows   map[string]Flow
	factory DepsFactory
	idleTTL time.Duration
	clock   services.Clock
	logger  *logger.Logger
	done    chan struct{}
	once    sync.Once
}

func NewRegistry(factory DepsFactory, idleTTL time.Duration, clock services.Clock, log *logger.Logger) *Registry {
	if clock == nil {
		clock = services.SystemClock()
	}
	return &Registry{
		flows:   make(map[string]Flow),
		factory: factory,
		idleTTL: idleTTL,
		clock:   clock,
		logger:  log,
		done:    make(chan struct{}),
	}
}

// CreateWizard starts a full wizard, or a daily flow when tripType is daily.
func (r *Registry) CreateWizard(tripType models.TripType, session *models.Session) (Flow, string, error) {
	id := uuid.New().String()
	deps := r.factory(id)

	var flow Flow
	if tripType == models.TripTypeDaily {
		flow = NewDaily(id, deps)
	} else {
		w, err := New(id, tripType, deps)
		if err != nil {
			return nil, "", err
		}
		flow = w
	}
	flow.Authenticate(session)

	r.mu.Lock()
	r.flows[id] = flow
	r.mu.Unlock()

	r.logger.WithFields(map[string]interface{}{
		"flow_id":   id,
		"trip_type": tripType,
	}).Info("Booking flow created")
	return flow, id, nil
}

func (r *Registry) Get(id string) (Flow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	flow, ok := r.flows[id]
	if !ok {
		return nil, ErrFlowNotFound
	}
	return flow, nil
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	flow, ok := r.flows[id]
	delete(r.flows, id)
	r.mu.Unlock()
	if ok {
		flow.Close()
	}
}

// RevokeSession signs every live flow out of sessionID and returns how
// many flows held it.
func (r *Registry) RevokeSession(sessionID string) int {
	r.mu.RLock()
	flows := make([]Flow, 0, len(r.flows))
	for _, flow := range r.flows {
		flows = append(flows, flow)
	}
	r.mu.RUnlock()

	signedOut := 0
	for _, flow := range flows {
		if flow.SignOut(sessionID) {
			signedOut++
		}
	}
	if signedOut > 0 {
		r.logger.WithField("flows", signedOut).Info("Revoked session removed from booking flows")
	}
	return signedOut
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.flows)
}

// Sweep closes flows idle for longer than the configured TTL and
// returns how many were removed.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.clock.Now().Add(-r.idleTTL)

	r.mu.Lock()
	var stale []Flow
	for id, flow := range r.flows {
		if flow.LastActive().Before(cutoff) {
			stale = append(stale, flow)
			delete(r.flows, id)
		}
	}
	r.mu.Unlock()

	for _, flow := range stale {
		flow.Close()
	}
	if len(stale) > 0 {
		r.logger.Debugf("Swept %d idle booking flows", len(stale))
	}
	return len(stale)
}

// StartJanitor sweeps idle flows every interval until Stop is called.
func (r *Registry) StartJanitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Sweep()
			case <-r.done:
				return
			}
		}
	}()
}

// Stop ends the janitor and closes every live flow.
func (r *Registry) Stop() {
	r.once.Do(func() { close(r.done) })

	r.mu.Lock()
	flows := r.flows
	r.flows = make(map[string]Flow)
	r.mu.Unlock()

	for _, flow := range flows {
		flow.Close()
	}
}
