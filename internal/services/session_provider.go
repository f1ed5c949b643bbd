package services

import (
	"sync"

	"driverhire/internal/models"
)

// SessionProvider holds the session for one customer and notifies
// observers whenever it changes. It is injected into the wizard.
type SessionProvider interface {
	Get() *models.Session
	Set(session *models.Session)
	Clear()
	// Subscribe registers fn and returns a function that removes it.
	Subscribe(fn func(*models.Session)) (unsubscribe func())
}

type sessionProvider struct {
	mu        sync.RWMutex
	session   *models.Session
	observers map[int]func(*models.Session)
	nextID    int
	clock     Clock
}

func NewSessionProvider(clock Clock) SessionProvider {
	if clock == nil {
		clock = SystemClock()
	}
	return &sessionProvider{
		observers: make(map[int]func(*models.Session)),
		clock:     clock,
	}
}

// Get returns nil once the held session has expired.
func (p *sessionProvider) Get() *models.Session {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.session == nil || p.session.IsExpired(p.clock.Now()) {
		return nil
	}
	s := *p.session
	return &s
}

func (p *sessionProvider) Set(session *models.Session) {
	var copied *models.Session
	if session != nil {
		s := *session
		copied = &s
	}

	p.mu.Lock()
	p.session = copied
	observers := p.snapshot()
	p.mu.Unlock()

	for _, fn := range observers {
		fn(copied)
	}
}

func (p *sessionProvider) Clear() {
	p.Set(nil)
}

func (p *sessionProvider) Subscribe(fn func(*models.Session)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.observers[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.observers, id)
		p.mu.Unlock()
	}
}

func (p *sessionProvider) snapshot() []func(*models.Session) {
	fns := make([]func(*models.Session), 0, len(p.observers))
	for _, fn := range p.observers {
		fns = append(fns, fn)
	}
	return fns
}
