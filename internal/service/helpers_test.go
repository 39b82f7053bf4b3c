package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"gsj_gateway/internal/logger"
	"gsj_gateway/internal/models"
	"gsj_gateway/internal/session"
)

// memEventRepo records appended events.
type memEventRepo struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *memEventRepo) Append(ctx context.Context, e models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *memEventRepo) List(ctx context.Context, from, to time.Time, typ string, limit int) ([]models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Event
	for _, e := range r.events {
		if typ == "" || e.Type == typ {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *memEventRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.events[:0]
	for _, e := range r.events {
		if !e.OccurredAt.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	n := int64(len(r.events) - len(kept))
	r.events = kept
	return n, nil
}

func (r *memEventRepo) ofType(typ string) []models.Event {
	out, _ := r.List(context.Background(), time.Time{}, time.Time{}, typ, 0)
	return out
}

// countingAuth hands out s1, s2, ... and can be told to fail.
type countingAuth struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (a *countingAuth) Login(ctx context.Context, creds models.Credentials) (models.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.err != nil {
		return models.Session{}, a.err
	}
	return models.Session{
		Cookies:    map[string]string{"gsj_session": "s" + strconv.Itoa(a.calls), "XSRF-TOKEN": "t"},
		ObtainedAt: time.Now().UTC(),
	}, nil
}

func (a *countingAuth) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// scriptedPortal answers reads and writes from queues of errors; an empty
// queue means success.
type scriptedPortal struct {
	mu        sync.Mutex
	params    map[string]any
	readErrs  []error
	writeErrs []error
	reads     []models.Session
	writes    []models.Command
}

func (p *scriptedPortal) ReadParameters(ctx context.Context, sess models.Session) (map[string]any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reads = append(p.reads, sess)
	if len(p.readErrs) > 0 {
		err := p.readErrs[0]
		p.readErrs = p.readErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return p.params, nil
}

func (p *scriptedPortal) WriteParameter(ctx context.Context, sess models.Session, cmd models.Command) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writes = append(p.writes, cmd)
	if len(p.writeErrs) > 0 {
		err := p.writeErrs[0]
		p.writeErrs = p.writeErrs[1:]
		return err
	}
	return nil
}

type deviceFixture struct {
	auth   *countingAuth
	store  *session.Store
	portal *scriptedPortal
	events *memEventRepo
	svc    *DeviceService
}

func newDeviceFixture() *deviceFixture {
	f := &deviceFixture{
		auth:   &countingAuth{},
		portal: &scriptedPortal{params: map[string]any{}},
		events: &memEventRepo{},
	}
	obs := NewSessionObserver(f.events, nil, logger.Nop())
	f.store = session.NewStore(f.auth, models.Credentials{Username: "u", Password: "p"}, session.Options{
		LoginTimeout: time.Second,
		Observer:     obs,
	})
	f.svc = NewDeviceService(f.store, f.portal, f.events, nil, logger.Nop())
	return f
}
