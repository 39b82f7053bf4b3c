package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gsj_gateway/internal/logger"
	"gsj_gateway/internal/models"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const loginKey = "login"

// ErrLoginThrottled is returned when a login would start before the minimum
// interval since the previous attempt has passed.
var ErrLoginThrottled = errors.New("portal login throttled")

// Authenticator performs the actual portal login.
type Authenticator interface {
	Login(ctx context.Context, creds models.Credentials) (models.Session, error)
}

// Persister keeps the session across restarts.
type Persister interface {
	Save(ctx context.Context, s models.Session) error
	Load(ctx context.Context) (models.Session, error)
	Clear(ctx context.Context) error
}

// Observer is told about every login attempt and invalidation.
type Observer interface {
	LoginSucceeded(ctx context.Context, s models.Session, took time.Duration)
	LoginFailed(ctx context.Context, err error, took time.Duration)
	Invalidated(ctx context.Context, stale models.Session)
}

type Options struct {
	LoginTimeout     time.Duration
	MinLoginInterval time.Duration
	Persister        Persister
	Observer         Observer
	Logger           *logger.Logger
}

// Store caches the portal session and serializes logins.
type Store struct {
	auth    Authenticator
	creds   models.Credentials
	opts    Options
	log     *logger.Logger
	limiter *rate.Limiter
	group   singleflight.Group

	mu   sync.RWMutex
	sess models.Session
}

func NewStore(auth Authenticator, creds models.Credentials, opts Options) *Store {
	limit := rate.Inf
	if opts.MinLoginInterval > 0 {
		limit = rate.Every(opts.MinLoginInterval)
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		auth:    auth,
		creds:   creds,
		opts:    opts,
		log:     log,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Current returns the cached session, zero when none.
func (s *Store) Current() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess
}

// Restore loads a persisted session into the cache. It reports whether one was found.
func (s *Store) Restore(ctx context.Context) (bool, error) {
	if s.opts.Persister == nil {
		return false, nil
	}
	sess, err := s.opts.Persister.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("restore session: %w", err)
	}
	if sess.IsZero() {
		return false, nil
	}
	s.mu.Lock()
	s.sess = sess
	s.mu.Unlock()
	s.log.Infow("session_restored", "obtained_at", sess.ObtainedAt)
	return true, nil
}

// Ensure returns the cached session or logs in. Concurrent callers share one login.
func (s *Store) Ensure(ctx context.Context) (models.Session, error) {
	if sess := s.Current(); !sess.IsZero() {
		return sess, nil
	}
	return s.login(ctx, false)
}

// Relogin forces a fresh login. The cached session is kept if it fails.
func (s *Store) Relogin(ctx context.Context) (models.Session, error) {
	return s.login(ctx, true)
}

// Invalidate clears the cache if it still holds stale. It reports whether it did.
func (s *Store) Invalidate(ctx context.Context, stale models.Session) bool {
	s.mu.Lock()
	if s.sess.IsZero() || !s.sess.Equal(stale) {
		s.mu.Unlock()
		return false
	}
	s.sess = models.Session{}
	s.mu.Unlock()

	if s.opts.Persister != nil {
		if err := s.opts.Persister.Clear(ctx); err != nil {
			s.log.Warnw("session_clear_failed", "error", err)
		}
	}
	s.opts.Observer.Invalidated(ctx, stale)
	s.log.Infow("session_invalidated", "obtained_at", stale.ObtainedAt)
	return true
}

func (s *Store) login(ctx context.Context, force bool) (models.Session, error) {
	// The login outlives any single caller; it is bounded by LoginTimeout only.
	detached := context.WithoutCancel(ctx)

	ch := s.group.DoChan(loginKey, func() (any, error) {
		if !force {
			if cur := s.Current(); !cur.IsZero() {
				return cur, nil
			}
		}

		lctx, cancel := s.loginContext(detached)
		defer cancel()

		if err := s.limiter.Wait(lctx); err != nil {
			err = fmt.Errorf("%w: %v", ErrLoginThrottled, err)
			s.opts.Observer.LoginFailed(detached, err, 0)
			return nil, err
		}

		start := time.Now()
		sess, err := s.auth.Login(lctx, s.creds)
		took := time.Since(start)
		if err != nil {
			s.log.Errorw("portal_login_failed", "error", err, "took", took)
			s.opts.Observer.LoginFailed(detached, err, took)
			return nil, err
		}

		s.mu.Lock()
		s.sess = sess
		s.mu.Unlock()

		if s.opts.Persister != nil {
			if err := s.opts.Persister.Save(detached, sess); err != nil {
				s.log.Warnw("session_persist_failed", "error", err)
			}
		}
		s.log.Infow("portal_login_ok", "took", took, "cookies", len(sess.Cookies))
		s.opts.Observer.LoginSucceeded(detached, sess, took)
		return sess, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return models.Session{}, res.Err
		}
		return res.Val.(models.Session), nil
	case <-ctx.Done():
		return models.Session{}, ctx.Err()
	}
}

func (s *Store) loginContext(parent context.Context) (context.Context, context.CancelFunc) {
	if s.opts.LoginTimeout > 0 {
		return context.WithTimeout(parent, s.opts.LoginTimeout)
	}
	return context.WithCancel(parent)
}

type nopObserver struct{}

func (nopObserver) LoginSucceeded(context.Context, models.Session, time.Duration) {}
func (nopObserver) LoginFailed(context.Context, error, time.Duration)             {}
func (nopObserver) Invalidated(context.Context, models.Session)                   {}
