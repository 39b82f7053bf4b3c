package session

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gsj_gateway/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	failOn  map[int32]error
}

func (f *fakeAuth) Login(ctx context.Context, _ models.Credentials) (models.Session, error) {
	n := f.calls.Add(1)
	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return models.Session{}, ctx.Err()
		}
	}
	if err := f.failOn[n]; err != nil {
		return models.Session{}, err
	}
	return models.Session{
		Cookies:    map[string]string{"gsj_session": "s" + strconv.Itoa(int(n))},
		ObtainedAt: time.Now().UTC(),
	}, nil
}

type fakePersister struct {
	mu      sync.Mutex
	stored  models.Session
	saves   int
	clears  int
	loadErr error
}

func (p *fakePersister) Save(_ context.Context, s models.Session) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stored = s
	p.saves++
	return nil
}

func (p *fakePersister) Load(context.Context) (models.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stored, p.loadErr
}

func (p *fakePersister) Clear(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stored = models.Session{}
	p.clears++
	return nil
}

type recordingObserver struct {
	mu          sync.Mutex
	ok, failed  int
	invalidated int
}

func (o *recordingObserver) LoginSucceeded(context.Context, models.Session, time.Duration) {
	o.mu.Lock()
	o.ok++
	o.mu.Unlock()
}

func (o *recordingObserver) LoginFailed(context.Context, error, time.Duration) {
	o.mu.Lock()
	o.failed++
	o.mu.Unlock()
}

func (o *recordingObserver) Invalidated(context.Context, models.Session) {
	o.mu.Lock()
	o.invalidated++
	o.mu.Unlock()
}

var creds = models.Credentials{Username: "jan", Password: "secret"}

func TestEnsure_Idempotent(t *testing.T) {
	auth := &fakeAuth{}
	obs := &recordingObserver{}
	s := NewStore(auth, creds, Options{LoginTimeout: time.Second, Observer: obs})

	first, err := s.Ensure(context.Background())
	require.NoError(t, err)
	second, err := s.Ensure(context.Background())
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
	assert.EqualValues(t, 1, auth.calls.Load())
	assert.Equal(t, 1, obs.ok)
}

func TestEnsure_ConcurrentColdStartLogsInOnce(t *testing.T) {
	auth := &fakeAuth{started: make(chan struct{}, 1), release: make(chan struct{})}
	s := NewStore(auth, creds, Options{LoginTimeout: 5 * time.Second})

	const callers = 16
	var wg sync.WaitGroup
	results := make([]models.Session, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.Ensure(context.Background())
		}(i)
	}

	<-auth.started
	close(auth.release)
	wg.Wait()

	assert.EqualValues(t, 1, auth.calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "s1", results[i].Cookie("gsj_session"))
	}
}

func TestEnsure_SharedFailure(t *testing.T) {
	boom := errors.New("portal down")
	auth := &fakeAuth{failOn: map[int32]error{1: boom}}
	obs := &recordingObserver{}
	s := NewStore(auth, creds, Options{Observer: obs})

	_, err := s.Ensure(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, s.Current().IsZero())
	assert.Equal(t, 1, obs.failed)

	sess, err := s.Ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s2", sess.Cookie("gsj_session"))
}

func TestEnsure_CallerCancelDoesNotAbortLogin(t *testing.T) {
	auth := &fakeAuth{started: make(chan struct{}, 1), release: make(chan struct{})}
	s := NewStore(auth, creds, Options{LoginTimeout: 5 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := s.Ensure(ctx)
		errc <- err
	}()

	<-auth.started
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)

	close(auth.release)
	assert.Eventually(t, func() bool { return !s.Current().IsZero() }, time.Second, 5*time.Millisecond)
}

func TestInvalidate_StaleKeepsNewer(t *testing.T) {
	auth := &fakeAuth{}
	obs := &recordingObserver{}
	s := NewStore(auth, creds, Options{Observer: obs})

	old, err := s.Ensure(context.Background())
	require.NoError(t, err)
	newer, err := s.Relogin(context.Background())
	require.NoError(t, err)
	require.False(t, old.Equal(newer))

	assert.False(t, s.Invalidate(context.Background(), old))
	assert.True(t, s.Current().Equal(newer))
	assert.Equal(t, 0, obs.invalidated)

	assert.True(t, s.Invalidate(context.Background(), newer))
	assert.True(t, s.Current().IsZero())
	assert.Equal(t, 1, obs.invalidated)
}

func TestRelogin_FailureKeepsOldSession(t *testing.T) {
	auth := &fakeAuth{failOn: map[int32]error{2: errors.New("rejected")}}
	s := NewStore(auth, creds, Options{})

	old, err := s.Ensure(context.Background())
	require.NoError(t, err)

	_, err = s.Relogin(context.Background())
	require.Error(t, err)
	assert.True(t, s.Current().Equal(old))
}

func TestLogin_Throttled(t *testing.T) {
	auth := &fakeAuth{}
	s := NewStore(auth, creds, Options{LoginTimeout: 50 * time.Millisecond, MinLoginInterval: time.Hour})

	sess, err := s.Ensure(context.Background())
	require.NoError(t, err)
	require.True(t, s.Invalidate(context.Background(), sess))

	_, err = s.Ensure(context.Background())
	assert.ErrorIs(t, err, ErrLoginThrottled)
	assert.EqualValues(t, 1, auth.calls.Load())
}

func TestPersistence(t *testing.T) {
	p := &fakePersister{stored: models.Session{Cookies: map[string]string{"gsj_session": "persisted"}}}
	auth := &fakeAuth{}
	s := NewStore(auth, creds, Options{Persister: p})

	found, err := s.Restore(context.Background())
	require.NoError(t, err)
	assert.True(t, found)

	sess, err := s.Ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "persisted", sess.Cookie("gsj_session"))
	assert.EqualValues(t, 0, auth.calls.Load())

	require.True(t, s.Invalidate(context.Background(), sess))
	assert.Equal(t, 1, p.clears)

	sess, err = s.Ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, p.saves)
	assert.True(t, p.stored.Equal(sess))
}

func TestRestore_Error(t *testing.T) {
	p := &fakePersister{loadErr: errors.New("disk")}
	s := NewStore(&fakeAuth{}, creds, Options{Persister: p})

	found, err := s.Restore(context.Background())
	assert.Error(t, err)
	assert.False(t, found)
}
