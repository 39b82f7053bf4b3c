package handlers

import (
	"context"
	"net/http"
	"time"

	"gsj_gateway/internal/models"
	"gsj_gateway/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	subject        string
	parseErr       error
	lastParseToken string
}

func (m *mockAuth) GenerateToken(subject string) (string, error) {
	return "token-for-" + subject, nil
}

func (m *mockAuth) ParseToken(token string) (string, error) {
	m.lastParseToken = token
	return m.subject, m.parseErr
}

type setModeCall struct {
	circuit service.Circuit
	state   int
}

type setpointCall struct {
	circuit service.Circuit
	value   float64
}

type mockDevice struct {
	reading     models.Reading
	sensorsErr  error
	setErr      error
	sensorCalls int
	modes       []setModeCall
	setpoints   []setpointCall
}

func (m *mockDevice) Sensors(ctx context.Context) (models.Reading, error) {
	m.sensorCalls++
	return m.reading, m.sensorsErr
}

func (m *mockDevice) SetMode(ctx context.Context, c service.Circuit, state int) error {
	m.modes = append(m.modes, setModeCall{c, state})
	return m.setErr
}

func (m *mockDevice) SetSetpoint(ctx context.Context, c service.Circuit, value float64) error {
	m.setpoints = append(m.setpoints, setpointCall{c, value})
	return m.setErr
}

type mockSession struct {
	status     service.SessionStatus
	relogin    models.Session
	reloginErr error
}

func (m *mockSession) Status() service.SessionStatus { return m.status }

func (m *mockSession) Relogin(ctx context.Context) (models.Session, error) {
	return m.relogin, m.reloginErr
}

type mockLogin struct {
	sess      models.Session
	err       error
	lastCreds models.Credentials
}

func (m *mockLogin) Login(ctx context.Context, creds models.Credentials) (models.Session, error) {
	m.lastCreds = creds
	return m.sess, m.err
}

type mockEventLog struct {
	resp  []models.Event
	err   error
	calls int
	last  service.LogFilter
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.Event, error) {
	m.calls++
	m.last = f
	return m.resp, m.err
}

func (m *mockEventLog) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	return 0, nil
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service, opts ...Option) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, nil, opts...)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
