package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"gsj_gateway/internal/logger"
	"gsj_gateway/internal/metrics"
	"gsj_gateway/internal/models"
	"gsj_gateway/internal/portal"
	"gsj_gateway/internal/repository"

	"github.com/google/uuid"
)

// Circuit is a controllable heat pump circuit.
type Circuit string

const (
	CircuitHeating  Circuit = "co"  // central heating
	CircuitHotWater Circuit = "cwu" // domestic hot water
)

// ParseCircuit accepts "co" and "cwu".
func ParseCircuit(raw string) (Circuit, error) {
	switch c := Circuit(raw); c {
	case CircuitHeating, CircuitHotWater:
		return c, nil
	}
	return "", &ValidationError{Field: "circuit", Msg: fmt.Sprintf("%q must be co or cwu", raw)}
}

func (c Circuit) statusKey() string {
	if c == CircuitHotWater {
		return models.KeyHotWaterStatus
	}
	return models.KeyHeatingStatus
}

func (c Circuit) setpointKey() string {
	if c == CircuitHotWater {
		return models.KeyHotWaterSetpoint
	}
	return models.KeyHeatingSetpoint
}

const (
	opRead  = "read"
	opWrite = "write"
)

type DeviceService struct {
	store     SessionStore
	portal    PortalAPI
	eventRepo repository.EventRepo
	metrics   *metrics.Metrics
	log       *logger.Logger
}

func NewDeviceService(store SessionStore, api PortalAPI, eventRepo repository.EventRepo, m *metrics.Metrics, log *logger.Logger) *DeviceService {
	return &DeviceService{store: store, portal: api, eventRepo: eventRepo, metrics: m, log: log}
}

// Sensors reads the device parameters and normalizes them into a Reading.
func (s *DeviceService) Sensors(ctx context.Context) (models.Reading, error) {
	var params map[string]any
	err := s.withSession(ctx, opRead, func(sess models.Session) error {
		var err error
		params, err = s.portal.ReadParameters(ctx, sess)
		return err
	})
	if err != nil {
		return models.Reading{}, err
	}
	return normalizeReading(params), nil
}

// SetMode switches a circuit on (1) or off (0).
func (s *DeviceService) SetMode(ctx context.Context, c Circuit, state int) error {
	if state != 0 && state != 1 {
		return &ValidationError{Field: "state", Msg: fmt.Sprintf("%d must be 0 or 1", state)}
	}
	if _, err := ParseCircuit(string(c)); err != nil {
		return err
	}
	return s.write(ctx, c, models.Command{Key: c.statusKey(), Value: strconv.Itoa(state)})
}

// SetSetpoint sets a circuit's target temperature.
func (s *DeviceService) SetSetpoint(ctx context.Context, c Circuit, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return &ValidationError{Field: "value", Msg: "must be finite"}
	}
	if _, err := ParseCircuit(string(c)); err != nil {
		return err
	}
	return s.write(ctx, c, models.Command{Key: c.setpointKey(), Value: formatSetpoint(value)})
}

func (s *DeviceService) write(ctx context.Context, c Circuit, cmd models.Command) error {
	err := s.withSession(ctx, opWrite, func(sess models.Session) error {
		return s.portal.WriteParameter(ctx, sess, cmd)
	})
	if err != nil {
		return err
	}

	s.log.Infow("parameter_set", "key", cmd.Key, "value", cmd.Value)
	if err := s.eventRepo.Append(ctx, models.Event{
		EventID:     uuid.NewString(),
		OccurredAt:  time.Now().UTC(),
		Type:        models.EventSetParameter,
		Description: cmd.Key + " set to " + cmd.Value,
		Metadata: map[string]any{
			"circuit": string(c),
			"key":     cmd.Key,
			"value":   cmd.Value,
		},
	}); err != nil {
		// the portal already applied the write
		s.log.Warnw("event_append_failed", "type", models.EventSetParameter, "error", err)
	}
	return nil
}

// withSession runs call with the cached session. When the portal rejects the
// session, it is invalidated and call is retried once with a fresh login.
func (s *DeviceService) withSession(ctx context.Context, op string, call func(models.Session) error) error {
	sess, err := s.store.Ensure(ctx)
	if err != nil {
		return fmt.Errorf("ensure session: %w", err)
	}

	err = s.observe(op, func() error { return call(sess) })
	if !errors.Is(err, portal.ErrSessionExpired) {
		return err
	}

	s.log.Warnw("portal_session_rejected", "op", op, "error", err)
	s.store.Invalidate(ctx, sess)

	sess, err = s.store.Ensure(ctx)
	if err != nil {
		return fmt.Errorf("re-login after rejected session: %w", err)
	}
	return s.observe(op, func() error { return call(sess) })
}

func (s *DeviceService) observe(op string, call func() error) error {
	start := time.Now()
	err := call()
	outcome := metrics.OutcomeOK
	switch {
	case errors.Is(err, portal.ErrSessionExpired):
		outcome = metrics.OutcomeExpired
	case err != nil:
		outcome = metrics.OutcomeError
	}
	s.metrics.PortalCall(op, outcome, time.Since(start))
	return err
}
