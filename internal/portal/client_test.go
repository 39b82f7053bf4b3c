package portal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"gsj_gateway/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(ClientOptions{
		BaseURL:    srv.URL,
		ReadPath:   "/api/parameters/{name}",
		WritePath:  "/api/devices/{id}/parameters",
		DeviceName: "pompa",
		DeviceID:   "42",
		CSRFCookie: "XSRF-TOKEN",
		UserAgent:  "test-agent",
		Timeout:    5 * time.Second,
	})
}

var testSession = models.Session{Cookies: map[string]string{
	"gsj_session": "abc",
	"XSRF-TOKEN":  "tok%3D%3D",
}}

func TestClient_ReadParameters(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/parameters/pompa", r.URL.Path)
		ck, err := r.Cookie("gsj_session")
		if assert.NoError(t, err) {
			assert.Equal(t, "abc", ck.Value)
		}
		assert.Equal(t, "tok==", r.Header.Get("X-XSRF-TOKEN"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"TEMP_CO":"45.5","CO_STATUS":1,"TEMP_CWU":48.25}`))
	})

	params, err := c.ReadParameters(context.Background(), testSession)
	require.NoError(t, err)
	assert.Equal(t, "45.5", params["TEMP_CO"])
	assert.Equal(t, json.Number("1"), params["CO_STATUS"])
	assert.Equal(t, json.Number("48.25"), params["TEMP_CWU"])
}

func TestClient_ReadParameters_NotJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	})

	_, err := c.ReadParameters(context.Background(), testSession)
	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr), "got %v", err)
	assert.False(t, errors.Is(err, ErrSessionExpired))
}

func TestClient_WriteParameter(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/devices/42/parameters", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, url.Values{"key": {"CO_STATUS"}, "value": {"1"}}, r.PostForm)
		assert.Equal(t, "tok==", r.Header.Get("X-XSRF-TOKEN"))
		w.WriteHeader(http.StatusNoContent)
	})

	err := c.WriteParameter(context.Background(), testSession, models.Command{Key: models.KeyHeatingStatus, Value: "1"})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestClient_Classification(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		expired bool
	}{
		{"unauthorized", http.StatusUnauthorized, true},
		{"forbidden", http.StatusForbidden, true},
		{"page expired", statusPageExpired, true},
		{"redirect to login", http.StatusFound, true},
		{"server error", http.StatusInternalServerError, false},
		{"not found", http.StatusNotFound, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if tc.status == http.StatusFound {
					http.Redirect(w, r, "/login", http.StatusFound)
					return
				}
				http.Error(w, "nope", tc.status)
			})

			_, err := c.ReadParameters(context.Background(), testSession)
			var upErr *UpstreamError
			require.True(t, errors.As(err, &upErr), "got %v", err)
			assert.Equal(t, tc.status, upErr.Status)
			assert.Equal(t, tc.expired, errors.Is(err, ErrSessionExpired))
		})
	}
}

func TestClient_NoCSRFCookie(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("X-XSRF-TOKEN"))
		w.WriteHeader(http.StatusOK)
	})
	sess := models.Session{Cookies: map[string]string{"gsj_session": "abc"}}
	require.NoError(t, c.WriteParameter(context.Background(), sess, models.Command{Key: models.KeyHeatingSetpoint, Value: "45"}))
}

func TestClient_TransportError(t *testing.T) {
	c := NewClient(ClientOptions{
		BaseURL:  "http://127.0.0.1:1",
		ReadPath: "/api/parameters/{name}",
		Timeout:  time.Second,
	})
	_, err := c.ReadParameters(context.Background(), testSession)
	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr), "got %v", err)
	assert.Zero(t, upErr.Status)
	assert.Error(t, upErr.Err)
	assert.False(t, errors.Is(err, ErrSessionExpired))
}
