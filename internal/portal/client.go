package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gsj_gateway/internal/config"
	"gsj_gateway/internal/models"

	"github.com/go-resty/resty/v2"
)

const maxErrorBody = 256

// Client calls the portal's internal JSON endpoints with a cached session.
// It never logs in by itself; expired sessions surface as ErrSessionExpired.
type Client struct {
	resty      *resty.Client
	readPath   string
	writePath  string
	deviceName string
	deviceID   string
	csrfCookie string
}

// ClientOptions configures Client.
type ClientOptions struct {
	BaseURL    string
	ReadPath   string
	WritePath  string
	DeviceName string
	DeviceID   string
	CSRFCookie string
	UserAgent  string
	Timeout    time.Duration
}

// NewClientOptions maps portal configuration onto ClientOptions.
func NewClientOptions(cfg config.PortalConfig) ClientOptions {
	return ClientOptions{
		BaseURL:    cfg.BaseURL,
		ReadPath:   cfg.ReadPath,
		WritePath:  cfg.WritePath,
		DeviceName: cfg.DeviceName,
		DeviceID:   cfg.DeviceID,
		CSRFCookie: cfg.CSRFCookie,
		UserAgent:  cfg.UserAgent,
		Timeout:    cfg.RequestTimeout,
	}
}

func NewClient(opts ClientOptions) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetHeader("X-Requested-With", "XMLHttpRequest").
		// cookies come from the session store only
		SetCookieJar(nil).
		// a redirect means the portal bounced us to its login page
		SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}))
	if opts.UserAgent != "" {
		rc.SetHeader("User-Agent", opts.UserAgent)
	}
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}
	return &Client{
		resty:      rc,
		readPath:   opts.ReadPath,
		writePath:  opts.WritePath,
		deviceName: opts.DeviceName,
		deviceID:   opts.DeviceID,
		csrfCookie: opts.CSRFCookie,
	}
}

func (c *Client) request(ctx context.Context, sess models.Session) *resty.Request {
	req := c.resty.R().SetContext(ctx)
	for name, value := range sess.Cookies {
		req.SetCookie(&http.Cookie{Name: name, Value: value})
	}
	if tok := sess.Cookie(c.csrfCookie); tok != "" {
		// Laravel stores the token URL-encoded in the cookie.
		if dec, err := url.QueryUnescape(tok); err == nil {
			tok = dec
		}
		req.SetHeader("X-XSRF-TOKEN", tok)
	}
	return req
}

// ReadParameters fetches the raw parameter object of the configured device.
func (c *Client) ReadParameters(ctx context.Context, sess models.Session) (map[string]any, error) {
	resp, err := c.request(ctx, sess).
		SetPathParam("name", c.deviceName).
		Get(c.readPath)
	if err != nil {
		return nil, &UpstreamError{Op: "read parameters", Err: err}
	}
	if err := classify("read parameters", resp); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(resp.Body()))
	dec.UseNumber()
	var params map[string]any
	if err := dec.Decode(&params); err != nil {
		return nil, &UpstreamError{
			Op:     "read parameters",
			Status: resp.StatusCode(),
			Body:   "response is not a JSON object: " + truncate(resp.String()),
		}
	}
	if params == nil {
		params = map[string]any{}
	}
	return params, nil
}

// WriteParameter sends one key/value mutation for the configured device.
func (c *Client) WriteParameter(ctx context.Context, sess models.Session, cmd models.Command) error {
	resp, err := c.request(ctx, sess).
		SetPathParam("id", c.deviceID).
		SetFormData(map[string]string{
			"key":   cmd.Key,
			"value": cmd.Value,
		}).
		Post(c.writePath)
	if err != nil {
		return &UpstreamError{Op: "write " + cmd.Key, Err: err}
	}
	return classify("write "+cmd.Key, resp)
}

// classify maps a portal response to nil, an expired-session error or an upstream error.
func classify(op string, resp *resty.Response) error {
	status := resp.StatusCode()
	switch {
	case status == http.StatusUnauthorized,
		status == http.StatusForbidden,
		status == statusPageExpired,
		status >= 300 && status < 400:
		return &UpstreamError{Op: op, Status: status, Expired: true}
	case !resp.IsSuccess():
		return &UpstreamError{Op: op, Status: status, Body: truncate(resp.String())}
	}
	return nil
}

// statusPageExpired is Laravel's CSRF/session mismatch status.
const statusPageExpired = 419

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
