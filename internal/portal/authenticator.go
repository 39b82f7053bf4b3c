package portal

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gsj_gateway/internal/config"
	"gsj_gateway/internal/logger"
	"gsj_gateway/internal/models"
)

// Authenticator turns credentials into a portal session.
type Authenticator interface {
	Login(ctx context.Context, creds models.Credentials) (models.Session, error)
}

// LoginOptions are shared by every login strategy.
type LoginOptions struct {
	BaseURL       string
	LoginPath     string
	SessionCookie string
	CSRFCookie    string
	UserAgent     string
	Timeout       time.Duration

	UsernameSelector string
	PasswordSelector string
	SubmitSelector   string
}

func (o LoginOptions) loginURL() (string, error) {
	base, err := url.Parse(strings.TrimRight(o.BaseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	ref, err := url.Parse(o.LoginPath)
	if err != nil {
		return "", fmt.Errorf("parse login path: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}

// NewLoginOptions extracts the strategy-independent login settings.
func NewLoginOptions(cfg config.PortalConfig) LoginOptions {
	return LoginOptions{
		BaseURL:          cfg.BaseURL,
		LoginPath:        cfg.LoginPath,
		SessionCookie:    cfg.SessionCookie,
		CSRFCookie:       cfg.CSRFCookie,
		UserAgent:        cfg.UserAgent,
		Timeout:          cfg.LoginTimeout,
		UsernameSelector: cfg.Browser.UsernameSelector,
		PasswordSelector: cfg.Browser.PasswordSelector,
		SubmitSelector:   cfg.Browser.SubmitSelector,
	}
}

// NewAuthenticator returns the login strategy selected in configuration.
func NewAuthenticator(cfg config.PortalConfig, log *logger.Logger) (Authenticator, error) {
	opts := NewLoginOptions(cfg)
	switch cfg.LoginStrategy {
	case config.StrategyBrowser:
		return NewBrowserAuthenticator(opts, cfg.Browser, log), nil
	case config.StrategyForm:
		return NewFormAuthenticator(opts), nil
	default:
		return nil, fmt.Errorf("unknown login strategy %q", cfg.LoginStrategy)
	}
}

// sessionFromCookies checks that the portal issued a session cookie.
func sessionFromCookies(cookies map[string]string, opts LoginOptions, now time.Time) (models.Session, error) {
	sess := models.Session{Cookies: cookies, ObtainedAt: now.UTC()}
	if sess.Cookie(opts.SessionCookie) == "" {
		return models.Session{}, &AuthError{
			Reason:  "no " + opts.SessionCookie + " cookie after submitting the login form",
			Cookies: sess.Filter(opts.SessionCookie, opts.CSRFCookie),
		}
	}
	return sess, nil
}
