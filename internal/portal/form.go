package portal

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"gsj_gateway/internal/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// FormAuthenticator logs in without a browser: it fetches the login page, copies
// the form's hidden fields (the CSRF _token) and posts the credentials.
type FormAuthenticator struct {
	opts LoginOptions
	now  func() time.Time
}

func NewFormAuthenticator(opts LoginOptions) *FormAuthenticator {
	return &FormAuthenticator{opts: opts, now: time.Now}
}

// loginForm is the parsed login form.
type loginForm struct {
	action string
	fields map[string]string
	user   string
	pass   string
}

func (a *FormAuthenticator) Login(ctx context.Context, creds models.Credentials) (models.Session, error) {
	if err := creds.Validate(); err != nil {
		return models.Session{}, err
	}
	loginURL, err := a.opts.loginURL()
	if err != nil {
		return models.Session{}, err
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return models.Session{}, fmt.Errorf("cookie jar: %w", err)
	}
	client := resty.New().
		SetCookieJar(jar).
		SetHeader("User-Agent", a.opts.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml")
	if a.opts.Timeout > 0 {
		client.SetTimeout(a.opts.Timeout)
	}

	resp, err := client.R().SetContext(ctx).Get(loginURL)
	if err != nil {
		return models.Session{}, fmt.Errorf("fetch login page: %w", err)
	}
	if !resp.IsSuccess() {
		return models.Session{}, &UpstreamError{Op: "login page", Status: resp.StatusCode()}
	}

	form, err := a.parseForm(resp.Body(), loginURL)
	if err != nil {
		return models.Session{}, err
	}

	data := make(map[string]string, len(form.fields)+2)
	for k, v := range form.fields {
		data[k] = v
	}
	data[form.user] = creds.Username
	data[form.pass] = creds.Password

	resp, err = client.R().
		SetContext(ctx).
		SetHeader("Referer", loginURL).
		SetFormData(data).
		Post(form.action)
	if err != nil {
		return models.Session{}, fmt.Errorf("submit login form: %w", err)
	}
	if resp.StatusCode() >= http.StatusInternalServerError {
		return models.Session{}, &UpstreamError{Op: "login submit", Status: resp.StatusCode()}
	}

	base, _ := url.Parse(loginURL)
	cookies := make(map[string]string)
	for _, c := range jar.Cookies(base) {
		cookies[c.Name] = c.Value
	}

	// Laravel hands out a session cookie to guests too; bouncing back to the
	// login page is the reliable rejection signal.
	if redirectedToLogin(resp.RawResponse, base.Path) {
		obs := models.Session{Cookies: cookies}
		return models.Session{}, &AuthError{
			Reason:  "credentials rejected",
			Cookies: obs.Filter(a.opts.SessionCookie, a.opts.CSRFCookie),
		}
	}
	return sessionFromCookies(cookies, a.opts, a.now())
}

// parseForm finds the form holding the username field and resolves its action.
func (a *FormAuthenticator) parseForm(body []byte, pageURL string) (*loginForm, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse login page: %w", err)
	}

	userInput := doc.Find(a.opts.UsernameSelector).First()
	passInput := doc.Find(a.opts.PasswordSelector).First()
	if userInput.Length() == 0 || passInput.Length() == 0 {
		return nil, &AuthError{Reason: "login form fields not found on " + pageURL}
	}
	userName, _ := userInput.Attr("name")
	passName, _ := passInput.Attr("name")
	if userName == "" || passName == "" {
		return nil, &AuthError{Reason: "login form fields have no name attribute"}
	}

	form := userInput.Closest("form")
	if form.Length() == 0 {
		return nil, &AuthError{Reason: "username field is not inside a form"}
	}

	fields := make(map[string]string)
	form.Find(`input[type="hidden"]`).Each(func(_ int, s *goquery.Selection) {
		if name, ok := s.Attr("name"); ok && name != "" {
			fields[name] = s.AttrOr("value", "")
		}
	})

	action, err := resolveAction(pageURL, strings.TrimSpace(form.AttrOr("action", "")))
	if err != nil {
		return nil, err
	}
	return &loginForm{action: action, fields: fields, user: userName, pass: passName}, nil
}

func resolveAction(pageURL, action string) (string, error) {
	page, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse page url: %w", err)
	}
	if action == "" {
		return page.String(), nil
	}
	ref, err := url.Parse(action)
	if err != nil {
		return "", fmt.Errorf("parse form action %q: %w", action, err)
	}
	return page.ResolveReference(ref).String(), nil
}

// redirectedToLogin reports whether the submit was redirected back to the login page.
func redirectedToLogin(resp *http.Response, loginPath string) bool {
	if resp == nil || resp.Request == nil || resp.Request.URL == nil {
		return false
	}
	return resp.Request.Method == http.MethodGet && resp.Request.URL.Path == loginPath
}
