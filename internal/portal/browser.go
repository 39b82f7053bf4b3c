package portal

import (
	"context"
	"fmt"
	"time"

	"gsj_gateway/internal/config"
	"gsj_gateway/internal/logger"
	"gsj_gateway/internal/models"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const defaultIdleWait = 15 * time.Second

// BrowserAuthenticator logs in by driving a headless Chromium through the login form.
// Each Login launches and tears down its own browser process.
type BrowserAuthenticator struct {
	opts    LoginOptions
	browser config.BrowserConfig
	log     *logger.Logger
	now     func() time.Time
}

func NewBrowserAuthenticator(opts LoginOptions, browser config.BrowserConfig, log *logger.Logger) *BrowserAuthenticator {
	if log == nil {
		log = logger.Nop()
	}
	return &BrowserAuthenticator{opts: opts, browser: browser, log: log.Named("browser"), now: time.Now}
}

func (a *BrowserAuthenticator) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", a.browser.Headless),
	)
	if a.opts.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(a.opts.UserAgent))
	}
	if a.browser.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if a.browser.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(a.browser.ExecPath))
	}
	return opts
}

// Login navigates to the login page, fills the form, submits it and collects
// the cookies the portal set.
func (a *BrowserAuthenticator) Login(ctx context.Context, creds models.Credentials) (models.Session, error) {
	if err := creds.Validate(); err != nil {
		return models.Session{}, err
	}
	loginURL, err := a.opts.loginURL()
	if err != nil {
		return models.Session{}, err
	}

	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, a.allocatorOptions()...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	idleWait := a.browser.IdleWait
	if idleWait <= 0 {
		idleWait = defaultIdleWait
	}
	idle := newIdleWatcher(browserCtx, a.log)

	var cookies []*network.Cookie
	start := a.now()
	err = chromedp.Run(browserCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			return page.SetLifecycleEventsEnabled(true).Do(ctx)
		}),
		idle.reset(),
		chromedp.Navigate(loginURL),
		idle.wait(idleWait),
		chromedp.WaitVisible(a.opts.UsernameSelector, chromedp.ByQuery),
		chromedp.SendKeys(a.opts.UsernameSelector, creds.Username, chromedp.ByQuery),
		chromedp.SendKeys(a.opts.PasswordSelector, creds.Password, chromedp.ByQuery),
		idle.reset(),
		chromedp.Click(a.opts.SubmitSelector, chromedp.ByQuery),
		idle.wait(idleWait),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = network.GetCookies().Do(ctx)
			return err
		}),
	)
	if err != nil {
		return models.Session{}, fmt.Errorf("browser login at %s: %w", loginURL, err)
	}

	jar := make(map[string]string, len(cookies))
	for _, c := range cookies {
		jar[c.Name] = c.Value
	}
	a.log.Debugw("browser_login_finished", "cookies", len(jar), "took", a.now().Sub(start))

	return sessionFromCookies(jar, a.opts, a.now())
}

// idleWatcher turns page lifecycle "networkIdle" events into a waitable signal.
type idleWatcher struct {
	ch  chan struct{}
	log *logger.Logger
}

func newIdleWatcher(ctx context.Context, log *logger.Logger) *idleWatcher {
	w := &idleWatcher{ch: make(chan struct{}, 1), log: log}
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		e, ok := ev.(*page.EventLifecycleEvent)
		if !ok || e.Name != "networkIdle" {
			return
		}
		select {
		case w.ch <- struct{}{}:
		default:
		}
	})
	return w
}

// reset drops an idle signal left over from the previous page.
func (w *idleWatcher) reset() chromedp.Action {
	return chromedp.ActionFunc(func(context.Context) error {
		select {
		case <-w.ch:
		default:
		}
		return nil
	})
}

// wait blocks until the page reports network idle. Pages that keep a connection
// open never go idle, so after max the login proceeds anyway.
func (w *idleWatcher) wait(max time.Duration) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		t := time.NewTimer(max)
		defer t.Stop()
		select {
		case <-w.ch:
			return nil
		case <-t.C:
			w.log.Infow("network_idle_timeout", "waited", max)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}
