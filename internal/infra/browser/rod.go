// Package browser implements the browser.Driver capability on top of go-rod.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "enrollment_notifier/internal/domain/browser"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"
)

const (
	launchAttempts   = 3
	launchRetryDelay = 2 * time.Second
	actionTimeout    = 10 * time.Second
)

// Options controls how the browser process is started.
type Options struct {
	Bin        string // empty: let rod locate or download a browser
	Headless   bool
	ProfileDir string // persistent user-data dir; a prior login survives restarts
	NoSandbox  bool
}

// RodOpener launches a fresh browser per Open call.
type RodOpener struct {
	opts   Options
	logger logrus.FieldLogger
	launch func(*launcher.Launcher) (string, error)
	delay  time.Duration
}

var _ domain.Opener = (*RodOpener)(nil)

func NewRodOpener(opts Options, logger logrus.FieldLogger) *RodOpener {
	return &RodOpener{
		opts:   opts,
		logger: logger,
		launch: func(l *launcher.Launcher) (string, error) { return l.Launch() },
		delay:  launchRetryDelay,
	}
}

func (o *RodOpener) newLauncher(ctx context.Context) *launcher.Launcher {
	l := launcher.New().
		Context(ctx).
		Headless(o.opts.Headless).
		NoSandbox(o.opts.NoSandbox).
		Set(flags.Flag("disable-blink-features"), "AutomationControlled").
		Set(flags.Flag("disable-dev-shm-usage")).
		Set(flags.Flag("window-size"), "1920,1080")
	if o.opts.Bin != "" {
		l = l.Bin(o.opts.Bin)
	}
	if o.opts.ProfileDir != "" {
		l = l.UserDataDir(o.opts.ProfileDir)
	}
	return l
}

// Open starts the browser, retrying the launch a few times, and opens a blank page.
func (o *RodOpener) Open(ctx context.Context) (domain.Driver, error) {
	var (
		l          *launcher.Launcher
		controlURL string
		err        error
	)
	for attempt := 1; attempt <= launchAttempts; attempt++ {
		l = o.newLauncher(ctx)
		controlURL, err = o.launch(l)
		if err == nil {
			break
		}
		o.logger.WithError(err).WithField("attempt", attempt).Warn("Browser launch failed")
		if attempt == launchAttempts {
			return nil, fmt.Errorf("launch browser after %d attempts: %w", launchAttempts, err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(o.delay):
		}
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}
	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		l.Kill()
		return nil, fmt.Errorf("open page: %w", err)
	}
	o.logger.Debug("Browser session opened")
	return &RodDriver{browser: b, page: page, launcher: l, logger: o.logger}, nil
}

// RodDriver is one browser session with a single page.
type RodDriver struct {
	browser  *rod.Browser
	page     *rod.Page
	launcher *launcher.Launcher
	logger   logrus.FieldLogger
	closed   bool
}

var _ domain.Driver = (*RodDriver)(nil)

func (d *RodDriver) Navigate(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*actionTimeout)
	defer cancel()
	p := d.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait load %s: %w", url, err)
	}
	return nil
}

// WaitVisible reports whether loc becomes visible before timeout elapses.
func (d *RodDriver) WaitVisible(ctx context.Context, loc domain.Locator, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	el, err := d.find(ctx, loc)
	if err != nil {
		return false
	}
	return el.WaitVisible() == nil
}

func (d *RodDriver) Click(ctx context.Context, loc domain.Locator) error {
	return d.act(ctx, loc, "click", func(el *rod.Element) error {
		return el.Click(proto.InputMouseButtonLeft, 1)
	})
}

// Type replaces the element's current value with text.
func (d *RodDriver) Type(ctx context.Context, loc domain.Locator, text string) error {
	return d.act(ctx, loc, "type", func(el *rod.Element) error {
		if err := el.SelectAllText(); err != nil {
			return err
		}
		return el.Input(text)
	})
}

func (d *RodDriver) Hover(ctx context.Context, loc domain.Locator) error {
	return d.act(ctx, loc, "hover", func(el *rod.Element) error {
		return el.Hover()
	})
}

func (d *RodDriver) EvalString(ctx context.Context, js string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, actionTimeout)
	defer cancel()
	res, err := d.page.Context(ctx).Eval(js)
	if err != nil {
		return "", fmt.Errorf("eval: %w", err)
	}
	if res == nil || res.Value.Nil() {
		return "", nil
	}
	return res.Value.Str(), nil
}

// Close tears down the page, the browser and the launched process. It is safe to call twice.
func (d *RodDriver) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	var errs []error
	if d.page != nil {
		if err := d.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
	}
	if d.browser != nil {
		if err := d.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if d.launcher != nil {
		d.launcher.Kill()
	}
	d.logger.Debug("Browser session closed")
	return errors.Join(errs...)
}

func (d *RodDriver) act(ctx context.Context, loc domain.Locator, name string, fn func(*rod.Element) error) error {
	ctx, cancel := context.WithTimeout(ctx, actionTimeout)
	defer cancel()
	el, err := d.find(ctx, loc)
	if err != nil {
		return fmt.Errorf("%s %s: %w", name, loc, err)
	}
	if err := el.WaitVisible(); err != nil {
		return fmt.Errorf("%s %s: not visible: %w", name, loc, err)
	}
	if err := fn(el); err != nil {
		return fmt.Errorf("%s %s: %w", name, loc, err)
	}
	return nil
}

func (d *RodDriver) find(ctx context.Context, loc domain.Locator) (*rod.Element, error) {
	p := d.page.Context(ctx)
	if loc.Kind == domain.ByXPath {
		return p.ElementX(loc.Value)
	}
	return p.Element(loc.Value)
}
