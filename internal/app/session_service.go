// internal/app/session_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"enrollment_notifier/internal/domain/browser"
	ibrowser "enrollment_notifier/internal/infra/browser"

	"github.com/sirupsen/logrus"
)

var (
	// ErrAuthFailure is returned when the portal could not be reached at all.
	ErrAuthFailure = errors.New("portal authentication failed")
	// ErrTokenMissing is returned when no bearer token was found after login.
	ErrTokenMissing = errors.New("portal token not found")
)

// Credentials identify the portal account and the scope to work in.
type Credentials struct {
	URL          string
	Username     string
	Password     string
	Organization string
}

// SessionTimings are the waits used by the login flow.
type SessionTimings struct {
	Settle      time.Duration // after navigation and after submitting credentials
	MarkerWait  time.Duration // authenticated-state and sign-in button checks
	OrgWait     time.Duration // organisation selected marker
	OrgSettle   time.Duration // after picking an organisation option
	ActionPause time.Duration // between individual UI actions
}

// DefaultSessionTimings mirror how long the portal takes to react in practice.
func DefaultSessionTimings() SessionTimings {
	return SessionTimings{
		Settle:      5 * time.Second,
		MarkerWait:  5 * time.Second,
		OrgWait:     3 * time.Second,
		OrgSettle:   3 * time.Second,
		ActionPause: time.Second,
	}
}

// SessionAcquirer drives a browser to an authenticated portal session scoped
// to the configured organisation.
type SessionAcquirer struct {
	opener   browser.Opener
	creds    Credentials
	locators ibrowser.PortalLocators
	timings  SessionTimings
	logger   logrus.FieldLogger
	sleep    func(ctx context.Context, d time.Duration)
}

func NewSessionAcquirer(
	opener browser.Opener,
	creds Credentials,
	locators ibrowser.PortalLocators,
	timings SessionTimings,
	logger logrus.FieldLogger,
) *SessionAcquirer {
	return &SessionAcquirer{
		opener:   opener,
		creds:    creds,
		locators: locators,
		timings:  timings,
		logger:   logger,
		sleep:    sleepCtx,
	}
}

// Acquire opens a browser, logs in if needed and selects the organisation.
// Individual UI steps are best effort: a failed step is logged and the flow
// continues, leaving token capture to decide whether the session is usable.
// The caller owns the returned driver.
func (s *SessionAcquirer) Acquire(ctx context.Context) (browser.Driver, error) {
	d, err := s.opener.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open browser: %w", err)
	}

	if err := d.Navigate(ctx, s.creds.URL); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("%w: %w", ErrAuthFailure, err)
	}
	s.sleep(ctx, s.timings.Settle)

	s.login(ctx, d)
	s.selectOrganization(ctx, d)
	return d, nil
}

func (s *SessionAcquirer) login(ctx context.Context, d browser.Driver) {
	if d.WaitVisible(ctx, s.locators.ProfileMarker, s.timings.MarkerWait) {
		s.logger.Info("Already logged in")
		return
	}

	if d.WaitVisible(ctx, s.locators.SignIn, s.timings.MarkerWait) {
		s.logger.Info("Signing in")
		s.step(ctx, "click sign in", d.Click(ctx, s.locators.SignIn))
		s.step(ctx, "type username", d.Type(ctx, s.locators.Email, s.creds.Username))
		s.step(ctx, "type password", d.Type(ctx, s.locators.Password, s.creds.Password))
		s.step(ctx, "submit credentials", d.Click(ctx, s.locators.Submit))
		s.sleep(ctx, s.timings.Settle)
	} else {
		s.logger.Warn("Sign in button not visible")
	}

	if d.WaitVisible(ctx, s.locators.ProfileMarker, s.timings.MarkerWait) {
		s.logger.Info("Login successful")
	} else {
		s.logger.Warn("Login may have failed")
	}
}

func (s *SessionAcquirer) selectOrganization(ctx context.Context, d browser.Driver) {
	log := s.logger.WithField("organization", s.creds.Organization)

	s.step(ctx, "hover classes menu", d.Hover(ctx, s.locators.ClassesNav))
	s.step(ctx, "open organization dropdown", d.Click(ctx, s.locators.OrgDropdown))

	if d.WaitVisible(ctx, s.locators.OrgSelected, s.timings.OrgWait) {
		log.Info("Organization already selected")
		return
	}

	s.step(ctx, "type organization", d.Type(ctx, s.locators.OrgSearch, s.creds.Organization))
	s.step(ctx, "pick organization", d.Click(ctx, s.locators.OrgOption))
	s.sleep(ctx, s.timings.OrgSettle)

	if d.WaitVisible(ctx, s.locators.OrgSelected, s.timings.OrgWait) {
		log.Info("Organization selected")
	} else {
		log.Warn("Organization selection could not be confirmed")
	}
}

// step logs a failed UI action and pauses briefly before the next one.
func (s *SessionAcquirer) step(ctx context.Context, name string, err error) {
	if err != nil {
		s.logger.WithError(err).WithField("step", name).Warn("Browser step failed")
	}
	s.sleep(ctx, s.timings.ActionPause)
}

// TokenCapture reads the bearer token the portal keeps in localStorage.
type TokenCapture struct {
	storageKey string
	logger     logrus.FieldLogger
}

func NewTokenCapture(storageKey string, logger logrus.FieldLogger) *TokenCapture {
	return &TokenCapture{storageKey: storageKey, logger: logger}
}

// Capture returns the stored token, or "" when it is absent or unreadable.
func (t *TokenCapture) Capture(ctx context.Context, d browser.Driver) string {
	js := fmt.Sprintf(`() => window.localStorage.getItem(%q)`, t.storageKey)
	token, err := d.EvalString(ctx, js)
	if err != nil {
		t.logger.WithError(err).Error("Failed to read token from local storage")
		return ""
	}
	if token == "" {
		t.logger.WithField("key", t.storageKey).Error("token not found")
		return ""
	}
	t.logger.Info("Token captured")
	return token
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
