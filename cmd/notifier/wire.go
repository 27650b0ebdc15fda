package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"enrollment_notifier/internal/app"
	"enrollment_notifier/internal/domain/enrollment"
	domainmail "enrollment_notifier/internal/domain/mail"
	"enrollment_notifier/internal/infra/browser"
	"enrollment_notifier/internal/infra/config"
	idb "enrollment_notifier/internal/infra/database"
	"enrollment_notifier/internal/infra/filestore"
	"enrollment_notifier/internal/infra/logger"
	"enrollment_notifier/internal/infra/mail"
	"enrollment_notifier/internal/infra/portal"
)

type notifiedStore = enrollment.NotifiedRepository

type services struct {
	cycle  *app.Cycle
	closer func() error
}

func (s *services) Close() {
	if s.closer == nil {
		return
	}
	if err := s.closer(); err != nil {
		logger.Log.WithError(err).Warn("Failed to close notified store")
	}
}

// buildServices wires every component of a cycle from configuration.
func buildServices(ctx context.Context, cfg *config.AppConfig) (*services, error) {
	store, closer, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	sender, err := newSender(cfg)
	if err != nil {
		_ = closer()
		return nil, err
	}
	renderer, err := mail.NewRenderer(cfg.Mail.SenderName)
	if err != nil {
		_ = closer()
		return nil, fmt.Errorf("could not parse email template: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Portal.TimeZone)
	if err != nil {
		_ = closer()
		return nil, fmt.Errorf("invalid portal time zone: %w", err)
	}
	portalClient := portal.NewClient(portal.Config{
		ClassAPIURL: cfg.Portal.ClassAPIURL,
		OrgAPIURL:   cfg.Portal.OrgAPIURL,
		Origin:      strings.TrimRight(cfg.Portal.URL, "/"),
		ParentID:    cfg.Portal.ParentID,
		ExtID:       cfg.Portal.ExtID,
		TokenHeader: cfg.Portal.TokenHeader,
		PageSize:    cfg.Portal.PageSize,
		Location:    loc,
		Timeout:     cfg.Portal.HTTPTimeout,
	}, logger.Component("portal"))

	opener := browser.NewRodOpener(browser.Options{
		Bin:        cfg.Browser.Bin,
		Headless:   cfg.Browser.Headless,
		ProfileDir: cfg.Browser.ProfileDir,
		NoSandbox:  cfg.Browser.NoSandbox,
	}, logger.Component("browser"))

	acquirer := app.NewSessionAcquirer(
		opener,
		app.Credentials{
			URL:          cfg.Portal.URL,
			Username:     cfg.Portal.Username,
			Password:     cfg.Portal.Password,
			Organization: cfg.Portal.Organization,
		},
		browser.NewPortalLocators(cfg.Portal.ProfileName, cfg.Portal.Organization),
		app.DefaultSessionTimings(),
		logger.Component("session"),
	)
	capture := app.NewTokenCapture(cfg.Portal.TokenStorageKey, logger.Component("session"))
	dispatcher := app.NewNotificationDispatcher(renderer, sender, store, cfg.Mail.OversightEmail, logger.Component("dispatcher"))
	ingestor := app.NewClassIngestor(
		portalClient,
		store,
		dispatcher,
		cfg.Portal.CourtesyDelayMin,
		cfg.Portal.CourtesyDelayMax,
		logger.Component("ingestor"),
	)

	return &services{
		cycle:  app.NewCycle(acquirer, capture, ingestor, logger.Component("cycle")),
		closer: closer,
	}, nil
}

// openStore opens the configured NotifiedSet backend. The returned closer releases it.
func openStore(ctx context.Context, cfg config.StoreConfig) (notifiedStore, func() error, error) {
	switch cfg.Backend {
	case config.StoreFile:
		s, err := filestore.Open(cfg.FilePath)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open notified file: %w", err)
		}
		logger.Log.WithField("path", cfg.FilePath).Infof("Notified file loaded with %d classes", s.Len())
		return s, s.Close, nil

	case config.StorePostgres:
		db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to database: %w", err)
		}
		repo := idb.NewPostgresNotifiedRepository(db)
		return ensureSchema(ctx, db, repo)

	case config.StoreSQLite:
		db, err := idb.NewSQLiteConnection(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open sqlite database: %w", err)
		}
		repo := idb.NewSQLiteNotifiedRepository(db)
		return ensureSchema(ctx, db, repo)

	default:
		return nil, nil, fmt.Errorf("unknown notified store %q", cfg.Backend)
	}
}

type schemaStore interface {
	notifiedStore
	EnsureSchema(ctx context.Context) error
}

func ensureSchema(ctx context.Context, db *sql.DB, repo schemaStore) (notifiedStore, func() error, error) {
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	logger.Log.Info("Database connection established successfully.")
	return repo, db.Close, nil
}

func withStore(ctx context.Context, cfg *config.AppConfig, fn func(context.Context, notifiedStore) error) error {
	store, closer, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closer()
	return fn(ctx, store)
}

func newSender(cfg *config.AppConfig) (domainmail.Sender, error) {
	m := cfg.Mail
	switch m.Provider {
	case config.MailBrevo:
		return mail.NewBrevoSender(m.APIKey, m.SenderName, m.SenderEmail, m.Subject), nil
	case config.MailSendGrid:
		return mail.NewSendGridSender(m.APIKey, m.SenderName, m.SenderEmail, m.Subject), nil
	case config.MailConsole:
		return mail.NewConsoleSender(logger.Component("mail"), cfg.LogLevel == "debug"), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", m.Provider)
	}
}
