// Package server wires the ContactKeeper API together: it opens storage,
// runs migrations, builds the services and serves HTTP until a shutdown
// signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/contactkeeper/internal/logging"
	"github.com/dmitrijs2005/contactkeeper/internal/server/auth"
	"github.com/dmitrijs2005/contactkeeper/internal/server/config"
	"github.com/dmitrijs2005/contactkeeper/internal/server/mail"
	"github.com/dmitrijs2005/contactkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/contactkeeper/internal/server/rest"
	"github.com/dmitrijs2005/contactkeeper/internal/server/services"
	"github.com/dmitrijs2005/contactkeeper/internal/server/storage"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	dispatcher *mail.Dispatcher
	server     *rest.Server
}

// NewApp builds every component from c. An empty DatabaseDSN keeps accounts
// in memory, which is only meant for local runs.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, rm, err := openStorage(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	var sender mail.Sender
	if c.SendGridAPIKey == "" {
		logger.Warn(ctx, "no SendGrid API key, outgoing mail is only logged")
		sender = mail.NewLogMailer(logger.With("module", "mail"))
	} else {
		sender = mail.NewSendGridMailer(c.SendGridAPIKey, c.MailFrom)
	}
	dispatcher := mail.NewDispatcher(sender, logger.With("module", "mail"), 0)

	tokens := auth.NewSessionTokens([]byte(c.SecretKey), c.SessionTokenValidityDuration)

	accounts, err := services.NewAccountService(db, rm, c,
		auth.NewBcryptHasher(c.PasswordHashCost), auth.VerificationTokens{}, tokens, dispatcher, logger)
	if err != nil {
		return nil, err
	}

	presigner, err := storage.NewS3Presigner(ctx, storage.Config{
		Region:       c.S3Region,
		User:         c.S3RootUser,
		Password:     c.S3RootPassword,
		Bucket:       c.S3Bucket,
		BaseEndpoint: c.S3BaseEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 init error: %w", err)
	}
	avatars := services.NewAvatarService(db, rm, c, presigner, logger)
	contacts := services.NewContactService(db, rm, logger)

	guard := auth.NewGuard(tokens, rm.Accounts(db))
	server := rest.NewServer(c.EndpointAddrHTTP, logger, accounts, avatars, contacts, guard)

	return &App{config: c, logger: logger, db: db, dispatcher: dispatcher, server: server}, nil
}

func openStorage(ctx context.Context, c *config.Config, logger logging.Logger) (*sql.DB, repomanager.RepositoryManager, error) {
	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "no database DSN, accounts are kept in memory")
		return nil, repomanager.NewMemoryRepositoryManager(), nil
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrations error: %w", err)
	}
	return db, rm, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) (stop func()) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	done := make(chan struct{})
	go func() {
		select {
		case <-sigs:
			cancelFunc()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

// Run serves until ctx is cancelled or a shutdown signal arrives, then waits
// for queued mail and closes the database.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	stop := app.initSignalHandler(cancelFunc)
	defer stop()

	var (
		wg     sync.WaitGroup
		runErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			runErr = err
			cancelFunc()
		}
	}()

	wg.Wait()

	app.dispatcher.Wait()
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "error", err)
		}
	}

	app.logger.Info(ctx, "App stopped")
	return runErr
}
