package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/myrjola/progapp/internal/envstruct"
	"github.com/myrjola/progapp/internal/errors"
	"github.com/myrjola/progapp/internal/logging"
	"github.com/myrjola/progapp/internal/progression"
	"github.com/myrjola/progapp/internal/sqlite"
)

type application struct {
	logger             *slog.Logger
	sessionManager     *scs.SessionManager
	progressionService *progression.Service
	defaultProfile     string
	// defaultBoundaryHour is assigned to profiles created without one.
	defaultBoundaryHour int
}

type config struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"PROGAPP_ADDR" envDefault:"localhost:8081"`
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ethereal in-memory database.
	SqliteURL string `env:"PROGAPP_SQLITE_URL" envDefault:"./progapp.sqlite3"`
	// BoundaryHour is the default day-boundary hour assigned to new profiles.
	BoundaryHour int `env:"PROGAPP_BOUNDARY_HOUR" envDefault:"0"`
	// DefaultProfile is the profile used by requests without a selected profile.
	DefaultProfile string `env:"PROGAPP_DEFAULT_PROFILE" envDefault:"default"`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		cancel context.CancelFunc
		err    error
	)

	ctx, cancel = signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	var cfg config
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db")

	app := application{
		logger:              logger,
		sessionManager:      initializeSessionManager(db),
		progressionService:  progression.NewService(db, logger),
		defaultProfile:      cfg.DefaultProfile,
		defaultBoundaryHour: cfg.BoundaryHour,
	}

	if err = app.configureAndStartServer(ctx, cfg.Addr, app.routes()); err != nil {
		return errors.Wrap(err, "start server")
	}
	return nil
}

func initializeSessionManager(dbs *sqlite.Database) *scs.SessionManager {
	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.NewWithCleanupInterval(dbs.ReadWrite, 24*time.Hour) //nolint:mnd // day
	sessionManager.Lifetime = 12 * time.Hour                                                //nolint:mnd // half a day
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.Secure = true
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.SameSite = http.SameSiteStrictMode
	return sessionManager
}

func main() {
	ctx := context.Background()
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
