package progression

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/myrjola/progapp/internal/sqlite"
)

const timestampFormat = "2006-01-02T15:04:05.000Z"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = fmt.Errorf("not found")

// baseRepository holds the shared database handle and logger for the repositories.
type baseRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func newBaseRepository(db *sqlite.Database, logger *slog.Logger) baseRepository {
	return baseRepository{
		db:     db,
		logger: logger,
	}
}

// repository bundles all progression repositories.
type repository struct {
	profiles *sqliteProfileRepository
	plans    *sqlitePlanRepository
	cycles   *sqliteCycleRepository
	progress *sqliteProgressRepository
	records  *sqliteRecordRepository
}

// repositoryFactory wires the repositories to a shared database handle.
type repositoryFactory struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func newRepositoryFactory(db *sqlite.Database, logger *slog.Logger) *repositoryFactory {
	return &repositoryFactory{
		db:     db,
		logger: logger,
	}
}

func (f *repositoryFactory) newRepository() *repository {
	return &repository{
		profiles: newSQLiteProfileRepository(f.db, f.logger),
		plans:    newSQLitePlanRepository(f.db, f.logger),
		cycles:   newSQLiteCycleRepository(f.db, f.logger),
		progress: newSQLiteProgressRepository(f.db, f.logger),
		records:  newSQLiteRecordRepository(f.db, f.logger),
	}
}

// formatTimestamp formats a timestamp for database storage.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampFormat)
}

// parseTimestamp parses a timestamp from a nullable database string.
func parseTimestamp(timestampStr sql.NullString) (time.Time, error) {
	if !timestampStr.Valid || timestampStr.String == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timestampFormat, timestampStr.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", timestampStr.String, err)
	}
	return t, nil
}

// parseNullableDate parses a program date from a nullable database string.
func parseNullableDate(dateStr sql.NullString) (Date, error) {
	if !dateStr.Valid || dateStr.String == "" {
		return Date{}, nil
	}
	d, err := ParseDate(dateStr.String)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", dateStr.String, err)
	}
	return d, nil
}

// nullableDate formats a program date for storage, mapping the zero date to NULL.
func nullableDate(d Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}
