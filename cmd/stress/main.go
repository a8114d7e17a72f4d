// Command stress hammers the progression engine with concurrent opens and
// verifies that the same-day guard holds: no matter how many goroutines
// open the same program day at once, the day pointer moves at most once.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/myrjola/progapp/internal/errors"
	"github.com/myrjola/progapp/internal/logging"
	"github.com/myrjola/progapp/internal/progression"
	"github.com/myrjola/progapp/internal/sqlite"
	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		workers = flag.Int("workers", 16, "concurrent goroutines opening the day")
		days    = flag.Int("days", 30, "number of simulated days")
		url     = flag.String("sqlite-url", ":memory:", "sqlite database url")
	)
	flag.Parse()

	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	if err := run(context.Background(), logger, *url, *workers, *days); err != nil {
		logger.LogAttrs(context.Background(), slog.LevelError, "stress run failed", errors.SlogError(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, url string, workers, days int) error {
	db, err := sqlite.NewDatabase(ctx, url, logger)
	if err != nil {
		return errors.Wrap(err, "open database")
	}
	defer func() {
		_ = db.Close()
	}()

	service := progression.NewService(db, logger)

	profile, err := service.CreateProfile(ctx, "stress", 3, progression.ModePlan)
	if err != nil {
		return errors.Wrap(err, "create profile")
	}
	plan, err := service.CreatePlan(ctx, profile.ID, "stress plan", []progression.Day{
		{Position: 1, Name: "A", ExerciseCount: 2},
		{Position: 2, Name: "B", ExerciseCount: 2},
		{Position: 3, Name: "C", IsRestDay: true},
	})
	if err != nil {
		return errors.Wrap(err, "create plan")
	}
	if err = service.ActivatePlan(ctx, profile.ID, plan.ID); err != nil {
		return errors.Wrap(err, "activate plan")
	}

	start := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	for day := range days {
		now := start.AddDate(0, 0, day)
		if err = stormOpen(ctx, service, profile.ID, now, workers); err != nil {
			return fmt.Errorf("day %d: %w", day, err)
		}
		if err = service.CompleteToday(ctx, profile.ID, now); err != nil {
			return fmt.Errorf("day %d: complete: %w", day, err)
		}
	}

	fmt.Printf("ok: %d days, %d concurrent opens per day, pointer advanced exactly once per day\n", days, workers)
	return nil
}

// stormOpen fires workers concurrent opens for the same instant and checks
// that at most one of them reports an advancement.
func stormOpen(ctx context.Context, service *progression.Service, profileID int64, now time.Time, workers int) error {
	results := make([]progression.OpenResult, workers)

	g, groupCtx := errgroup.WithContext(ctx)
	for i := range workers {
		g.Go(func() error {
			result, err := service.HandleOpen(groupCtx, profileID, now)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "concurrent open")
	}

	advanced := 0
	dayIndex := results[0].DayIndex
	for _, result := range results {
		if result.Outcome == progression.OutcomeAdvanced {
			advanced++
		}
		if result.DayIndex != dayIndex {
			return fmt.Errorf("diverging day indexes: %d vs %d", dayIndex, result.DayIndex)
		}
	}
	if advanced > 1 {
		return fmt.Errorf("day pointer advanced %d times for one program day", advanced)
	}
	return nil
}
