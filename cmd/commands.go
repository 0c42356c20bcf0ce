package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/rycus86/startpage-departures/pkg/client"
	"github.com/rycus86/startpage-departures/pkg/config"
	"github.com/rycus86/startpage-departures/pkg/prefs"
	"github.com/rycus86/startpage-departures/pkg/server"
	"github.com/rycus86/startpage-departures/pkg/timetables"
	"github.com/sourcegraph/conc/pool"
	"github.com/urfave/cli/v2"
)

const outputFormat = "15:04"

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the departure tracker and the web API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "listen target for the web server (overrides the configuration)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			if listen := c.String("listen"); listen != "" {
				cfg.Listen = listen
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			clock, err := newClock(cfg)
			if err != nil {
				return err
			}

			store, closeStore, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			preferences, err := prefs.NewManager(ctx, store, clock)
			if err != nil {
				return err
			}

			tracker := timetables.NewTracker(newSource(cfg), cfg.Policy(), clock, cfg.Timetable.RefreshInterval.Std())
			webApp := server.New(tracker.Current, preferences, clock).App()

			p := pool.New().WithContext(ctx).WithCancelOnError()

			p.Go(func(ctx context.Context) error {
				if err := tracker.Run(ctx); !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})

			p.Go(func(ctx context.Context) error {
				go func() {
					<-ctx.Done()
					if err := webApp.ShutdownWithTimeout(5 * time.Second); err != nil {
						log.Error().Err(err).Msg("Failed to shut down web server")
					}
				}()

				log.Info().Str("listen", cfg.Listen).Msg("Starting HTTP server")
				return webApp.Listen(cfg.Listen)
			})

			err = p.Wait()
			log.Info().Msg("Stopped")

			return err
		},
	}
}

func nextCommand() *cli.Command {
	return &cli.Command{
		Name:  "next",
		Usage: "print the upcoming departures once",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			clock, err := newClock(cfg)
			if err != nil {
				return err
			}

			tracker := timetables.NewTracker(newSource(cfg), cfg.Policy(), clock, cfg.Timetable.RefreshInterval.Std())
			snapshot := tracker.Refresh(c.Context)

			return printBoard(os.Stdout, snapshot.Board)
		},
	}
}

func printBoard(out io.Writer, board timetables.Board) error {
	if board.NoService() {
		_, err := fmt.Fprintln(out, "No upcoming departures")
		return err
	}

	w := tabwriter.NewWriter(out, 5, 3, 3, ' ', 0)

	fmt.Fprintln(w, "# \t departure \t arrival \t state")
	for index, entry := range board.Entries {
		state := "upcoming"
		switch {
		case board.Fading != nil && entry.SourceIndex == board.Fading.SourceIndex:
			state = "leaving"
			if board.FadingDeparted {
				state = "just left"
			}
		case board.Focused != nil && entry.SourceIndex == board.Focused.SourceIndex:
			state = "next"
		case entry.DepartureTime.Before(board.Now):
			state = "just left"
		}

		fmt.Fprintf(w, "%d \t %s \t %s \t %s\n", index, entry.DepartureTime.Format(outputFormat), formatClock(entry.ArrivalTime), state)
	}

	if err := w.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(out, "\nLeave by: %s (then %s)\n", formatClock(board.LeaveBy), formatClock(board.NextLeaveBy))
	return err
}

func formatClock(t *time.Time) string {
	if t == nil {
		return "--:--"
	}

	return t.Format(outputFormat)
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"), c.StringSlice("env-file")...)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	return cfg, nil
}

func newClock(cfg *config.Config) (func() time.Time, error) {
	location, err := cfg.LoadLocation()
	if err != nil {
		return nil, err
	}

	return func() time.Time {
		return time.Now().In(location)
	}, nil
}

func newSource(cfg *config.Config) timetables.Source {
	switch {
	case cfg.Timetable.File != "":
		log.Info().Str("file", cfg.Timetable.File).Msg("Reading timetable from file")
		return &timetables.FileSource{Path: cfg.Timetable.File}
	case cfg.Timetable.URL != "":
		log.Info().Str("url", cfg.Timetable.URL).Msg("Downloading timetable")
		return timetables.NewHTTPSource(client.NewHttpClient(cfg.Timetable.APIKey), cfg.Timetable.URL)
	default:
		log.Info().Msg("Using the bundled timetable")
		return timetables.BundledSource()
	}
}

func openStore(ctx context.Context, cfg *config.Config) (prefs.Store, func(), error) {
	switch cfg.Store.Kind {
	case config.StoreRedis:
		redisClient, err := prefs.ConnectRedis(ctx, cfg.Store.RedisAddress, cfg.Store.RedisPassword, cfg.Store.RedisDatabase)
		if err != nil {
			return nil, nil, err
		}

		log.Info().Str("address", cfg.Store.RedisAddress).Msg("Storing preferences in Redis")
		return prefs.NewRedisStore(redisClient, cfg.Store.RedisKey), func() { redisClient.Close() }, nil

	case config.StoreSQLite:
		store, err := prefs.OpenSQLiteStore(ctx, cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}

		log.Info().Str("path", cfg.Store.Path).Msg("Storing preferences in SQLite")
		return store, func() { store.Close() }, nil

	default:
		log.Info().Str("path", cfg.Store.Path).Msg("Storing preferences in a JSON file")
		return &prefs.FileStore{Path: cfg.Store.Path}, func() {}, nil
	}
}
