package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rycus86/startpage-departures/pkg/prefs"
	"github.com/rycus86/startpage-departures/pkg/timetables"
)

const apiVersion = "v1.0"

type Server struct {
	snapshotSupplier func() *timetables.Snapshot
	preferences      *prefs.Manager
	clock            func() time.Time
}

func New(snapshotSupplier func() *timetables.Snapshot, preferences *prefs.Manager, clock func() time.Time) *Server {
	if clock == nil {
		clock = time.Now
	}

	return &Server{
		snapshotSupplier: snapshotSupplier,
		preferences:      preferences,
		clock:            clock,
	}
}

func (s *Server) App() *fiber.App {
	webApp := fiber.New(fiber.Config{
		AppName:               "startpage",
		DisableStartupMessage: true,
	})
	webApp.Use(NewLogger())

	webApp.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"version": apiVersion})
	})

	webApp.Get("/departures", observe("departures", s.NextDepartures))
	webApp.Get("/board", observe("board", s.Board))
	webApp.Get("/dashboard", observe("dashboard", s.Dashboard))

	group := webApp.Group("/preferences")
	group.Get("/", observe("preferences", s.GetPreferences))
	group.Post("/onboard", observe("preferences", s.Onboard))
	group.Put("/workday", observe("preferences", s.SetWorkday))
	group.Put("/bus-schedule", observe("preferences", s.SetBusSchedule))
	group.Post("/links", observe("preferences", s.AddLink))
	group.Delete("/links/:id", observe("preferences", s.RemoveLink))
	group.Post("/timezones", observe("preferences", s.AddTimeZone))
	group.Delete("/timezones", observe("preferences", s.RemoveTimeZone))

	webApp.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	return webApp
}
