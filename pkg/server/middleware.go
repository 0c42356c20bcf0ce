package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/rycus86/startpage-departures/pkg/dashboard"
	"github.com/rycus86/startpage-departures/pkg/timetables"
)

const clockFormat = "15:04"

var (
	requestSummary = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name: "req_startpage",
		Help: "Summary for serving start page requests",
	}, []string{"endpoint_type"})
)

func init() {
	prometheus.MustRegister(requestSummary)
}

func observe(endpointType string, handler fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqStart := time.Now()
		defer func() {
			requestSummary.With(prometheus.Labels{"endpoint_type": endpointType}).Observe(time.Since(reqStart).Seconds())
		}()

		return handler(c)
	}
}

func (s *Server) currentSnapshot() *timetables.Snapshot {
	snapshot := s.snapshotSupplier()
	if snapshot == nil {
		log.Warn().Msg("No departure board available yet")
	}

	return snapshot
}

// NextDepartures lists the upcoming departures as JSON, HTML or plain text
// depending on the Accept header.
func (s *Server) NextDepartures(c *fiber.Ctx) error {
	snapshot := s.currentSnapshot()
	if snapshot == nil {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	board := snapshot.Board
	accept := c.Get(fiber.HeaderAccept)

	if strings.Contains(accept, fiber.MIMEApplicationJSON) {
		c.Set(fiber.HeaderCacheControl, "public, max-age=5")
		return c.JSON(board.Entries)
	} else if strings.Contains(accept, fiber.MIMETextHTML) {
		content := ""
		for _, entry := range board.Entries {
			content += fmt.Sprintf(`
<p>
	<span>Departing: %s</span><br/>
	<span>Arriving: %s</span><br/>
</p>
`, entry.DepartureTime.Format(clockFormat), formatClock(entry.ArrivalTime))
		}

		if content == "" {
			content = "<p>No upcoming departures</p>"
		}

		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(fmt.Sprintf(`<html>
<head>
	<title>Next departures</title>
</head>
<body>
<h1>Next departures</h1>
<p>Leave by: %s</p>
<div>
%s
</div>
</body>
</html>`, formatClock(board.LeaveBy), content))
	}

	builder := strings.Builder{}
	if board.NoService() {
		builder.WriteString("No upcoming departures\n")
	}

	for _, entry := range board.Entries {
		builder.WriteString(fmt.Sprintf("%s - %s\n", entry.DepartureTime.Format(clockFormat), formatClock(entry.ArrivalTime)))
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(builder.String())
}

func (s *Server) Board(c *fiber.Ctx) error {
	snapshot := s.currentSnapshot()
	if snapshot == nil {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	return c.JSON(snapshot)
}

func (s *Server) Dashboard(c *fiber.Ctx) error {
	view := dashboard.Build(s.preferences.Get(), s.snapshotSupplier(), s.clock())

	return c.JSON(view)
}

func formatClock(t *time.Time) string {
	if t == nil {
		return "--:--"
	}

	return t.Format(clockFormat)
}
