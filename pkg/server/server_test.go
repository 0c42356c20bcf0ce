package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rycus86/startpage-departures/pkg/dashboard"
	"github.com/rycus86/startpage-departures/pkg/prefs"
	"github.com/rycus86/startpage-departures/pkg/timetables"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const timetable = "Dep 09:00 09:30 10:00\nArr 09:15 09:45 10:15"

func now() time.Time {
	return time.Date(2026, time.October, 17, 8, 55, 0, 0, time.UTC)
}

func testSnapshot() *timetables.Snapshot {
	return &timetables.Snapshot{Board: timetables.DefaultPolicy().Evaluate(timetable, now())}
}

func newTestApp(t *testing.T, snapshot *timetables.Snapshot) (*fiber.App, *prefs.Manager) {
	store := &prefs.FileStore{Path: filepath.Join(t.TempDir(), "userdata.json")}

	manager, err := prefs.NewManager(context.Background(), store, now)
	require.NoError(t, err)

	srv := New(func() *timetables.Snapshot { return snapshot }, manager, now)

	return srv.App(), manager
}

func do(t *testing.T, app *fiber.App, method, target, body string, headers map[string]string) (*http.Response, string) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	request := httptest.NewRequest(method, target, reader)
	if body != "" {
		request.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for key, value := range headers {
		request.Header.Set(key, value)
	}

	response, err := app.Test(request)
	require.NoError(t, err)

	contents, err := io.ReadAll(response.Body)
	require.NoError(t, err)

	return response, string(contents)
}

func TestVersion(t *testing.T) {
	app, _ := newTestApp(t, testSnapshot())

	response, body := do(t, app, http.MethodGet, "/version", "", nil)
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.JSONEq(t, `{"version":"v1.0"}`, body)
}

func TestNextDepartures_ContentNegotiation(t *testing.T) {
	app, _ := newTestApp(t, testSnapshot())

	t.Run("json", func(t *testing.T) {
		response, body := do(t, app, http.MethodGet, "/departures", "", map[string]string{"Accept": "application/json"})
		require.Equal(t, http.StatusOK, response.StatusCode)

		var entries []timetables.DepartureEntry
		require.NoError(t, json.Unmarshal([]byte(body), &entries))
		require.Len(t, entries, 3)
		assert.True(t, entries[0].DepartureTime.Equal(time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC)))
	})

	t.Run("html", func(t *testing.T) {
		response, body := do(t, app, http.MethodGet, "/departures", "", map[string]string{"Accept": "text/html"})
		require.Equal(t, http.StatusOK, response.StatusCode)
		assert.Contains(t, response.Header.Get("Content-Type"), "text/html")
		assert.Contains(t, body, "Departing: 09:30")
		assert.Contains(t, body, "Leave by: 09:20")
	})

	t.Run("text", func(t *testing.T) {
		response, body := do(t, app, http.MethodGet, "/departures", "", nil)
		require.Equal(t, http.StatusOK, response.StatusCode)
		assert.Equal(t, "09:00 - 09:15\n09:30 - 09:45\n10:00 - 10:15\n", body)
	})
}

func TestNextDepartures_NoService(t *testing.T) {
	snapshot := &timetables.Snapshot{Board: timetables.DefaultPolicy().Evaluate("", now())}
	app, _ := newTestApp(t, snapshot)

	response, body := do(t, app, http.MethodGet, "/departures", "", nil)
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Equal(t, "No upcoming departures\n", body)

	_, body = do(t, app, http.MethodGet, "/departures", "", map[string]string{"Accept": "application/json"})
	assert.JSONEq(t, `[]`, body)
}

func TestNextDepartures_NotReady(t *testing.T) {
	app, _ := newTestApp(t, nil)

	response, _ := do(t, app, http.MethodGet, "/departures", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, response.StatusCode)

	response, _ = do(t, app, http.MethodGet, "/board", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, response.StatusCode)
}

func TestBoard(t *testing.T) {
	app, _ := newTestApp(t, testSnapshot())

	response, body := do(t, app, http.MethodGet, "/board", "", nil)
	require.Equal(t, http.StatusOK, response.StatusCode)

	var snapshot timetables.Snapshot
	require.NoError(t, json.Unmarshal([]byte(body), &snapshot))
	require.NotNil(t, snapshot.Board.Focused)
	assert.Equal(t, "09:30", snapshot.Board.Focused.DepartureTime.Format("15:04"))
	assert.Equal(t, "09:00", snapshot.Board.Fading.DepartureTime.Format("15:04"))
	assert.Equal(t, "09:20", snapshot.Board.LeaveBy.Format("15:04"))
}

func TestDashboard_Flow(t *testing.T) {
	app, manager := newTestApp(t, testSnapshot())

	_, body := do(t, app, http.MethodGet, "/dashboard", "", nil)
	var view dashboard.View
	require.NoError(t, json.Unmarshal([]byte(body), &view))
	assert.Equal(t, dashboard.ModeOnboarding, view.Mode)

	response, _ := do(t, app, http.MethodPost, "/preferences/onboard", `{"displayName":""}`, nil)
	assert.Equal(t, http.StatusBadRequest, response.StatusCode)

	response, _ = do(t, app, http.MethodPost, "/preferences/onboard", `{"displayName":"Aiko"}`, nil)
	require.Equal(t, http.StatusOK, response.StatusCode)

	response, _ = do(t, app, http.MethodPut, "/preferences/bus-schedule", `{"visible":true}`, nil)
	require.Equal(t, http.StatusOK, response.StatusCode)

	_, body = do(t, app, http.MethodGet, "/dashboard", "", nil)
	view = dashboard.View{}
	require.NoError(t, json.Unmarshal([]byte(body), &view))
	assert.Equal(t, dashboard.ModeKnown, view.Mode)
	assert.Equal(t, "Aiko", view.DisplayName)
	require.NotNil(t, view.Bus)
	require.NotNil(t, view.Bus.Board)
	assert.Len(t, view.Bus.Board.Entries, 3)

	assert.True(t, manager.Get().IsBusSchedule)
}

func TestPreferences_Workday(t *testing.T) {
	app, manager := newTestApp(t, testSnapshot())

	response, _ := do(t, app, http.MethodPut, "/preferences/workday", `{"startTime":"8:00","endTime":"nope"}`, nil)
	assert.Equal(t, http.StatusBadRequest, response.StatusCode)

	response, _ = do(t, app, http.MethodPut, "/preferences/workday", `{"startTime":"8:00","endTime":"16:00"}`, nil)
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Equal(t, "16:00", manager.Get().EndTime)
}

func TestPreferences_Links(t *testing.T) {
	app, _ := newTestApp(t, testSnapshot())

	response, body := do(t, app, http.MethodPost, "/preferences/links", `{"title":"Calendar","url":"https://calendar.example.com"}`, nil)
	require.Equal(t, http.StatusCreated, response.StatusCode)

	var link prefs.Link
	require.NoError(t, json.Unmarshal([]byte(body), &link))
	assert.NotEmpty(t, link.ID)

	response, _ = do(t, app, http.MethodPost, "/preferences/links", `{"title":"Bad","url":"nope"}`, nil)
	assert.Equal(t, http.StatusBadRequest, response.StatusCode)

	_, body = do(t, app, http.MethodGet, "/preferences?search=CAL", "", nil)
	assert.JSONEq(t, `{"links":[{"id":"`+link.ID+`","title":"Calendar","url":"https://calendar.example.com"}],"match":0}`, body)

	response, _ = do(t, app, http.MethodDelete, "/preferences/links/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, response.StatusCode)

	response, _ = do(t, app, http.MethodDelete, "/preferences/links/"+link.ID, "", nil)
	assert.Equal(t, http.StatusOK, response.StatusCode)
}

func TestPreferences_TimeZones(t *testing.T) {
	app, manager := newTestApp(t, testSnapshot())

	response, _ := do(t, app, http.MethodPost, "/preferences/timezones", `{"title":"Mumbai","offset":5.5}`, nil)
	require.Equal(t, http.StatusCreated, response.StatusCode)

	response, _ = do(t, app, http.MethodPost, "/preferences/timezones", `{"title":"Mumbai","offset":5.5}`, nil)
	assert.Equal(t, http.StatusConflict, response.StatusCode)

	response, _ = do(t, app, http.MethodPost, "/preferences/timezones", `{"title":"Mars","offset":30}`, nil)
	assert.Equal(t, http.StatusBadRequest, response.StatusCode)

	response, _ = do(t, app, http.MethodDelete, "/preferences/timezones?title=Mumbai&offset=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, response.StatusCode)

	response, _ = do(t, app, http.MethodDelete, "/preferences/timezones?title=Mumbai&offset=5.5", "", nil)
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Empty(t, manager.Get().TimeZones)
}

func TestMetrics(t *testing.T) {
	app, _ := newTestApp(t, testSnapshot())

	do(t, app, http.MethodGet, "/board", "", nil)

	response, body := do(t, app, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Contains(t, body, "req_startpage")
}
