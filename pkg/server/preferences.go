package server

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/rycus86/startpage-departures/pkg/dashboard"
	"github.com/rycus86/startpage-departures/pkg/prefs"
)

type onboardRequest struct {
	DisplayName string `json:"displayName"`
}

type workdayRequest struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type busScheduleRequest struct {
	Visible bool `json:"visible"`
}

type linkRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

func (s *Server) GetPreferences(c *fiber.Ctx) error {
	data := s.preferences.Get()

	if term := c.Query("search"); term != "" {
		links := dashboard.SortLinks(data.Links)
		return c.JSON(fiber.Map{
			"links": links,
			"match": dashboard.SearchLinks(links, term),
		})
	}

	return c.JSON(data)
}

func (s *Server) Onboard(c *fiber.Ctx) error {
	var request onboardRequest
	if err := c.BodyParser(&request); err != nil {
		return sendError(c, fiber.StatusBadRequest, err)
	}

	return respond[prefs.UserData](c, fiber.StatusOK)(s.preferences.Onboard(c.UserContext(), request.DisplayName))
}

func (s *Server) SetWorkday(c *fiber.Ctx) error {
	var request workdayRequest
	if err := c.BodyParser(&request); err != nil {
		return sendError(c, fiber.StatusBadRequest, err)
	}

	return respond[prefs.UserData](c, fiber.StatusOK)(s.preferences.SetWorkday(c.UserContext(), request.StartTime, request.EndTime))
}

func (s *Server) SetBusSchedule(c *fiber.Ctx) error {
	var request busScheduleRequest
	if err := c.BodyParser(&request); err != nil {
		return sendError(c, fiber.StatusBadRequest, err)
	}

	return respond[prefs.UserData](c, fiber.StatusOK)(s.preferences.SetBusSchedule(c.UserContext(), request.Visible))
}

func (s *Server) AddLink(c *fiber.Ctx) error {
	var request linkRequest
	if err := c.BodyParser(&request); err != nil {
		return sendError(c, fiber.StatusBadRequest, err)
	}

	return respond[prefs.Link](c, fiber.StatusCreated)(s.preferences.AddLink(c.UserContext(), request.Title, request.URL))
}

func (s *Server) RemoveLink(c *fiber.Ctx) error {
	return respond[prefs.UserData](c, fiber.StatusOK)(s.preferences.RemoveLink(c.UserContext(), c.Params("id")))
}

func (s *Server) AddTimeZone(c *fiber.Ctx) error {
	var request prefs.TimeZone
	if err := c.BodyParser(&request); err != nil {
		return sendError(c, fiber.StatusBadRequest, err)
	}

	return respond[prefs.UserData](c, fiber.StatusCreated)(s.preferences.AddTimeZone(c.UserContext(), request))
}

func (s *Server) RemoveTimeZone(c *fiber.Ctx) error {
	offset, err := strconv.ParseFloat(c.Query("offset", "0"), 64)
	if err != nil {
		return sendError(c, fiber.StatusBadRequest, err)
	}

	zone := prefs.TimeZone{
		Title:  c.Query("title"),
		Offset: offset,
	}

	return respond[prefs.UserData](c, fiber.StatusOK)(s.preferences.RemoveTimeZone(c.UserContext(), zone))
}

func respond[T any](c *fiber.Ctx, status int) func(T, error) error {
	return func(result T, err error) error {
		if err != nil {
			return sendError(c, errorStatus(err), err)
		}

		return c.Status(status).JSON(result)
	}
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, prefs.ErrLinkNotFound), errors.Is(err, prefs.ErrTimeZoneNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, prefs.ErrDuplicateTimeZone):
		return fiber.StatusConflict
	case errors.Is(err, prefs.ErrInvalidName),
		errors.Is(err, prefs.ErrInvalidWorkday),
		errors.Is(err, prefs.ErrInvalidLink),
		errors.Is(err, prefs.ErrTooManyLinks),
		errors.Is(err, prefs.ErrInvalidTimeZone),
		errors.Is(err, prefs.ErrTooManyTimeZones):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func sendError(c *fiber.Ctx, status int, err error) error {
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
	}

	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
