package httpapi

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var validate = validator.New()

const (
	defaultProxyDays     = 3
	defaultDashboardDays = weather.ForecastDays
)

// Handler serves the proxy and dashboard endpoints.
type Handler struct {
	service         *weather.Service
	defaultLocation string
	logger          *slog.Logger
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, defaultLocation string, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{service: service, defaultLocation: defaultLocation, logger: logger}

	api := app.Group("/api")
	api.Get("/search", h.search)
	api.Get("/weather", h.weather)
	api.Get("/dashboard", h.dashboard)
	api.Get("/dashboard/history", h.history)
}

// search proxies location autocomplete.
func (h *Handler) search(c *fiber.Ctx) error {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Search query parameter is required")
	}

	body, err := h.service.Search(c.UserContext(), q)
	if err != nil {
		return h.relay(c, err, "Failed to fetch location data")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

// weather proxies the raw forecast payload.
func (h *Handler) weather(c *fiber.Ctx) error {
	if strings.TrimSpace(c.Query("q")) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Location query parameter is required")
	}
	req, err := bindForecastQuery(c, "", defaultProxyDays)
	if err != nil {
		return err
	}
	if err := req.validate(); err != nil {
		return err
	}

	body, err := h.service.Forecast(c.UserContext(), req.Query, req.Days)
	if err != nil {
		return h.relay(c, err, "Failed to fetch weather data")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

// dashboard returns the normalized display snapshot.
func (h *Handler) dashboard(c *fiber.Ctx) error {
	req, err := bindForecastQuery(c, h.defaultLocation, defaultDashboardDays)
	if err != nil {
		return err
	}
	if err := req.validate(); err != nil {
		return err
	}

	unit, err := weather.ParseUnit(req.Units)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	d, err := h.service.Dashboard(c.UserContext(), req.Query, req.Days)
	if err != nil {
		return h.relay(c, err, "Failed to fetch weather data")
	}
	d.ApplyUnits(unit)

	return c.JSON(d)
}

func (h *Handler) history(c *fiber.Ctx) error {
	var req historyQuery
	if err := req.bind(c, h.defaultLocation); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	snapshots, err := h.service.History(c.UserContext(), req.Query, req.From, req.To)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "no weather history for requested range")
		}
		h.logger.Error("history lookup failed", "query", req.Query, "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather history")
	}

	return c.JSON(fiber.Map{
		"query":     req.Query,
		"from":      req.From,
		"to":        req.To,
		"snapshots": snapshots,
	})
}

// relay forwards a provider error response unchanged when it carries a JSON
// body, and maps every other failure to a 500 with fallback as the message.
func (h *Handler) relay(c *fiber.Ctx, err error, fallback string) error {
	var upstream *weather.UpstreamError
	if errors.As(err, &upstream) {
		h.logger.Warn("provider error", "path", c.Path(), "status", upstream.StatusCode)
		if upstream.JSONBody() {
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(upstream.StatusCode).Send(upstream.Body)
		}
		return fiber.NewError(upstream.StatusCode, fallback)
	}

	h.logger.Error("request failed", "path", c.Path(), "error", err)
	return fiber.NewError(fiber.StatusInternalServerError, fallback)
}

// forecastQuery holds query parameters shared by the forecast proxy and the dashboard.
type forecastQuery struct {
	Query string `query:"q" validate:"required"`
	Days  int    `query:"days" validate:"min=1,max=14"`
	Units string `query:"units"`
}

const errDaysRange = "days must be an integer between 1 and 14"

// bindForecastQuery parses q, days and units, applying the defaults for absent
// values. A non-numeric days is rejected here; ranges are checked by validate.
func bindForecastQuery(c *fiber.Ctx, defaultQuery string, defaultDays int) (forecastQuery, error) {
	req := forecastQuery{Days: defaultDays}
	if err := c.QueryParser(&req); err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, errDaysRange)
	}
	if c.Query("days") == "" {
		req.Days = defaultDays
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		req.Query = defaultQuery
	}
	return req, nil
}

func (q forecastQuery) validate() error {
	if err := validate.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && verrs[0].Field() == "Query" {
			return fiber.NewError(fiber.StatusBadRequest, "Location query parameter is required")
		}
		return fiber.NewError(fiber.StatusBadRequest, errDaysRange)
	}
	return nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Query string    `validate:"required"`
	From  time.Time `validate:"required"`
	To    time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx, defaultLocation string) error {
	h.Query = strings.TrimSpace(c.Query("q"))
	if h.Query == "" {
		h.Query = defaultLocation
	}

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}

// NewErrorHandler returns the centralized fiber error handler. Every error
// leaves the API as {"error": "<message>"}. Errors that are not *fiber.Error
// (panics caught by recover among them) are logged and answered with a
// generic 500 message.
func NewErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{
				"error": fe.Message,
			})
		}

		logger.Error("unhandled request error", "method", c.Method(), "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": internalErrorMessage,
		})
	}
}

const internalErrorMessage = "Internal server error"
