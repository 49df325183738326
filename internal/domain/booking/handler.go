package booking

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/agenda/agenda/internal/platform/auth"
	"github.com/agenda/agenda/pkg/pagination"
	"github.com/agenda/agenda/pkg/wallclock"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleReceptionist, auth.RolePractitioner))
	read.POST("/availability", h.QuerySlots)
	read.GET("/slots", h.GetSlots)
	read.GET("/reservations", h.ListReservations)
	read.GET("/reservations/:id", h.GetReservation)

	write := api.Group("", auth.RequireRole(auth.RoleReceptionist))
	write.POST("/reservations", h.CreateReservation)
}

type slotQueryRequest struct {
	Date         string    `json:"date"`
	SpecialtyID  uuid.UUID `json:"specialty_id"`
	Practitioner string    `json:"practitioner"`
}

type reservationRequest struct {
	PatientName string    `json:"patient_name"`
	SpecialtyID uuid.UUID `json:"specialty_id"`
	InsurerID   uuid.UUID `json:"insurer_id"`
	DateTime    string    `json:"date_time"`
}

// QuerySlots resolves slots from a JSON body.
func (h *Handler) QuerySlots(c echo.Context) error {
	var req slotQueryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return h.respondSlots(c, req)
}

// GetSlots resolves slots from query parameters.
func (h *Handler) GetSlots(c echo.Context) error {
	req := slotQueryRequest{
		Date:         c.QueryParam("date"),
		Practitioner: c.QueryParam("practitioner"),
	}
	if v := c.QueryParam("specialty_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid specialty_id")
		}
		req.SpecialtyID = id
	}
	return h.respondSlots(c, req)
}

func (h *Handler) respondSlots(c echo.Context, req slotQueryRequest) error {
	date, err := wallclock.ParseDate(req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	slots, err := h.svc.GenerateSlots(c.Request().Context(), SlotQuery{
		Date:         date,
		SpecialtyID:  req.SpecialtyID,
		Practitioner: strings.TrimSpace(req.Practitioner),
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, slots)
}

func (h *Handler) CreateReservation(c echo.Context) error {
	var req reservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	dt, err := wallclock.ParseDateTime(req.DateTime)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.CreateReservation(c.Request().Context(), ReservationRequest{
		PatientName: req.PatientName,
		SpecialtyID: req.SpecialtyID,
		InsurerID:   req.InsurerID,
		DateTime:    dt,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) GetReservation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	res, err := h.svc.GetReservation(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) ListReservations(c echo.Context) error {
	f, err := FilterFromQuery(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListReservations(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*Reservation{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg).
		WithLinks(c.Request().URL.Path, c.QueryParams()))
}

// FilterFromQuery reads date_from, date_to and patient. A bare date in
// either bound means midnight of that day.
func FilterFromQuery(c echo.Context) (ReservationFilter, error) {
	var f ReservationFilter
	if v := c.QueryParam("date_from"); v != "" {
		dt, err := wallclock.ParseDateTime(v)
		if err != nil {
			return f, err
		}
		f.DateFrom = &dt
	}
	if v := c.QueryParam("date_to"); v != "" {
		dt, err := wallclock.ParseDateTime(v)
		if err != nil {
			return f, err
		}
		f.DateTo = &dt
	}
	f.PatientName = strings.TrimSpace(c.QueryParam("patient"))
	return f, nil
}

func httpError(err error) error {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
	case errors.Is(err, ErrInvalidSlot):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrLockTimeout):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
	}
}
