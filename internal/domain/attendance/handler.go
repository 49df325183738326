package attendance

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/agenda/agenda/internal/domain/booking"
	"github.com/agenda/agenda/internal/platform/auth"
	"github.com/agenda/agenda/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleReceptionist, auth.RolePractitioner))
	read.GET("/visits", h.ListVisits)
	read.GET("/visits/:id", h.GetVisit)

	write := api.Group("", auth.RequireRole(auth.RolePractitioner))
	write.POST("/visits", h.RecordVisit)
}

type recordRequest struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	Notes         string    `json:"notes"`
}

func (h *Handler) RecordVisit(c echo.Context) error {
	var req recordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	v, err := h.svc.Record(c.Request().Context(), req.ReservationID, req.Notes)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) GetVisit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	v, err := h.svc.GetVisit(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) ListVisits(c echo.Context) error {
	rf, err := booking.FilterFromQuery(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListVisits(c.Request().Context(), Filter{
		DateFrom:    rf.DateFrom,
		DateTo:      rf.DateTo,
		PatientName: rf.PatientName,
	}, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*VisitRecord{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg).
		WithLinks(c.Request().URL.Path, c.QueryParams()))
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrReservationMissing), errors.Is(err, ErrUnknownReservation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrAlreadyRecorded):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
	}
}
