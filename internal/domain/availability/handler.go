package availability

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/agenda/agenda/internal/platform/auth"
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
	read.GET("/availability", h.ListBlocks)
	read.GET("/availability/:id", h.GetBlock)

	write := api.Group("", auth.RequireRole(auth.RolePractitioner))
	write.POST("/availability/declare", h.Declare)
}

type declareRequest struct {
	PractitionerName    string          `json:"practitioner_name"`
	SpecialtyID         uuid.UUID       `json:"specialty_id"`
	Weekday             string          `json:"weekday"`
	StartTime           wallclock.Clock `json:"start_time"`
	EndTime             wallclock.Clock `json:"end_time"`
	SlotDurationMinutes int             `json:"slot_duration_minutes"`
}

func (h *Handler) Declare(c echo.Context) error {
	var req declareRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	b := Block{
		PractitionerName:    req.PractitionerName,
		SpecialtyID:         req.SpecialtyID,
		Weekday:             req.Weekday,
		StartTime:           req.StartTime,
		EndTime:             req.EndTime,
		SlotDurationMinutes: req.SlotDurationMinutes,
	}
	if err := h.svc.Declare(c.Request().Context(), &b); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) GetBlock(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	b, err := h.svc.GetBlock(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) ListBlocks(c echo.Context) error {
	var f Filter
	if v := c.QueryParam("specialty_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid specialty_id")
		}
		f.SpecialtyID = id
	}
	f.Weekday = c.QueryParam("weekday")
	f.PractitionerName = c.QueryParam("practitioner")

	items, err := h.svc.ListBlocks(c.Request().Context(), f)
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*Block{}
	}
	return c.JSON(http.StatusOK, items)
}

func httpError(err error) error {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
	}
}
