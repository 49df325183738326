package registry

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/agenda/agenda/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "receptionist", "practitioner"))
	readGroup.GET("/specialties", h.ListSpecialties)
	readGroup.GET("/specialties/:id", h.GetSpecialty)
	readGroup.GET("/insurers", h.ListInsurers)
	readGroup.GET("/insurers/:id", h.GetInsurer)

	writeGroup := api.Group("", auth.RequireRole("admin"))
	writeGroup.POST("/specialties", h.CreateSpecialty)
	writeGroup.POST("/insurers", h.CreateInsurer)
}

type nameRequest struct {
	Name string `json:"name"`
}

// -- Specialty Handlers --

func (h *Handler) CreateSpecialty(c echo.Context) error {
	var req nameRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sp := Specialty{Name: req.Name}
	if err := h.svc.CreateSpecialty(c.Request().Context(), &sp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, sp)
}

func (h *Handler) GetSpecialty(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	sp, err := h.svc.GetSpecialty(c.Request().Context(), id)
	if err != nil {
		return notFoundOr500(err, "specialty not found")
	}
	return c.JSON(http.StatusOK, sp)
}

func (h *Handler) ListSpecialties(c echo.Context) error {
	items, err := h.svc.ListSpecialties(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
	}
	if items == nil {
		items = []*Specialty{}
	}
	return c.JSON(http.StatusOK, items)
}

// -- Insurer Handlers --

func (h *Handler) CreateInsurer(c echo.Context) error {
	var req nameRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	in := Insurer{Name: req.Name}
	if err := h.svc.CreateInsurer(c.Request().Context(), &in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, in)
}

func (h *Handler) GetInsurer(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	in, err := h.svc.GetInsurer(c.Request().Context(), id)
	if err != nil {
		return notFoundOr500(err, "insurer not found")
	}
	return c.JSON(http.StatusOK, in)
}

func (h *Handler) ListInsurers(c echo.Context) error {
	items, err := h.svc.ListInsurers(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
	}
	if items == nil {
		items = []*Insurer{}
	}
	return c.JSON(http.StatusOK, items)
}

func notFoundOr500(err error, msg string) error {
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, msg)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
}
