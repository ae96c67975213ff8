package mentalgenerals

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/patients/:patient_id/mental-generals")
	g.POST("", h.Create)
	g.GET("", h.Get)
	g.PATCH("", h.Update)
	g.DELETE("", h.Delete)
}

// httpError translates domain errors into HTTP status codes.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrDuplicateRecord):
		return echo.NewHTTPError(http.StatusConflict, "mental generals already recorded for this patient")
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "mental generals not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
	}
}

func pathPatient(c echo.Context) (uuid.UUID, error) {
	return ParsePatientID(c.Param("patient_id"))
}

func readBody(c echo.Context) ([]byte, error) {
	if c.Request().Body == nil {
		return nil, nil
	}
	return io.ReadAll(c.Request().Body)
}

func (h *Handler) Create(c echo.Context) error {
	patientID, err := pathPatient(c)
	if err != nil {
		return httpError(err)
	}
	body, err := readBody(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	in, err := DecodeCreate(body)
	if err != nil {
		return httpError(err)
	}
	if in.PatientRef != nil {
		ref, err := ParsePatientID(*in.PatientRef)
		if err != nil {
			return httpError(err)
		}
		if ref != patientID {
			return echo.NewHTTPError(http.StatusBadRequest, "patientRef does not match the patient in the path")
		}
	}

	m, err := h.svc.Create(c.Request().Context(), patientID, in.Fields)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) Get(c echo.Context) error {
	patientID, err := pathPatient(c)
	if err != nil {
		return httpError(err)
	}
	m, found, err := h.svc.FindByPatient(c.Request().Context(), patientID)
	if err != nil {
		return httpError(err)
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "mental generals not found")
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) Update(c echo.Context) error {
	patientID, err := pathPatient(c)
	if err != nil {
		return httpError(err)
	}
	body, err := readBody(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	patch, err := DecodePatch(body)
	if err != nil {
		return httpError(err)
	}
	m, err := h.svc.Update(c.Request().Context(), patientID, patch)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) Delete(c echo.Context) error {
	patientID, err := pathPatient(c)
	if err != nil {
		return httpError(err)
	}
	if err := h.svc.Delete(c.Request().Context(), patientID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
