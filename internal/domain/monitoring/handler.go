package monitoring

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vitalwatch/vitalwatch/internal/platform/auth"
	"github.com/vitalwatch/vitalwatch/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Read endpoints – clinical staff
	readGroup := api.Group("", auth.RequireRole("admin", "physician", "nurse"))
	readGroup.GET("/patients/:patientId/readings", h.ListReadings)
	readGroup.GET("/patients/:patientId/alerts", h.ListAlerts)
	readGroup.GET("/patients/:patientId/monitoring/summary", h.GetSummary)
	readGroup.GET("/patients/:patientId/monitoring/calibration", h.GetCalibration)

	// Reading submission – clinical staff plus device integrations
	ingestGroup := api.Group("", auth.RequireRole("admin", "physician", "nurse", "care_device"))
	ingestGroup.POST("/patients/:patientId/readings", h.CreateReading)

	// Alert resolution – human reviewers only
	resolveGroup := api.Group("", auth.RequireRole("admin", "physician", "nurse"))
	resolveGroup.POST("/alerts/:id/resolve", h.ResolveAlert)
}

// processReadingResponse is the submission payload: the fused result plus
// the transient early-warning signs and a back-reference to the stored row.
type processReadingResponse struct {
	ReadingID     uuid.UUID          `json:"reading_id"`
	Result        *MonitoringResult  `json:"result"`
	EarlyWarnings []EarlyWarningSign `json:"early_warnings"`
}

func (h *Handler) CreateReading(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	var r BiometricReading
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.svc.ProcessReading(c.Request().Context(), patientID, &r)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return echo.NewHTTPError(http.StatusBadRequest, verr.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, processReadingResponse{
		ReadingID:     r.ID,
		Result:        result,
		EarlyWarnings: EarlyWarnings(result.Anomalies, &r),
	})
}

func (h *Handler) ListReadings(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	p := pagination.FromContext(c)
	items, total, err := h.svc.readings.ListByPatient(c.Request().Context(), patientID, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) ListAlerts(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	var resolved *bool
	if raw := c.QueryParam("resolved"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "resolved must be a boolean")
		}
		resolved = &b
	}

	p := pagination.FromContext(c)
	items, total, err := h.svc.alerts.ListByPatient(c.Request().Context(), patientID, resolved, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) GetSummary(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	summary, err := h.svc.Summary(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) GetCalibration(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	cal, err := h.svc.CalibrationStatus(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, cal)
}

func (h *Handler) ResolveAlert(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid alert id")
	}
	if _, err := h.svc.alerts.GetByID(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "alert not found")
	}
	if err := h.svc.alerts.Resolve(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
