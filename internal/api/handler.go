// Package api exposes the report surface over HTTP: range aggregation,
// availability, overtime series and external performance reconciliation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/laurensOost/925r/internal/models"
	"github.com/laurensOost/925r/internal/service/availability"
	"github.com/laurensOost/925r/internal/service/calculation"
	"github.com/laurensOost/925r/internal/service/overtime"
	"github.com/laurensOost/925r/internal/service/reconciler"
	"github.com/laurensOost/925r/pkg/logger"
)

// CalculationService interface for range aggregation.
type CalculationService interface {
	GetRangeInfo(ctx context.Context, userIDs []uint, from, until time.Time, opts calculation.Options) (map[uint]*calculation.RangeInfo, error)
}

// AvailabilityService interface for availability views.
type AvailabilityService interface {
	GetAvailabilityInfo(ctx context.Context, userIDs []uint, from, until time.Time) (map[uint]map[string]*availability.DayAvailability, error)
	GetInternalAvailabilityInfo(ctx context.Context, userIDs []uint, date time.Time) (map[uint]*availability.InternalAvailability, error)
}

// OvertimeService interface for overtime series.
type OvertimeService interface {
	GetOvertimeSeries(ctx context.Context, userID uint, from, until time.Time) ([]overtime.MonthlyOvertime, error)
}

// ReconcilerService interface for external performance operations.
type ReconcilerService interface {
	GetUserExternalPerformances(ctx context.Context, userID uint, from, until time.Time) ([]reconciler.PerformanceCandidate, error)
	ImportUserPerformances(ctx context.Context, userID uint, from, until time.Time) (int, error)
}

// HealthChecker interface for readiness checks.
type HealthChecker interface {
	Health() error
}

// Handler handles report API requests.
type Handler struct {
	calculationService  CalculationService
	availabilityService AvailabilityService
	overtimeService     OvertimeService
	reconcilerService   ReconcilerService
	health              HealthChecker
	log                 *logger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(
	calculationService *calculation.Service,
	availabilityService *availability.Service,
	overtimeService *overtime.Service,
	reconcilerService *reconciler.Service,
	health HealthChecker,
	log *logger.Logger,
) *Handler {
	return NewHandlerWithInterfaces(calculationService, availabilityService, overtimeService, reconcilerService, health, log)
}

// NewHandlerWithInterfaces creates a new API handler with interface
// dependencies (useful for testing).
func NewHandlerWithInterfaces(
	calculationService CalculationService,
	availabilityService AvailabilityService,
	overtimeService OvertimeService,
	reconcilerService ReconcilerService,
	health HealthChecker,
	log *logger.Logger,
) *Handler {
	return &Handler{
		calculationService:  calculationService,
		availabilityService: availabilityService,
		overtimeService:     overtimeService,
		reconcilerService:   reconcilerService,
		health:              health,
		log:                 log,
	}
}

// GetRangeInfo returns per-user aggregates for a date range.
// GET /api/v1/range_info?user_ids=1,2&from=2024-05-01&until=2024-05-31&daily=true&detailed=false&summary=true.
func (h *Handler) GetRangeInfo(c *gin.Context) {
	userIDs, err := h.parseUserIDs(c.Query("user_ids"))
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	from, until, err := h.parseRange(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	opts := calculation.Options{
		Daily:    h.parseBool(c, "daily"),
		Detailed: h.parseBool(c, "detailed"),
		Summary:  h.parseBool(c, "summary"),
	}

	infos, err := h.calculationService.GetRangeInfo(c.Request.Context(), userIDs, from, until, opts)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute range info")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to compute range info")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": infos,
		"from":    from.Format(models.ISODate),
		"until":   until.Format(models.ISODate),
	})
}

// GetAvailability returns tagged days for a set of users.
// GET /api/v1/availability?user_ids=1,2&from=2024-05-01&until=2024-05-31.
func (h *Handler) GetAvailability(c *gin.Context) {
	userIDs, err := h.parseUserIDs(c.Query("user_ids"))
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	from, until, err := h.parseRange(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.availabilityService.GetAvailabilityInfo(c.Request.Context(), userIDs, from, until)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute availability")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to compute availability")
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": result})
}

// GetInternalAvailability returns slack for internal work on one day.
// GET /api/v1/availability/internal?user_ids=1,2&date=2024-05-06.
func (h *Handler) GetInternalAvailability(c *gin.Context) {
	userIDs, err := h.parseUserIDs(c.Query("user_ids"))
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	date, err := h.parseDate(c, "date")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.availabilityService.GetInternalAvailabilityInfo(c.Request.Context(), userIDs, date)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute internal availability")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to compute internal availability")
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": result, "date": date.Format(models.ISODate)})
}

// GetOvertimeSeries returns the monthly overtime balance series for a user.
// GET /api/v1/users/:id/overtime?from=2024-01-01&until=2024-06-30.
// An omitted `from` starts the fold at the user's first employment contract.
func (h *Handler) GetOvertimeSeries(c *gin.Context) {
	userID, err := h.parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var from time.Time
	if c.Query("from") != "" {
		if from, err = h.parseDate(c, "from"); err != nil {
			h.errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	until, err := h.parseDate(c, "until")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	series, err := h.overtimeService.GetOvertimeSeries(c.Request.Context(), userID, from, until)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to compute overtime series")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to compute overtime series")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "series": series})
}

// GetExternalPerformances returns attributed Redmine time entries for a user.
// GET /api/v1/users/:id/redmine/performances?from=2024-05-01&until=2024-05-31.
func (h *Handler) GetExternalPerformances(c *gin.Context) {
	userID, err := h.parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	from, until, err := h.parseRange(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	candidates, err := h.reconcilerService.GetUserExternalPerformances(c.Request.Context(), userID, from, until)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to fetch external performances")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to fetch external performances")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "performances": candidates})
}

// ImportExternalPerformances imports a user's Redmine time entries.
// POST /api/v1/users/:id/redmine/import?from=2024-05-01&until=2024-05-31.
func (h *Handler) ImportExternalPerformances(c *gin.Context) {
	userID, err := h.parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	from, until, err := h.parseRange(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	imported, err := h.reconcilerService.ImportUserPerformances(c.Request.Context(), userID, from, until)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to import external performances")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to import external performances")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "imported": imported})
}

// Health reports service readiness.
// GET /health.
func (h *Handler) Health(c *gin.Context) {
	if err := h.health.Health(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func (h *Handler) parseBool(c *gin.Context, name string) bool {
	value, _ := strconv.ParseBool(c.DefaultQuery(name, "false"))
	return value
}

func (h *Handler) parseUserIDs(raw string) ([]uint, error) {
	if raw == "" {
		return nil, fmt.Errorf("user_ids parameter is required")
	}
	parts := strings.Split(raw, ",")
	userIDs := make([]uint, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q", part)
		}
		userIDs = append(userIDs, uint(id))
	}
	return userIDs, nil
}

func (h *Handler) parseUserID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user id %q", c.Param("id"))
	}
	return uint(id), nil
}

func (h *Handler) parseDate(c *gin.Context, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%s parameter is required", name)
	}
	date, err := time.ParseInLocation(models.ISODate, raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s date %q, expected YYYY-MM-DD", name, raw)
	}
	return date, nil
}

func (h *Handler) parseRange(c *gin.Context) (time.Time, time.Time, error) {
	from, err := h.parseDate(c, "from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	until, err := h.parseDate(c, "until")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if until.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("until must not be before from")
	}
	return from, until, nil
}
