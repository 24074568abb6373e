package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/codify/internal/domain/forecast"
	"github.com/yanqian/codify/internal/domain/recommendation"
	"github.com/yanqian/codify/internal/domain/region"
	apperrors "github.com/yanqian/codify/pkg/errors"
	"github.com/yanqian/codify/pkg/util"
)

// RegionResolver maps place text and coordinates to forecast regions.
type RegionResolver interface {
	ResolveWithAnswer(text, answer string) region.Region
	Locate(lat, lon float64) region.Placement
	RegionFor(loc region.Location) region.Region
}

// WeatherService serves daily forecasts.
type WeatherService interface {
	Daily(ctx context.Context, place forecast.Place, target time.Time) forecast.Daily
	Today() time.Time
}

// WeatherRefresher runs the bulk warm-up on demand.
type WeatherRefresher interface {
	RefreshAll(ctx context.Context, targets []forecast.Target, today time.Time) (forecast.RefreshSummary, error)
}

// Handler wires the HTTP transport to domain services.
type Handler struct {
	recommender recommendation.Service
	resolver    RegionResolver
	weather     WeatherService
	refresher   WeatherRefresher
	targets     []forecast.Target
	logger      *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(recommender recommendation.Service, resolver RegionResolver, weather WeatherService, refresher WeatherRefresher, targets []forecast.Target, logger *slog.Logger) *Handler {
	return &Handler{
		recommender: recommender,
		resolver:    resolver,
		weather:     weather,
		refresher:   refresher,
		targets:     targets,
		logger:      logger.With("component", "http.handler"),
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Recommend returns outfit recommendations for the caller's wardrobe.
func (h *Handler) Recommend(c *gin.Context) {
	var req recommendation.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	userID, ok := callerID(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "user id missing", nil))
		return
	}
	req.UserID = userID

	resp, err := h.recommender.Recommend(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromDomainError(err, "recommendation_failed"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ResolveRegion resolves free text to a forecast region.
func (h *Handler) ResolveRegion(c *gin.Context) {
	text := strings.TrimSpace(c.Query("q"))
	if text == "" {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "q is required", nil))
		return
	}
	c.JSON(http.StatusOK, h.resolver.ResolveWithAnswer(text, c.Query("answer")))
}

// DailyWeather returns the daily forecast for a region or coordinate.
func (h *Handler) DailyWeather(c *gin.Context) {
	target := h.weather.Today()
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		parsed, err := util.ParseDate(raw, util.KST)
		if err != nil {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "date must be formatted as YYYY-MM-DD", err))
			return
		}
		target = parsed
	}

	var (
		place forecast.Place
		reg   region.Region
	)
	switch lat, lon, hasCoords, err := coordinates(c); {
	case err != nil:
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	case hasCoords:
		placement := h.resolver.Locate(lat, lon)
		if placement.Swapped {
			h.logger.Warn("latitude and longitude look transposed, swapping", "lat", lat, "lon", lon)
		}
		reg = h.resolver.RegionFor(placement.Nearest)
		place = forecast.PlaceForPlacement(placement, reg)
	default:
		text := strings.TrimSpace(c.Query("region"))
		if text == "" {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "region or lat/lon is required", nil))
			return
		}
		reg = h.resolver.ResolveWithAnswer(text, c.Query("answer"))
		if reg.NeedsDisambiguation || reg.Unsupported {
			c.JSON(http.StatusOK, gin.H{"region": reg})
			return
		}
		place = forecast.PlaceForRegion(reg)
	}

	daily := h.weather.Daily(c.Request.Context(), place, target)
	c.JSON(http.StatusOK, gin.H{"region": reg, "date": target.Format("2006-01-02"), "weather": daily})
}

// RefreshWeather runs the warm-up immediately.
func (h *Handler) RefreshWeather(c *gin.Context) {
	if h.refresher == nil {
		abortWithError(c, NewHTTPError(http.StatusServiceUnavailable, apperrors.CodeWeatherError, "weather refresh is not configured", nil))
		return
	}
	summary, err := h.refresher.RefreshAll(c.Request.Context(), h.targets, h.weather.Today())
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, apperrors.CodeWeatherError, "weather refresh failed", err))
		return
	}
	c.JSON(http.StatusOK, summary)
}

func coordinates(c *gin.Context) (float64, float64, bool, error) {
	rawLat, rawLon := strings.TrimSpace(c.Query("lat")), strings.TrimSpace(c.Query("lon"))
	if rawLat == "" && rawLon == "" {
		return 0, 0, false, nil
	}
	if rawLat == "" || rawLon == "" {
		return 0, 0, false, apperrors.Wrap(apperrors.CodeInvalidInput, "lat and lon must be provided together", nil)
	}
	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return 0, 0, false, apperrors.Wrap(apperrors.CodeInvalidInput, "lat must be a number", err)
	}
	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil {
		return 0, 0, false, apperrors.Wrap(apperrors.CodeInvalidInput, "lon must be a number", err)
	}
	return lat, lon, true, nil
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
