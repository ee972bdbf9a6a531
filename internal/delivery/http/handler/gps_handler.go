package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	domainGPS "cargo-tracker/internal/domain/gps"
	"cargo-tracker/internal/ingestion"
	usecaseGPS "cargo-tracker/internal/usecase/gps"
	appErrors "cargo-tracker/pkg/errors"
	"cargo-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
)

const wsPath = "/gps-ws"

type GPSHandler struct {
	service     *usecaseGPS.Service
	publicWSURL string
}

// NewGPSHandler creates the GPS handler. publicWSURL, when set, is returned
// to registering devices instead of a URL derived from the request.
func NewGPSHandler(service *usecaseGPS.Service, publicWSURL string) *GPSHandler {
	return &GPSHandler{service: service, publicWSURL: publicWSURL}
}

func (h *GPSHandler) RegisterRoutes(router *gin.RouterGroup) {
	gps := router.Group("/gps")
	{
		// Device routes
		gps.POST("/register", h.RegisterDevice)
		gps.POST("/location", h.ReportLocation)

		// Read routes
		gps.GET("/devices", h.ListDevices)
		gps.GET("/devices/:deviceId", h.GetDevice)
		gps.GET("/tracking/:bookingId", h.GetTracking)
	}
}

// RegisterOperatorRoutes mounts the routes that change bindings or reach devices.
func (h *GPSHandler) RegisterOperatorRoutes(router *gin.RouterGroup) {
	gps := router.Group("/gps")
	{
		gps.POST("/assign", h.AssignBooking)
		gps.POST("/command", h.SendCommand)
	}
}

func (h *GPSHandler) RegisterDevice(c *gin.Context) {
	var req ingestion.RegisterMessage
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	device, err := h.service.RegisterDevice(&req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	utils.MessageResponse(c, http.StatusOK, "Device registered successfully", gin.H{
		"device":       device,
		"websocketUrl": h.websocketURL(c),
	})
}

func (h *GPSHandler) ReportLocation(c *gin.Context) {
	var loc domainGPS.Location
	if err := c.ShouldBindJSON(&loc); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.ReportLocation(c.Request.Context(), &loc); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"timestamp": time.Now().UTC(),
	})
}

func (h *GPSHandler) ListDevices(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.ListDevices())
}

func (h *GPSHandler) GetDevice(c *gin.Context) {
	device, err := h.service.GetDevice(c.Request.Context(), c.Param("deviceId"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, device)
}

func (h *GPSHandler) AssignBooking(c *gin.Context) {
	var req usecaseGPS.AssignBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	device, err := h.service.AssignBooking(&req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	utils.MessageResponse(c, http.StatusOK, "Device assigned to booking", gin.H{
		"device": device,
	})
}

func (h *GPSHandler) SendCommand(c *gin.Context) {
	var req usecaseGPS.SendCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.SendCommand(&req); err != nil {
		h.handleError(c, err)
		return
	}

	utils.MessageResponse(c, http.StatusOK, "Command sent successfully", nil)
}

func (h *GPSHandler) GetTracking(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("bookingId"), 10, 64)
	if err != nil || bookingID <= 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid booking ID")
		return
	}

	tracking, err := h.service.GetTracking(c.Request.Context(), bookingID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, tracking)
}

// Health reports store reachability and registry counts.
func (h *GPSHandler) Health(c *gin.Context) {
	resp := h.service.Health(c.Request.Context())

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

func (h *GPSHandler) websocketURL(c *gin.Context) string {
	if h.publicWSURL != "" {
		return h.publicWSURL
	}

	scheme := "ws"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "wss"
	}
	return scheme + "://" + c.Request.Host + wsPath
}

func (h *GPSHandler) handleError(c *gin.Context, err error) {
	var verr *domainGPS.ValidationError
	var appErr *appErrors.AppError

	switch {
	case errors.As(err, &verr):
		utils.ErrorResponse(c, http.StatusBadRequest, verr.Error())
	case errors.As(err, &appErr):
		utils.ErrorResponse(c, http.StatusBadRequest, appErr.Message)
	case errors.Is(err, domainGPS.ErrUnknownDevice):
		utils.ErrorResponse(c, http.StatusNotFound, "Device not found")
	case errors.Is(err, domainGPS.ErrNotConnected):
		utils.ErrorResponse(c, http.StatusNotFound, "Device not connected")
	case errors.Is(err, domainGPS.ErrTrackingNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "Tracking not found")
	case errors.Is(err, domainGPS.ErrHandleUnavailable):
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Device connection unavailable")
	default:
		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error")
	}
}
