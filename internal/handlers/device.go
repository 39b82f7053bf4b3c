package handlers

import (
	"net/http"

	"gsj_gateway/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response constants.
const (
	statusOK = "ok"
)

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, session"
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  statusOK,
		"session": h.services.Session.Status().Active,
	})
}

// @Summary      Read telemetry
// @Description  Reads the device parameters from the portal. Missing values are reported as 0.
// @Tags         device
// @Produce      json
// @Success      200  {object}  models.Reading
// @Failure      502  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /sensors [get]
func (h *Handler) sensors(c *gin.Context) {
	r, err := h.services.Device.Sensors(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, "sensors_failed", err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// @Summary      Switch a circuit on or off
// @Tags         device
// @Produce      json
// @Param        state  path  int  true  "0 or 1"  Enums(0,1)
// @Success      200  {object}  map[string]int  "co_status or cwu_status"
// @Failure      400  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /set/co/{state} [post]
// @Router       /set/cwu/{state} [post]
// @Security     BearerAuth
func (h *Handler) setMode(circuit service.Circuit) gin.HandlerFunc {
	field := string(circuit) + "_status"
	return func(c *gin.Context) {
		state, err := service.ParseState(c.Param("state"))
		if err != nil {
			h.logAndJSONError(c, "set_mode_rejected", err, "circuit", circuit)
			return
		}
		if err := h.services.Device.SetMode(c.Request.Context(), circuit, state); err != nil {
			h.logAndJSONError(c, "set_mode_failed", err, "circuit", circuit, "state", state)
			return
		}
		c.JSON(http.StatusOK, gin.H{field: state})
	}
}

// @Summary      Set a circuit's target temperature
// @Tags         device
// @Produce      json
// @Param        value  path  number  true  "Setpoint in °C"
// @Success      200  {object}  map[string]number  "co_zadana or cwu_zadana"
// @Failure      400  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /set/temperature/co/{value} [post]
// @Router       /set/temperature/cwu/{value} [post]
// @Security     BearerAuth
func (h *Handler) setSetpoint(circuit service.Circuit) gin.HandlerFunc {
	field := string(circuit) + "_zadana"
	return func(c *gin.Context) {
		value, err := service.ParseSetpoint(c.Param("value"))
		if err != nil {
			h.logAndJSONError(c, "set_setpoint_rejected", err, "circuit", circuit)
			return
		}
		if err := h.services.Device.SetSetpoint(c.Request.Context(), circuit, value); err != nil {
			h.logAndJSONError(c, "set_setpoint_failed", err, "circuit", circuit, "value", value)
			return
		}
		c.JSON(http.StatusOK, gin.H{field: value})
	}
}
