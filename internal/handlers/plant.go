package handlers

import (
	"errors"
	"net/http"

	"plantsim/internal/sim"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK        = "ok"
	statusStarted   = "started"
	statusStopped   = "stopped"
	statusTriggered = "triggered"

	errStartPlant = "failed to start plant"
	errStopPlant  = "failed to stop plant"
	errGetState   = "failed to load state"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// simErrorStatus maps simulation errors onto HTTP status codes. Rejected
// operations from the engine are conflicts, unknown ids are 404s.
func simErrorStatus(err error) int {
	switch {
	case errors.Is(err, sim.ErrUnknownMachine), errors.Is(err, sim.ErrUnknownBatch):
		return http.StatusNotFound
	case errors.Is(err, sim.ErrEngineNotRunning),
		errors.Is(err, sim.ErrAlreadyRunning),
		errors.Is(err, sim.ErrMachineBlocked),
		errors.Is(err, sim.ErrDependencyUnsatisfied),
		errors.Is(err, sim.ErrStageAlreadyRecorded),
		errors.Is(err, sim.ErrMaterialConservation):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Respond with a status and include the aggregate snapshot (best-effort).
func (h *Handler) respondWithStatusAndState(c *gin.Context, status string, extra gin.H) {
	ctx := c.Request.Context()
	resp := gin.H{"status": status}
	for k, v := range extra {
		resp[k] = v
	}
	snap, err := h.services.Monitoring.Snapshot(ctx)
	if err == nil {
		resp["state"] = snap
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Start the orchestration engine
// @Tags         plant
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, state"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/plant/start [post]
// @Security     BearerAuth
func (h *Handler) startPlant(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.services.Control.Start(ctx); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errStartPlant, "plant_start_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusStarted, gin.H{})
}

// @Summary      Stop the orchestration engine
// @Tags         plant
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/plant/stop [post]
// @Security     BearerAuth
func (h *Handler) stopPlant(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.services.Control.Stop(ctx); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errStopPlant, "plant_stop_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusStopped, gin.H{})
}

// @Summary      Get aggregate plant state
// @Tags         plant
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/plant/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	ctx := c.Request.Context()
	snap, err := h.services.Monitoring.Snapshot(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetState, "plant_get_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary      Get a single machine
// @Tags         machines
// @Produce      json
// @Param        id    path    string  true  "Machine id"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/machines/{id} [get]
// @Security     BearerAuth
func (h *Handler) getMachine(c *gin.Context) {
	ctx := c.Request.Context()
	snap, err := h.services.Monitoring.MachineSnapshot(ctx, c.Param("id"))
	if err != nil {
		h.logAndJSONError(c, simErrorStatus(err), err.Error(), "machine_get_failed", err, "machine", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary      Trigger a machine cycle
// @Description  Rejected with 409 if the engine is stopped, the machine is already running, or its upstream dependencies are not satisfied.
// @Tags         machines
// @Produce      json
// @Param        id    path    string  true  "Machine id"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/machines/{id}/trigger [post]
// @Security     BearerAuth
func (h *Handler) triggerMachine(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if err := h.services.Control.TriggerMachine(ctx, id); err != nil {
		h.logAndJSONError(c, simErrorStatus(err), err.Error(), "machine_trigger_failed", err, "machine", id)
		return
	}
	h.respondWithStatusAndState(c, statusTriggered, gin.H{"machine": id})
}
