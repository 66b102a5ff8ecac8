package handlers

import (
	"net/http"

	"plantsim/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusAdvanced = "advanced"
	statusRetried  = "retried"
)

// Request DTO for recording a stage outcome.
type stageRequest struct {
	Passed      *bool   `json:"passed" binding:"required"`
	QtyConsumed float64 `json:"qty_consumed"`
	QtyProduced float64 `json:"qty_produced"`
}

// StageOutcomeRequest is an exported model for Swagger docs of the stage payload.
type StageOutcomeRequest struct {
	// Quality gate result for the stage
	Passed bool `json:"passed" example:"true"`
	// Material units consumed by the stage
	QtyConsumed float64 `json:"qty_consumed" example:"10"`
	// Material units produced by the stage
	QtyProduced float64 `json:"qty_produced" example:"9"`
}

// @Summary      Get a batch
// @Tags         batches
// @Produce      json
// @Param        id    path    string  true  "Batch id"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/batches/{id} [get]
// @Security     BearerAuth
func (h *Handler) getBatch(c *gin.Context) {
	ctx := c.Request.Context()
	snap, err := h.services.Batches.Get(ctx, c.Param("id"))
	if err != nil {
		h.logAndJSONError(c, simErrorStatus(err), err.Error(), "batch_get_failed", err, "batch", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary      Record a batch stage outcome
// @Description  Records quality-gate result and material quantities for the stage at the given machine. A conservation violation or a failed quality gate blocks the batch (409).
// @Tags         batches
// @Accept       json
// @Produce      json
// @Param        id       path    string              true  "Batch id"
// @Param        machine  path    string              true  "Machine id of the stage"
// @Param        body     body    StageOutcomeRequest true  "Stage outcome"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/batches/{id}/stages/{machine} [post]
// @Security     BearerAuth
func (h *Handler) advanceStage(c *gin.Context) {
	var req stageRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	ctx := c.Request.Context()
	batchID, machineID := c.Param("id"), c.Param("machine")
	params := service.StageParams{
		Passed:      *req.Passed,
		QtyConsumed: req.QtyConsumed,
		QtyProduced: req.QtyProduced,
	}
	if err := h.services.Batches.AdvanceStage(ctx, batchID, machineID, params); err != nil {
		h.logAndJSONError(c, simErrorStatus(err), err.Error(), "batch_advance_failed", err,
			"batch", batchID, "machine", machineID)
		return
	}
	h.respondWithStatusAndState(c, statusAdvanced, gin.H{"batch": batchID, "machine": machineID})
}

// @Summary      Retry a failed batch stage
// @Description  Clears a failed quality gate back to pending and reactivates the batch.
// @Tags         batches
// @Produce      json
// @Param        id       path    string  true  "Batch id"
// @Param        machine  path    string  true  "Machine id of the stage"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/batches/{id}/stages/{machine}/retry [post]
// @Security     BearerAuth
func (h *Handler) retryStage(c *gin.Context) {
	ctx := c.Request.Context()
	batchID, machineID := c.Param("id"), c.Param("machine")
	if err := h.services.Batches.RetryStage(ctx, batchID, machineID); err != nil {
		h.logAndJSONError(c, simErrorStatus(err), err.Error(), "batch_retry_failed", err,
			"batch", batchID, "machine", machineID)
		return
	}
	h.respondWithStatusAndState(c, statusRetried, gin.H{"batch": batchID, "machine": machineID})
}
