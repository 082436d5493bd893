package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alexanderramin/timeledger/internal/service"
)

// Handler exposes the engine over JSON. It holds no business rules.
type Handler struct {
	engine service.Engine
}

func NewHandler(engine service.Engine) *Handler {
	return &Handler{engine: engine}
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, badRequest("invalid_json", "invalid request body"))
		return false
	}
	return true
}

// queryTime parses an RFC 3339 query parameter.
func queryTime(c *gin.Context, name string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, c.Query(name))
	if err != nil {
		writeError(c, badRequest("invalid_"+name, name+" must be an RFC 3339 timestamp"))
		return time.Time{}, false
	}
	return t, true
}

func (h *Handler) IngestTimeSlot(c *gin.Context) {
	var req slotRequest
	if !bindJSON(c, &req) {
		return
	}
	slot, err := h.engine.IngestTimeSlot(c.Request.Context(), actorFrom(c), req.input())
	if err != nil {
		writeError(c, fromError(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"slot": toTimeSlotResponse(slot)})
}

func (h *Handler) BulkIngestTimeSlots(c *gin.Context) {
	var req bulkSlotRequest
	if !bindJSON(c, &req) {
		return
	}
	inputs := make([]service.SlotInput, 0, len(req.Slots))
	for _, s := range req.Slots {
		inputs = append(inputs, s.input())
	}
	slots, err := h.engine.BulkIngestTimeSlots(c.Request.Context(), actorFrom(c), inputs)
	if err != nil {
		writeError(c, fromError(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"slots": toTimeSlotResponses(slots)})
}

func (h *Handler) MergeSlots(c *gin.Context) {
	var req mergeRequest
	if !bindJSON(c, &req) {
		return
	}
	slots, err := h.engine.MergeSlots(c.Request.Context(), actorFrom(c), req.EmployeeID, req.OrganizationID, req.Start, req.End)
	if err != nil {
		writeError(c, fromError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": toTimeSlotResponses(slots)})
}

func (h *Handler) AddManualTime(c *gin.Context) {
	var req manualTimeRequest
	if !bindJSON(c, &req) {
		return
	}
	log, err := h.engine.AddManualTime(c.Request.Context(), actorFrom(c), req.input())
	if err != nil {
		writeError(c, fromError(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"timeLog": toTimeLogResponse(log)})
}

func (h *Handler) UpdateManualTime(c *gin.Context) {
	var req manualTimeRequest
	if !bindJSON(c, &req) {
		return
	}
	log, err := h.engine.UpdateManualTime(c.Request.Context(), actorFrom(c), c.Param("id"), req.input())
	if err != nil {
		writeError(c, fromError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"timeLog": toTimeLogResponse(log)})
}

func (h *Handler) DeleteTimeLogs(c *gin.Context) {
	var req deleteRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.engine.DeleteTimeLogs(c.Request.Context(), actorFrom(c), service.DeleteInput{
		LogIDs:         req.LogIDs,
		EmployeeID:     req.EmployeeID,
		OrganizationID: req.OrganizationID,
		ForceDelete:    req.ForceDelete,
	})
	if err != nil {
		writeError(c, fromError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) StartTimer(c *gin.Context) {
	var req timerRequest
	if !bindJSON(c, &req) {
		return
	}
	log, err := h.engine.StartTimer(c.Request.Context(), actorFrom(c), req.input())
	if err != nil {
		writeError(c, fromError(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"timeLog": toTimeLogResponse(log)})
}

func (h *Handler) StopTimer(c *gin.Context) {
	var req timerRequest
	if !bindJSON(c, &req) {
		return
	}
	log, err := h.engine.StopTimer(c.Request.Context(), actorFrom(c), req.input())
	if err != nil {
		writeError(c, fromError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"timeLog": toTimeLogResponse(log)})
}

func (h *Handler) ListTimeLogs(c *gin.Context) {
	start, ok := queryTime(c, "start")
	if !ok {
		return
	}
	end, ok := queryTime(c, "end")
	if !ok {
		return
	}
	logs, err := h.engine.ListTimeLogs(c.Request.Context(), actorFrom(c), c.Query("employeeId"), start, end)
	if err != nil {
		writeError(c, fromError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"timeLogs": toTimeLogResponses(logs)})
}

func (h *Handler) ListTimeSlots(c *gin.Context) {
	start, ok := queryTime(c, "start")
	if !ok {
		return
	}
	end, ok := queryTime(c, "end")
	if !ok {
		return
	}
	slots, err := h.engine.ListTimeSlots(c.Request.Context(), actorFrom(c), c.Query("employeeId"), start, end)
	if err != nil {
		writeError(c, fromError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": toTimeSlotResponses(slots)})
}

func (h *Handler) CurrentTimesheet(c *gin.Context) {
	at := time.Now().UTC()
	if c.Query("at") != "" {
		var ok bool
		if at, ok = queryTime(c, "at"); !ok {
			return
		}
	}
	ts, err := h.engine.GetTimesheet(c.Request.Context(), actorFrom(c), c.Query("employeeId"), at)
	if err != nil {
		writeError(c, fromError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"timesheet": toTimesheetResponse(ts)})
}
