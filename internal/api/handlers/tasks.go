package handlers

import (
	"net/http"
	"parcel-pricing-service/internal/api/dto"
	"parcel-pricing-service/internal/ports"
	"parcel-pricing-service/internal/worker"
	"strings"

	"go.uber.org/zap"
)

// TaskHandler dispatches background tasks and reports their state.
type TaskHandler struct {
	Queue    ports.TaskQueue
	Statuses ports.TaskStatusStore
	Log      *zap.Logger
}

func (h *TaskHandler) RecomputePrices(w http.ResponseWriter, r *http.Request) {
	id, err := h.Queue.Send(r.Context(), worker.TaskRecomputeDeliveryPrices, nil, "")
	if err != nil {
		writeServiceError(h.Log, w, r, err)
		return
	}

	requestLogger(h.Log, r).Info("price recomputation requested", zap.String("task_id", id))
	writeJSON(h.Log, w, r, http.StatusAccepted, dto.TaskAcceptedResponse{TaskID: id})
}

func (h *TaskHandler) Ping(w http.ResponseWriter, r *http.Request) {
	var req dto.PingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(h.Log, w, r, err)
		return
	}

	id, err := h.Queue.Send(r.Context(), worker.TaskPing, map[string]string{"session_id": req.SessionID}, "")
	if err != nil {
		writeServiceError(h.Log, w, r, err)
		return
	}
	writeJSON(h.Log, w, r, http.StatusAccepted, dto.TaskAcceptedResponse{TaskID: id})
}

func (h *TaskHandler) Status(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))

	st, err := h.Statuses.GetStatus(r.Context(), id)
	if err != nil {
		writeServiceError(h.Log, w, r, err)
		return
	}

	res := dto.TaskStatusResponse{
		TaskID: st.TaskID,
		Name:   st.Name,
		State:  st.State,
		Result: st.Result,
		Error:  st.Error,
	}
	if !st.UpdatedAt.IsZero() {
		res.UpdatedAt = &st.UpdatedAt
	}
	writeJSON(h.Log, w, r, http.StatusOK, res)
}
