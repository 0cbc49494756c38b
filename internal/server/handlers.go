package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seongmin-dev/welfare-report/internal/common"
	"github.com/seongmin-dev/welfare-report/internal/entity"
	"github.com/seongmin-dev/welfare-report/internal/repository"
	"github.com/seongmin-dev/welfare-report/internal/tasks"
)

// Handler serves the report API: submissions, status reads and the latest
// persisted report.
type Handler struct {
	Dispatcher *tasks.Dispatcher
	Reports    repository.ReportRepository
	Log        *slog.Logger
}

type submitRequest struct {
	UserID string `json:"user_id"`
}

type submitResponse struct {
	Success bool   `json:"success"`
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type statusResponse struct {
	TaskID      string     `json:"task_id"`
	UserID      string     `json:"user_id"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       *string    `json:"error,omitempty"`
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}

	result, err := h.Dispatcher.Submit(r.Context(), req.UserID)
	if err != nil {
		if errors.Is(err, common.ErrEnqueue) {
			h.Log.Error("api.submit.enqueue_failed", "user_id", req.UserID, "error", err)
			writeJSON(w, http.StatusBadGateway, submitResponse{
				Success: false,
				Error:   "ENQUEUE_FAILED",
			})
			return
		}
		h.Log.Error("api.submit.failed", "user_id", req.UserID, "error", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	if result.Duplicate {
		writeJSON(w, http.StatusConflict, submitResponse{
			Success: false,
			Error:   "DUPLICATE_REQUEST",
			TaskID:  result.Task.ID,
			Status:  string(result.Task.Status),
		})
		return
	}

	writeJSON(w, http.StatusAccepted, submitResponse{
		Success: true,
		TaskID:  result.Task.ID,
		Status:  string(result.Task.Status),
		Message: "report generation queued",
	})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	task, err := h.Dispatcher.GetStatus(r.Context(), taskID)
	if err != nil {
		h.Log.Error("api.status.failed", "task_id", taskID, "error", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if task == nil {
		http.Error(w, "task not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toStatusResponse(task))
}

// LatestRequest returns the user's most recent task regardless of status.
func (h *Handler) LatestRequest(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	task, err := h.Dispatcher.GetLatestForUser(r.Context(), userID)
	if err != nil {
		h.Log.Error("api.latest_request.failed", "user_id", userID, "error", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if task == nil {
		http.Error(w, "no request found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toStatusResponse(task))
}

// LatestReport returns the persisted report for a user, if any.
func (h *Handler) LatestReport(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	report, err := h.Reports.GetByUserID(r.Context(), userID)
	if err != nil {
		h.Log.Error("api.latest_report.failed", "user_id", userID, "error", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if report == nil {
		http.Error(w, "no report found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func toStatusResponse(task *entity.Task) statusResponse {
	return statusResponse{
		TaskID:      task.ID,
		UserID:      task.UserID,
		Status:      string(task.Status),
		CreatedAt:   task.CreatedAt,
		CompletedAt: task.CompletedAt,
		Error:       task.Error,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
