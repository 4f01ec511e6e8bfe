package api

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shirou/gopsutil/process"
)

// HealthHandler reports process self-stats for operators polling the
// service.
type HealthHandler struct {
	log       *slog.Logger
	proc      *process.Process
	startedAt time.Time
}

func NewHealthHandler(log *slog.Logger) (*HealthHandler, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &HealthHandler{log: log, proc: p, startedAt: time.Now().UTC()}, nil
}

func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
}

type healthResponse struct {
	Status        string  `json:"status"`
	PidStatus     string  `json:"pidStatus"`
	RAMBytes      uint64  `json:"ramBytes"`
	CPUPercent    float64 `json:"cpuPercent"`
	UptimeSeconds int64   `json:"uptimeSeconds"`
}

func (h *HealthHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	memInfo, err := h.proc.MemoryInfo()
	if err != nil {
		h.log.Error("Failed to collect memory stats", "err", err)
		respondError(w, http.StatusInternalServerError, "stats unavailable")
		return
	}
	cpuPercent, err := h.proc.CPUPercent()
	if err != nil {
		h.log.Error("Failed to collect cpu stats", "err", err)
		respondError(w, http.StatusInternalServerError, "stats unavailable")
		return
	}
	status, err := h.proc.Status()
	if err != nil {
		h.log.Error("Failed to collect process status", "err", err)
		respondError(w, http.StatusInternalServerError, "stats unavailable")
		return
	}

	respondJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		PidStatus:     status,
		RAMBytes:      memInfo.RSS,
		CPUPercent:    cpuPercent,
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
	})
}
