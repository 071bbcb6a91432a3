package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/dispatch"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
)

type componentStatus struct {
	OK       bool             `json:"ok"`
	Mode     string           `json:"mode,omitempty"`
	Impact   string           `json:"impact,omitempty"`
	Error    string           `json:"error,omitempty"`
	Queue    *dispatch.Status `json:"queue,omitempty"`
	Invalid  []string         `json:"invalid_ids,omitempty"`
	LastRun  string           `json:"last_run,omitempty"`
	Deferred *int             `json:"deferred,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		components := map[string]componentStatus{
			"store":      checkStore(r.Context(), d),
			"dispatcher": dispatcherStatus(d),
			"renames":    renameStatus(d),
		}
		if d.Auditor != nil {
			components["audit"] = auditStatus(d)
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

// determineMode: critical when the store is down, degraded when it holds
// invalid items, operational otherwise.
func determineMode(components map[string]componentStatus) string {
	if s, ok := components["store"]; ok && !s.OK {
		return "critical"
	}
	if a, ok := components["audit"]; ok && !a.OK {
		return "degraded"
	}
	return "operational"
}

func checkStore(parent context.Context, d deps.Deps) componentStatus {
	backend := d.Items.Backend()

	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()

	if err := backend.Ping(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   backend.Name(),
			Impact: "reads-and-writes-failing",
			Error:  err.Error(),
		}
	}
	return componentStatus{OK: true, Mode: backend.Name()}
}

func dispatcherStatus(d deps.Deps) componentStatus {
	st := d.Dispatcher.Status()
	return componentStatus{OK: true, Mode: "fifo", Queue: &st}
}

func renameStatus(d deps.Deps) componentStatus {
	n := d.Renames.Pending()
	return componentStatus{OK: true, Mode: "debounced", Deferred: &n}
}

func auditStatus(d deps.Deps) componentStatus {
	rep := d.Auditor.Report()
	st := componentStatus{
		OK:      rep.Error == "" && len(rep.InvalidIDs) == 0,
		Invalid: rep.InvalidIDs,
		Error:   rep.Error,
		LastRun: "never",
	}
	if !rep.LastRun.IsZero() {
		st.LastRun = rep.LastRun.Format("2006-01-02 15:04:05")
	}
	if len(rep.InvalidIDs) > 0 {
		st.Impact = "invalid-items-need-review"
	}
	return st
}
