package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

type auditResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Audit triggers a manual store audit. The result shows up in /infra.
func Audit(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.AuditTrigger == nil {
			writeJSON(w, http.StatusNotFound, auditResponse{OK: false, Message: "store audit disabled"})
			return
		}

		select {
		case d.AuditTrigger <- struct{}{}:
			d.Logger.Info("manual store audit triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusAccepted, auditResponse{OK: true, Message: "audit triggered"})
		default:
			d.Logger.Warn("store audit already in progress",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusTooManyRequests, auditResponse{OK: false, Message: "audit already in progress, please wait"})
		}
	}
}
