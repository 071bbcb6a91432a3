package mw

import (
	"encoding/json"
	"net/http"
)

// deny answers with the API's error envelope so rejected clients get the
// same shape as handler errors.
func deny(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok":    false,
		"error": http.StatusText(status),
		"code":  code,
	})
}
