// Package httpx centralizes response writing so handlers stay terse and
// error payloads keep a single shape across the API.
package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse est l'enveloppe unique des réponses d'erreur: un code
// machine en snake_case et un détail libre (violations, messages de
// lignes d'import).
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// JSON écrit la réponse en une passe: le corps est encodé avant le
// WriteHeader pour ne jamais laisser partir un statut suivi d'un JSON
// tronqué.
func JSON(w http.ResponseWriter, status int, payload any) {
	body := []byte("null")
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
		body = encoded
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// JSONError écrit une ErrorResponse avec le statut donné.
func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// XLSX prepares headers for streaming a spreadsheet attachment. The caller
// writes the file body afterwards.
func XLSX(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
}
