package handlers

import (
	"encoding/json"
	"net/http"

	"choiros-backend/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg, Code: code})
}

// decodeAndValidate reads a JSON body into v and runs its validate tags.
// It writes the 400 response itself and reports whether to continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, models.ErrCodeValidation, "Invalid request body")
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, models.ErrCodeValidation, err.Error())
		return false
	}
	return true
}
