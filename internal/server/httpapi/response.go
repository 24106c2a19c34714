package httpapi

import (
	"encoding/json"
	"net/http"
)

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type messageBody struct {
	Message string `json:"message"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes {"message": ..., "code": ...}.
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, errorBody{Message: message, Code: code})
}
