package httpapi

import (
	"encoding/json"
	"net/http"
)

// response is the uniform JSON envelope of every endpoint.
type response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// tokenData is the payload of a successful login or refresh.
type tokenData struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// userData is the public slice of an account returned by the read endpoints.
type userData struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Status   string `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func writeSuccess(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, response{Success: true, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, response{Success: false, Message: message})
}
