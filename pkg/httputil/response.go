package httputil

import (
	"encoding/json"
	"net/http"
)

// Fixed error details returned to clients
const (
	DetailUnauthorized       = "Unauthorized"
	DetailNotFound           = "Not Found"
	DetailInvalidCredentials = "Invalid credentials."
	DetailTooManyRequests    = "Too many requests."
	DetailInternalError      = "Internal server error."
)

// ErrorResponse is the body of every error response. Detail is a string for
// most errors and a list of validation issues for 422.
type ErrorResponse struct {
	Detail interface{} `json:"detail"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteDetail writes an error response with the given detail
func WriteDetail(w http.ResponseWriter, status int, detail interface{}) {
	WriteJSON(w, status, ErrorResponse{Detail: detail})
}

// WriteSuccess writes a successful response (200 OK) with JSON data
func WriteSuccess(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, data)
}

// WriteCreated writes a successful creation response (201 Created) with JSON data
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, data)
}

// WriteBadRequest writes a bad request error (400)
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteDetail(w, http.StatusBadRequest, message)
}

// WriteUnauthorized writes the uniform unauthorized error (401)
func WriteUnauthorized(w http.ResponseWriter) {
	WriteDetail(w, http.StatusUnauthorized, DetailUnauthorized)
}

// WriteInvalidCredentials writes the login failure error (401)
func WriteInvalidCredentials(w http.ResponseWriter) {
	WriteDetail(w, http.StatusUnauthorized, DetailInvalidCredentials)
}

// WriteNotFound writes a not found error (404)
func WriteNotFound(w http.ResponseWriter) {
	WriteDetail(w, http.StatusNotFound, DetailNotFound)
}

// WriteValidationIssues writes a schema validation error (422)
func WriteValidationIssues(w http.ResponseWriter, issues interface{}) {
	WriteDetail(w, http.StatusUnprocessableEntity, issues)
}

// WriteTooManyRequests writes a rate limit error (429)
func WriteTooManyRequests(w http.ResponseWriter) {
	WriteDetail(w, http.StatusTooManyRequests, DetailTooManyRequests)
}

// WriteInternalError writes a generic server error (500). The cause is never
// sent to the client; callers log it.
func WriteInternalError(w http.ResponseWriter) {
	WriteDetail(w, http.StatusInternalServerError, DetailInternalError)
}

// WriteMethodNotAllowed writes a method not allowed error (405)
func WriteMethodNotAllowed(w http.ResponseWriter) {
	WriteDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}
