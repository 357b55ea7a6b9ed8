package common

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"seaborne/voyagedesk/internal/constants"
	"seaborne/voyagedesk/internal/logging"
	"seaborne/voyagedesk/internal/models/dtos"
)

// RespondSuccess sends a standardized JSON success response.
func RespondSuccess(w http.ResponseWriter, initTime time.Time, message string, data any, statusCode ...int) {
	code := http.StatusOK
	if len(statusCode) > 0 {
		code = statusCode[0]
	}

	response := dtos.APIResponse{
		Status:       string(constants.APIStatusOk),
		Message:      message,
		ResponseTime: elapsed(initTime),
		Data:         data,
	}

	writeJSON(w, code, response)
}

// RespondError sends a standardized JSON error response.
func RespondError(w http.ResponseWriter, initTime time.Time, err error, message string, statusCode ...int) {
	code := http.StatusInternalServerError
	if len(statusCode) > 0 {
		code = statusCode[0]
	}

	msg := message
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}

	response := dtos.APIResponse{
		Status:       string(constants.APIStatusError),
		Message:      msg,
		ResponseTime: elapsed(initTime),
	}

	writeJSON(w, code, response)
}

// RespondDomainError maps a service error onto its status code and error
// code. data carries extra context such as cascade validation results.
func RespondDomainError(w http.ResponseWriter, initTime time.Time, err error, data any) {
	code, status := constants.Classify(err)
	if status >= http.StatusInternalServerError {
		logging.Error("Request failed", "error", err)
	}

	response := dtos.APIResponse{
		Status:       string(constants.APIStatusError),
		Message:      err.Error(),
		ErrorCode:    code,
		ResponseTime: elapsed(initTime),
		Data:         data,
	}

	writeJSON(w, status, response)
}

// writeJSON marshals data and writes it to the HTTP response.
func writeJSON(w http.ResponseWriter, code int, body dtos.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("JSON encode failed", "error", err)
	}
}

// elapsed formats the handler time for the envelope, e.g. "12ms".
func elapsed(init time.Time) string {
	return strconv.FormatInt(time.Since(init).Milliseconds(), 10) + "ms"
}
