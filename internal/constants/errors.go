package constants

import (
	"errors"
	"net/http"
)

// Sentinel errors shared by services and handlers. Wrap them with
// fmt.Errorf("...: %w", err) to add context.
var (
	ErrReportNotFound    = errors.New("report not found")
	ErrVoyageNotFound    = errors.New("voyage not found")
	ErrVesselNotFound    = errors.New("vessel not found")
	ErrStructural        = errors.New("malformed modification")
	ErrForbiddenField    = errors.New("field not authorized for modification")
	ErrSubmissionBlocked = errors.New("report submission not allowed in current voyage state")
	ErrInvalidTransition = errors.New("invalid report status transition")
	ErrStalePreview      = errors.New("report chain changed since preview, re-run the preview")
	ErrVoyageLocked      = errors.New("voyage is being modified by another request")
	ErrValidation        = errors.New("report failed validation")
	ErrForbidden         = errors.New("not permitted for this vessel")
)

// Error codes returned in API error envelopes
const (
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeStructural        = "STRUCTURAL_ERROR"
	ErrCodeForbiddenField    = "FIELD_NOT_AUTHORIZED"
	ErrCodeSubmissionBlocked = "SUBMISSION_BLOCKED"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeStalePreview      = "STALE_PREVIEW"
	ErrCodeVoyageLocked      = "VOYAGE_LOCKED"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

var ErrorMessages = map[string]string{
	ErrCodeNotFound:          "The requested record does not exist",
	ErrCodeStructural:        "The modification references fields or records that do not exist",
	ErrCodeForbiddenField:    "The modification touches fields the office has not unlocked",
	ErrCodeSubmissionBlocked: "A report is still awaiting review or this report type is not expected next",
	ErrCodeInvalidTransition: "The report is not in a status that allows this action",
	ErrCodeStalePreview:      "The voyage changed after the preview was taken. Preview again before applying",
	ErrCodeVoyageLocked:      "Another modification of this voyage is in progress",
	ErrCodeValidation:        "The report values are inconsistent",
	ErrCodeForbidden:         "The caller may not act for this vessel",
	ErrCodeInternal:          "An unexpected error occurred",
}

// GetErrorMessage returns the human-readable message for an error code
func GetErrorMessage(code string) string {
	if msg, exists := ErrorMessages[code]; exists {
		return msg
	}
	return "An unknown error occurred"
}

// Classify maps an error to its API code and HTTP status.
func Classify(err error) (string, int) {
	switch {
	case errors.Is(err, ErrReportNotFound), errors.Is(err, ErrVoyageNotFound), errors.Is(err, ErrVesselNotFound):
		return ErrCodeNotFound, http.StatusNotFound
	case errors.Is(err, ErrStructural):
		return ErrCodeStructural, http.StatusUnprocessableEntity
	case errors.Is(err, ErrForbidden):
		return ErrCodeForbidden, http.StatusForbidden
	case errors.Is(err, ErrForbiddenField):
		return ErrCodeForbiddenField, http.StatusForbidden
	case errors.Is(err, ErrSubmissionBlocked):
		return ErrCodeSubmissionBlocked, http.StatusConflict
	case errors.Is(err, ErrInvalidTransition):
		return ErrCodeInvalidTransition, http.StatusConflict
	case errors.Is(err, ErrStalePreview):
		return ErrCodeStalePreview, http.StatusConflict
	case errors.Is(err, ErrVoyageLocked):
		return ErrCodeVoyageLocked, http.StatusConflict
	case errors.Is(err, ErrValidation):
		return ErrCodeValidation, http.StatusUnprocessableEntity
	default:
		return ErrCodeInternal, http.StatusInternalServerError
	}
}
