package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"seaborne/voyagedesk/internal/auth"
	"seaborne/voyagedesk/internal/common"
	"seaborne/voyagedesk/internal/constants"
	"seaborne/voyagedesk/internal/domain/cascade"
	"seaborne/voyagedesk/internal/domain/report"
	"seaborne/voyagedesk/internal/models/dtos"
)

// CascadeRunner previews and applies edits to approved reports.
type CascadeRunner interface {
	PreviewCascade(ctx context.Context, claims auth.UserClaims, reportID string, changes []report.FieldModification) (*cascade.Result, error)
	ApplyCascade(ctx context.Context, claims auth.UserClaims, reportID string, changes []report.FieldModification, chainVersion string) (*cascade.Result, *report.ModificationRecord, error)
}

// PreviewCascadeHandler handles POST /api/v1/reports/{report_id}/cascade/preview
//
// Validation problems are part of the result, so an invalid preview is
// still a 200.
func PreviewCascadeHandler(svc CascadeRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := requireClaims(w, r, initTime)
		if claims == nil {
			return
		}

		var req dtos.CascadeRequest
		if !decodeBody(w, r, initTime, &req) {
			return
		}

		result, err := svc.PreviewCascade(r.Context(), claims, chi.URLParam(r, "report_id"), req.Changes)
		if err != nil {
			common.RespondDomainError(w, initTime, err, nil)
			return
		}

		msg := "Cascade preview computed"
		if !result.IsValid {
			msg = "Cascade preview has validation errors"
		}
		common.RespondSuccess(w, initTime, msg, result)
	}
}

// ApplyCascadeHandler handles POST /api/v1/reports/{report_id}/cascade/apply
//
// A result that fails validation is returned as data alongside the 422.
func ApplyCascadeHandler(svc CascadeRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := requireClaims(w, r, initTime)
		if claims == nil {
			return
		}

		var req dtos.CascadeRequest
		if !decodeBody(w, r, initTime, &req) {
			return
		}

		result, record, err := svc.ApplyCascade(r.Context(), claims, chi.URLParam(r, "report_id"), req.Changes, req.ChainVersion)
		if err != nil {
			var data any
			if errors.Is(err, constants.ErrValidation) && result != nil {
				data = result
			}
			common.RespondDomainError(w, initTime, err, data)
			return
		}

		common.RespondSuccess(w, initTime, "Cascade applied", dtos.ApplyCascadeResponse{
			Modification:    *record,
			AffectedReports: record.AffectedReports,
		})
	}
}
