package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"seaborne/voyagedesk/internal/auth"
	"seaborne/voyagedesk/internal/common"
	"seaborne/voyagedesk/internal/constants"
	"seaborne/voyagedesk/internal/domain/report"
	"seaborne/voyagedesk/internal/models/dtos"
)

// ReportSubmitter files new captain reports.
type ReportSubmitter interface {
	SubmitReport(ctx context.Context, claims auth.UserClaims, vesselID string, req *dtos.SubmitReportRequest) (*report.Report, error)
}

// SubmitReportHandler handles POST /api/v1/vessels/{vessel_id}/reports
func SubmitReportHandler(svc ReportSubmitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := requireClaims(w, r, initTime)
		if claims == nil {
			return
		}

		var req dtos.SubmitReportRequest
		if !decodeBody(w, r, initTime, &req) {
			return
		}

		rep, err := svc.SubmitReport(r.Context(), claims, chi.URLParam(r, "vessel_id"), &req)
		if err != nil {
			common.RespondDomainError(w, initTime, err, nil)
			return
		}

		common.RespondSuccess(w, initTime, "Report submitted for review", dtos.NewReportResponse(rep), http.StatusCreated)
	}
}

// GetReport handles GET /api/v1/reports/{report_id}
func (h *Handlers) GetReport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := requireClaims(w, r, initTime)
		if claims == nil {
			return
		}

		rep, err := h.deps.Repo.Reports.GetReport(r.Context(), chi.URLParam(r, "report_id"))
		if err != nil {
			common.RespondDomainError(w, initTime, err, nil)
			return
		}
		if !auth.CanActForVessel(claims, rep.VesselID) {
			common.RespondDomainError(w, initTime, fmt.Errorf("%w: report belongs to another vessel", constants.ErrForbidden), nil)
			return
		}

		common.RespondSuccess(w, initTime, "Report fetched", dtos.NewReportResponse(rep))
	}
}

// ListPendingReports handles GET /api/v1/reports/pending?vessel_id=
func (h *Handlers) ListPendingReports() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		reports, err := h.deps.Repo.Reports.GetPendingReports(r.Context(), r.URL.Query().Get("vessel_id"))
		if err != nil {
			common.RespondDomainError(w, initTime, err, nil)
			return
		}

		common.RespondSuccess(w, initTime, fmt.Sprintf("%d report(s) awaiting review", len(reports)), dtos.NewReportResponses(reports))
	}
}

// ReviewReport handles POST /api/v1/reports/{report_id}/review
func (h *Handlers) ReviewReport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := requireClaims(w, r, initTime)
		if claims == nil {
			return
		}

		var req dtos.ReviewRequest
		if !decodeBody(w, r, initTime, &req) {
			return
		}

		reportID := chi.URLParam(r, "report_id")
		svc := h.deps.Services.Review

		var (
			rep *report.Report
			err error
		)
		switch req.Decision {
		case dtos.DecisionApprove:
			rep, err = svc.Approve(r.Context(), claims, reportID, req.Comment)
		case dtos.DecisionReject:
			rep, err = svc.Reject(r.Context(), claims, reportID, req.Comment)
		case dtos.DecisionRequestChanges:
			rep, err = svc.RequestChanges(r.Context(), claims, reportID, req.Comment, req.Checklist)
		default:
			err = fmt.Errorf("%w: decision must be one of approve, reject, request_changes", constants.ErrValidation)
		}
		if err != nil {
			common.RespondDomainError(w, initTime, err, nil)
			return
		}

		common.RespondSuccess(w, initTime, "Report "+string(rep.Status), dtos.NewReportResponse(rep))
	}
}

// ResubmitReport handles POST /api/v1/reports/{report_id}/resubmit
func (h *Handlers) ResubmitReport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := requireClaims(w, r, initTime)
		if claims == nil {
			return
		}

		var req dtos.ResubmitRequest
		if !decodeBody(w, r, initTime, &req) {
			return
		}

		rep, err := h.deps.Services.Review.Resubmit(r.Context(), claims, chi.URLParam(r, "report_id"), req.Changes)
		if err != nil {
			common.RespondDomainError(w, initTime, err, nil)
			return
		}

		common.RespondSuccess(w, initTime, "Report resubmitted for review", dtos.NewReportResponse(rep))
	}
}

// AuthorizeModification handles POST /api/v1/reports/{report_id}/authorize-modification
func (h *Handlers) AuthorizeModification() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := requireClaims(w, r, initTime)
		if claims == nil {
			return
		}

		var req dtos.AuthorizeModificationRequest
		if !decodeBody(w, r, initTime, &req) {
			return
		}

		rep, err := h.deps.Services.Review.AuthorizeModification(r.Context(), claims, chi.URLParam(r, "report_id"), req.Checklist)
		if err != nil {
			common.RespondDomainError(w, initTime, err, nil)
			return
		}

		common.RespondSuccess(w, initTime, "Modification authorized", dtos.NewReportResponse(rep))
	}
}
