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
	"seaborne/voyagedesk/internal/models/dtos"
	models "seaborne/voyagedesk/internal/models/gorm"
)

// voyageFor loads the voyage and checks the caller may see it.
func (h *Handlers) voyageFor(ctx context.Context, claims auth.UserClaims, voyageID string) (*models.Voyage, error) {
	voyage, err := h.deps.Repo.Voyages.GetVoyage(ctx, voyageID)
	if err != nil {
		return nil, err
	}
	if !auth.CanActForVessel(claims, voyage.VesselID) {
		return nil, fmt.Errorf("%w: voyage belongs to another vessel", constants.ErrForbidden)
	}
	return voyage, nil
}

func vesselAllowed(w http.ResponseWriter, initTime time.Time, claims auth.UserClaims, vesselID string) bool {
	if auth.CanActForVessel(claims, vesselID) {
		return true
	}
	common.RespondDomainError(w, initTime, fmt.Errorf("%w: vessel %s", constants.ErrForbidden, vesselID), nil)
	return false
}

// ListVoyageReports handles GET /api/v1/voyages/{voyage_id}/reports
func (h *Handlers) ListVoyageReports() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := requireClaims(w, r, initTime)
		if claims == nil {
			return
		}

		voyage, err := h.voyageFor(r.Context(), claims, chi.URLParam(r, "voyage_id"))
		if err != nil {
			common.RespondDomainError(w, initTime, err, nil)
			return
		}

		reports, err := h.deps.Repo.Reports.GetVoyageReports(r.Context(), voyage.ID)
		if err != nil {
			common.RespondDomainError(w, initTime, err, nil)
			return
		}

		common.RespondSuccess(w, initTime, "Voyage reports fetched", dtos.NewReportResponses(reports))
	}
}

// GetVoyageState handles GET /api/v1/voyages/{voyage_id}/state
func (h *Handlers) GetVoyageState() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := requireClaims(w, r, initTime)
		if claims == nil {
			return
		}

		voyage, err := h.voyageFor(r.Context(), claims, chi.URLParam(r, "voyage_id"))
		if err != nil {
			common.RespondDomainError(w, initTime, err, nil)
			return
		}

		svc := h.deps.Services.State
		state, err := svc.DeriveVoyageState(r.Context(), voyage.ID)
		if err != nil {
			common.RespondDomainError(w, initTime, err, nil)
			return
		}

		common.RespondSuccess(w, initTime, "Voyage state derived", dtos.VoyageStateResponse{
			VesselID:           voyage.VesselID,
			VoyageID:           voyage.ID,
			State:              state,
			AllowedNextReports: svc.AllowedNextReports(state),
		})
	}
}

// GetVesselState handles GET /api/v1/vessels/{vessel_id}/state
func (h *Handlers) GetVesselState() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := requireClaims(w, r, initTime)
		if claims == nil {
			return
		}

		vesselID := chi.URLParam(r, "vessel_id")
		if !vesselAllowed(w, initTime, claims, vesselID) {
			return
		}
		if _, err := h.deps.Repo.Vessels.GetVessel(r.Context(), vesselID); err != nil {
			common.RespondDomainError(w, initTime, err, nil)
			return
		}

		svc := h.deps.Services.State
		state, err := svc.DeriveVesselState(r.Context(), vesselID)
		if err != nil {
			common.RespondDomainError(w, initTime, err, nil)
			return
		}

		resp := dtos.VoyageStateResponse{
			VesselID:           vesselID,
			State:              state,
			AllowedNextReports: svc.AllowedNextReports(state),
		}
		if active, err := h.deps.Repo.Voyages.GetActiveVoyage(r.Context(), vesselID); err == nil && active != nil {
			resp.VoyageID = active.ID
		}

		common.RespondSuccess(w, initTime, "Vessel state derived", resp)
	}
}

// ListVoyageSummaries handles GET /api/v1/vessels/{vessel_id}/voyages
func (h *Handlers) ListVoyageSummaries() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := requireClaims(w, r, initTime)
		if claims == nil {
			return
		}

		vesselID := chi.URLParam(r, "vessel_id")
		if !vesselAllowed(w, initTime, claims, vesselID) {
			return
		}

		summaries, err := h.deps.Repo.Summaries.ListByVessel(r.Context(), vesselID)
		if err != nil {
			common.RespondDomainError(w, initTime, err, nil)
			return
		}

		common.RespondSuccess(w, initTime, fmt.Sprintf("%d voyage(s)", len(summaries)), summaries)
	}
}

// ExportVoyage handles GET /api/v1/voyages/{voyage_id}/export
func (h *Handlers) ExportVoyage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := requireClaims(w, r, initTime)
		if claims == nil {
			return
		}

		voyage, err := h.voyageFor(r.Context(), claims, chi.URLParam(r, "voyage_id"))
		if err != nil {
			common.RespondDomainError(w, initTime, err, nil)
			return
		}

		buf, filename, err := h.deps.Services.Export.ExportVoyageXLSX(r.Context(), voyage.ID)
		if err != nil {
			common.RespondDomainError(w, initTime, err, nil)
			return
		}

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	}
}

// VoyageTrack handles GET /api/v1/voyages/{voyage_id}/track
func (h *Handlers) VoyageTrack() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := requireClaims(w, r, initTime)
		if claims == nil {
			return
		}

		voyage, err := h.voyageFor(r.Context(), claims, chi.URLParam(r, "voyage_id"))
		if err != nil {
			common.RespondDomainError(w, initTime, err, nil)
			return
		}

		fc, err := h.deps.Services.Export.VoyageTrack(r.Context(), voyage.ID)
		if err != nil {
			common.RespondDomainError(w, initTime, err, nil)
			return
		}

		w.Header().Set("Content-Type", "application/geo+json")
		body, err := fc.MarshalJSON()
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to encode track", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(body)
	}
}
