package dtos

import (
	"seaborne/voyagedesk/internal/constants"
	"seaborne/voyagedesk/internal/domain/report"
	"seaborne/voyagedesk/internal/domain/voyagestate"
)

// ReportResponse wraps a report with its variant discriminator.
type ReportResponse struct {
	ReportType constants.ReportType `json:"reportType"`
	*report.Report
}

func NewReportResponse(r *report.Report) ReportResponse {
	return ReportResponse{ReportType: r.Type(), Report: r}
}

func NewReportResponses(rs []*report.Report) []ReportResponse {
	out := make([]ReportResponse, len(rs))
	for i, r := range rs {
		out[i] = NewReportResponse(r)
	}
	return out
}

// VoyageStateResponse is the derived state with the reports that may be
// filed next.
type VoyageStateResponse struct {
	VesselID           string                 `json:"vesselId,omitempty"`
	VoyageID           string                 `json:"voyageId,omitempty"`
	State              voyagestate.State      `json:"state"`
	AllowedNextReports []constants.ReportType `json:"allowedNextReports"`
}

// ApplyCascadeResponse is returned after a successful apply.
type ApplyCascadeResponse struct {
	Modification    report.ModificationRecord `json:"modification"`
	AffectedReports []string                  `json:"affectedReports"`
}
