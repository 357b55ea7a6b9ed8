package dtos

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"seaborne/voyagedesk/internal/constants"
	"seaborne/voyagedesk/internal/domain/bunker"
	"seaborne/voyagedesk/internal/domain/report"
)

// SubmitReportRequest is a captain's new report. Details are decoded
// according to ReportType.
type SubmitReportRequest struct {
	ReportType constants.ReportType `json:"reportType"`
	ReportedAt time.Time            `json:"reportedAt"`
	General    report.General       `json:"general"`
	Bunker     BunkerInput          `json:"bunker"`
	Distance   DistanceInput        `json:"distance"`
	Details    json.RawMessage      `json:"details"`
}

type BunkerInput struct {
	Inputs     bunker.Inputs    `json:"inputs"`
	InitialROB *bunker.Snapshot `json:"initialRob,omitempty"`
}

type DistanceInput struct {
	SinceLastReport decimal.Decimal `json:"distanceSinceLastReport"`
	Harbour         decimal.Decimal `json:"harbourDistance"`
}

// ReviewRequest carries an office decision. Checklist is only read for
// request_changes.
type ReviewRequest struct {
	Decision  string         `json:"decision"`
	Comment   string         `json:"comment"`
	Checklist []report.Group `json:"checklist"`
}

const (
	DecisionApprove        = "approve"
	DecisionReject         = "reject"
	DecisionRequestChanges = "request_changes"
)

// ResubmitRequest updates a report returned with requested changes.
type ResubmitRequest struct {
	Changes []report.FieldModification `json:"changes"`
}

// AuthorizeModificationRequest unlocks field groups of an approved report.
type AuthorizeModificationRequest struct {
	Checklist []report.Group `json:"checklist"`
	Comment   string         `json:"comment"`
}

// CascadeRequest is shared by preview and apply. ChainVersion is required
// on apply and must be the value returned by the preview.
type CascadeRequest struct {
	Changes      []report.FieldModification `json:"changes"`
	ChainVersion string                     `json:"chainVersion,omitempty"`
}
