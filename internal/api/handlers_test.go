package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"seaborne/voyagedesk/internal/auth"
	"seaborne/voyagedesk/internal/constants"
	"seaborne/voyagedesk/internal/domain/cascade"
	"seaborne/voyagedesk/internal/domain/report"
	"seaborne/voyagedesk/internal/models/dtos"
)

type mockSubmitter struct {
	submitFunc func(ctx context.Context, claims auth.UserClaims, vesselID string, req *dtos.SubmitReportRequest) (*report.Report, error)
}

func (m *mockSubmitter) SubmitReport(ctx context.Context, claims auth.UserClaims, vesselID string, req *dtos.SubmitReportRequest) (*report.Report, error) {
	return m.submitFunc(ctx, claims, vesselID, req)
}

type mockCascade struct {
	previewFunc func(ctx context.Context, claims auth.UserClaims, reportID string, changes []report.FieldModification) (*cascade.Result, error)
	applyFunc   func(ctx context.Context, claims auth.UserClaims, reportID string, changes []report.FieldModification, chainVersion string) (*cascade.Result, *report.ModificationRecord, error)
}

func (m *mockCascade) PreviewCascade(ctx context.Context, claims auth.UserClaims, reportID string, changes []report.FieldModification) (*cascade.Result, error) {
	return m.previewFunc(ctx, claims, reportID, changes)
}

func (m *mockCascade) ApplyCascade(ctx context.Context, claims auth.UserClaims, reportID string, changes []report.FieldModification, chainVersion string) (*cascade.Result, *report.ModificationRecord, error) {
	return m.applyFunc(ctx, claims, reportID, changes, chainVersion)
}

func captainClaims() *auth.JWTClaims {
	return &auth.JWTClaims{UserUUID: "user-1", RoleValue: constants.RoleCaptain, VesselUUID: "vessel-1"}
}

// serve routes a single request through a chi router so URL params resolve.
func serve(method, pattern, target string, h http.HandlerFunc, claims auth.UserClaims, body []byte) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(method, pattern, h)

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if claims != nil {
		req = req.WithContext(auth.SetUserClaims(req.Context(), claims))
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) dtos.APIResponse {
	t.Helper()
	var response dtos.APIResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return response
}

func TestSubmitReportHandler_Success(t *testing.T) {
	var gotVessel string
	svc := &mockSubmitter{
		submitFunc: func(ctx context.Context, claims auth.UserClaims, vesselID string, req *dtos.SubmitReportRequest) (*report.Report, error) {
			gotVessel = vesselID
			return &report.Report{ID: "rep-1", VesselID: vesselID, Status: constants.StatusPending, Details: &report.Noon{}}, nil
		},
	}

	body := []byte(`{"reportType":"noon","reportedAt":"2026-10-01T12:00:00Z","details":{}}`)
	rr := serve("POST", "/vessels/{vessel_id}/reports", "/vessels/vessel-1/reports", SubmitReportHandler(svc), captainClaims(), body)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotVessel != "vessel-1" {
		t.Errorf("Expected vessel-1, got %s", gotVessel)
	}
	response := decodeResponse(t, rr)
	if response.Status != "ok" {
		t.Errorf("Expected status ok, got %s", response.Status)
	}
}

func TestSubmitReportHandler_MissingClaims(t *testing.T) {
	rr := serve("POST", "/vessels/{vessel_id}/reports", "/vessels/vessel-1/reports", SubmitReportHandler(&mockSubmitter{}), nil, []byte(`{}`))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rr.Code)
	}
}

func TestSubmitReportHandler_InvalidJSON(t *testing.T) {
	rr := serve("POST", "/vessels/{vessel_id}/reports", "/vessels/vessel-1/reports", SubmitReportHandler(&mockSubmitter{}), captainClaims(), []byte("invalid json"))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
}

func TestSubmitReportHandler_BlockedWhilePending(t *testing.T) {
	svc := &mockSubmitter{
		submitFunc: func(ctx context.Context, claims auth.UserClaims, vesselID string, req *dtos.SubmitReportRequest) (*report.Report, error) {
			return nil, fmt.Errorf("%w: a report is awaiting review", constants.ErrSubmissionBlocked)
		},
	}

	rr := serve("POST", "/vessels/{vessel_id}/reports", "/vessels/vessel-1/reports", SubmitReportHandler(svc), captainClaims(), []byte(`{"reportType":"noon"}`))

	if rr.Code != http.StatusConflict {
		t.Fatalf("Expected status 409, got %d", rr.Code)
	}
	response := decodeResponse(t, rr)
	if response.ErrorCode != constants.ErrCodeSubmissionBlocked {
		t.Errorf("Expected error code %s, got %s", constants.ErrCodeSubmissionBlocked, response.ErrorCode)
	}
}

func TestPreviewCascadeHandler_InvalidResultIsOK(t *testing.T) {
	svc := &mockCascade{
		previewFunc: func(ctx context.Context, claims auth.UserClaims, reportID string, changes []report.FieldModification) (*cascade.Result, error) {
			if len(changes) != 1 || changes[0].FieldName != "supplyLsifo" {
				t.Errorf("Expected one lsifo supply change, got %+v", changes)
			}
			return &cascade.Result{IsValid: false, ChainVersion: "abc", Errors: []string{"negative ROB"}}, nil
		},
	}

	body := []byte(`{"changes":[{"fieldName":"supplyLsifo","oldValue":"0","newValue":"-10"}]}`)
	rr := serve("POST", "/reports/{report_id}/cascade/preview", "/reports/rep-1/cascade/preview", PreviewCascadeHandler(svc), captainClaims(), body)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	response := decodeResponse(t, rr)
	data, ok := response.Data.(map[string]any)
	if !ok {
		t.Fatalf("Expected result object, got %T", response.Data)
	}
	if data["chainVersion"] != "abc" {
		t.Errorf("Expected chainVersion abc, got %v", data["chainVersion"])
	}
	if data["isValid"] != false {
		t.Errorf("Expected isValid false, got %v", data["isValid"])
	}
}

func TestApplyCascadeHandler_ValidationReturnsResult(t *testing.T) {
	svc := &mockCascade{
		applyFunc: func(ctx context.Context, claims auth.UserClaims, reportID string, changes []report.FieldModification, chainVersion string) (*cascade.Result, *report.ModificationRecord, error) {
			return &cascade.Result{IsValid: false, ChainVersion: chainVersion}, nil, fmt.Errorf("%w: 1 report(s) would become inconsistent", constants.ErrValidation)
		},
	}

	body := []byte(`{"changes":[],"chainVersion":"v1"}`)
	rr := serve("POST", "/reports/{report_id}/cascade/apply", "/reports/rep-1/cascade/apply", ApplyCascadeHandler(svc), captainClaims(), body)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected status 422, got %d", rr.Code)
	}
	response := decodeResponse(t, rr)
	if response.ErrorCode != constants.ErrCodeValidation {
		t.Errorf("Expected error code %s, got %s", constants.ErrCodeValidation, response.ErrorCode)
	}
	if response.Data == nil {
		t.Error("Expected the invalid result as data")
	}
}

func TestApplyCascadeHandler_Stale(t *testing.T) {
	svc := &mockCascade{
		applyFunc: func(ctx context.Context, claims auth.UserClaims, reportID string, changes []report.FieldModification, chainVersion string) (*cascade.Result, *report.ModificationRecord, error) {
			return nil, nil, fmt.Errorf("%w: voyage voy-1", constants.ErrStalePreview)
		},
	}

	rr := serve("POST", "/reports/{report_id}/cascade/apply", "/reports/rep-1/cascade/apply", ApplyCascadeHandler(svc), captainClaims(), []byte(`{"chainVersion":"old"}`))

	if rr.Code != http.StatusConflict {
		t.Fatalf("Expected status 409, got %d", rr.Code)
	}
	response := decodeResponse(t, rr)
	if response.ErrorCode != constants.ErrCodeStalePreview {
		t.Errorf("Expected error code %s, got %s", constants.ErrCodeStalePreview, response.ErrorCode)
	}
	if response.Data != nil {
		t.Errorf("Expected no data, got %v", response.Data)
	}
}

func TestApplyCascadeHandler_Success(t *testing.T) {
	svc := &mockCascade{
		applyFunc: func(ctx context.Context, claims auth.UserClaims, reportID string, changes []report.FieldModification, chainVersion string) (*cascade.Result, *report.ModificationRecord, error) {
			rec := &report.ModificationRecord{ID: "mod-1", AppliedBy: claims.UserID(), AffectedReports: []string{reportID, "rep-2"}}
			return &cascade.Result{IsValid: true}, rec, nil
		},
	}

	rr := serve("POST", "/reports/{report_id}/cascade/apply", "/reports/rep-1/cascade/apply", ApplyCascadeHandler(svc), captainClaims(), []byte(`{"chainVersion":"v1"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	response := decodeResponse(t, rr)
	data := response.Data.(map[string]any)
	affected, _ := data["affectedReports"].([]any)
	if len(affected) != 2 {
		t.Errorf("Expected 2 affected reports, got %v", data["affectedReports"])
	}
}
