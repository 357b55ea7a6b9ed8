package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"seaborne/voyagedesk/internal/constants"
	"seaborne/voyagedesk/internal/domain/bunker"
	"seaborne/voyagedesk/internal/domain/report"
)

func meLSIFO(old, new any) []report.FieldModification {
	return []report.FieldModification{{FieldName: report.BunkerField("meConsumption", bunker.LSIFO), OldValue: old, NewValue: new}}
}

func TestPreviewCascade_PropagatesToLaterReports(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	_, noon1, noon2 := env.seedVoyage(t)

	res, err := env.cascade.PreviewCascade(ctx, env.office, noon1.ID, meLSIFO("30", "40"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !res.IsValid {
		t.Fatalf("Expected valid preview, got errors %v", res.Errors)
	}
	if res.ChainVersion == "" {
		t.Error("Expected a chain version")
	}
	if len(res.AffectedReports) != 2 {
		t.Fatalf("Expected 2 affected reports, got %d", len(res.AffectedReports))
	}
	if res.AffectedReports[0].ReportID != noon1.ID || res.AffectedReports[1].ReportID != noon2.ID {
		t.Errorf("Expected edited report first, then the later noon")
	}
	expectDecimal(t, "recomputed noon 2 ROB", res.Recomputed[1].Bunker.CurrentROB.LSIFO, "433")

	// nothing written
	stored, err := env.reports.GetReport(ctx, noon2.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	expectDecimal(t, "stored noon 2 ROB", stored.Bunker.CurrentROB.LSIFO, "443")
}

func TestApplyCascade_PersistsChain(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	_, noon1, noon2 := env.seedVoyage(t)

	preview, err := env.cascade.PreviewCascade(ctx, env.office, noon1.ID, meLSIFO("30", "40"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	res, record, err := env.cascade.ApplyCascade(ctx, env.office, noon1.ID, meLSIFO("30", "40"), preview.ChainVersion)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !res.IsValid {
		t.Errorf("Expected valid result")
	}
	if len(record.AffectedReports) != 2 {
		t.Errorf("Expected 2 affected reports in the record, got %d", len(record.AffectedReports))
	}

	edited, err := env.reports.GetReport(ctx, noon1.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	expectDecimal(t, "noon 1 ROB", edited.Bunker.CurrentROB.LSIFO, "458")
	if len(edited.History) != 1 || edited.History[0].ID != record.ID {
		t.Errorf("Expected modification history entry %s, got %+v", record.ID, edited.History)
	}

	later, err := env.reports.GetReport(ctx, noon2.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	expectDecimal(t, "noon 2 ROB", later.Bunker.CurrentROB.LSIFO, "433")
	expectDecimal(t, "noon 2 consumption", later.Bunker.TotalConsumption.LSIFO, "67")
	if later.Version != noon2.Version+1 {
		t.Errorf("Expected noon 2 version %d, got %d", noon2.Version+1, later.Version)
	}
}

func TestApplyCascade_StaleChainVersion(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	_, noon1, noon2 := env.seedVoyage(t)

	preview, err := env.cascade.PreviewCascade(ctx, env.office, noon1.ID, meLSIFO("30", "40"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// a concurrent edit of a later report changes the chain
	remarks := []report.FieldModification{{FieldName: "remarks", NewValue: "heavy weather"}}
	other, err := env.cascade.PreviewCascade(ctx, env.office, noon2.ID, remarks)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, _, err := env.cascade.ApplyCascade(ctx, env.office, noon2.ID, remarks, other.ChainVersion); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	_, _, err = env.cascade.ApplyCascade(ctx, env.office, noon1.ID, meLSIFO("30", "40"), preview.ChainVersion)
	if !errors.Is(err, constants.ErrStalePreview) {
		t.Fatalf("Expected stale preview, got %v", err)
	}

	_, _, err = env.cascade.ApplyCascade(ctx, env.office, noon1.ID, meLSIFO("30", "40"), "")
	if !errors.Is(err, constants.ErrStalePreview) {
		t.Fatalf("Expected missing chain version to be refused, got %v", err)
	}
}

func TestApplyCascade_InvalidWritesNothing(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	_, noon1, noon2 := env.seedVoyage(t)

	preview, err := env.cascade.PreviewCascade(ctx, env.office, noon1.ID, meLSIFO("30", "480"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if preview.IsValid {
		t.Fatal("Expected invalid preview")
	}
	if len(preview.AffectedReports[1].Errors) == 0 {
		t.Errorf("Expected the later noon to carry a negative ROB error")
	}

	res, record, err := env.cascade.ApplyCascade(ctx, env.office, noon1.ID, meLSIFO("30", "480"), preview.ChainVersion)
	if !errors.Is(err, constants.ErrValidation) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if res == nil || res.IsValid {
		t.Errorf("Expected the invalid result to be returned")
	}
	if record != nil {
		t.Errorf("Expected no modification record")
	}

	for _, r := range []*report.Report{noon1, noon2} {
		stored, err := env.reports.GetReport(ctx, r.ID)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if stored.Version != r.Version {
			t.Errorf("Expected %s to be untouched at version %d, got %d", r.ID, r.Version, stored.Version)
		}
	}
}

func TestCascade_CaptainNeedsChecklist(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	_, noon1, _ := env.seedVoyage(t)

	_, err := env.cascade.PreviewCascade(ctx, env.captain, noon1.ID, meLSIFO("30", "40"))
	if !errors.Is(err, constants.ErrForbiddenField) {
		t.Fatalf("Expected captain without authorization to be refused, got %v", err)
	}

	if _, err := env.review.AuthorizeModification(ctx, env.office, noon1.ID, []report.Group{report.GroupBunkerConsumption}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	remarks := []report.FieldModification{{FieldName: "remarks", NewValue: "x"}}
	if _, err := env.cascade.PreviewCascade(ctx, env.captain, noon1.ID, remarks); !errors.Is(err, constants.ErrForbiddenField) {
		t.Fatalf("Expected remarks outside the checklist to be refused, got %v", err)
	}

	preview, err := env.cascade.PreviewCascade(ctx, env.captain, noon1.ID, meLSIFO("30", "40"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, _, err := env.cascade.ApplyCascade(ctx, env.captain, noon1.ID, meLSIFO("30", "40"), preview.ChainVersion); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	stored, err := env.reports.GetReport(ctx, noon1.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !stored.Checklist.Empty() {
		t.Errorf("Expected checklist cleared after apply, got %v", stored.Checklist.Groups())
	}
	if len(stored.History) != 1 || len(stored.History[0].Checklist) != 1 {
		t.Errorf("Expected history entry recording the authorized checklist, got %+v", stored.History)
	}

	// the authorization is spent
	if _, err := env.cascade.PreviewCascade(ctx, env.captain, noon1.ID, meLSIFO("40", "41")); !errors.Is(err, constants.ErrForbiddenField) {
		t.Fatalf("Expected a second edit to need a new authorization, got %v", err)
	}
}

func TestCascade_InitialROBImmutable(t *testing.T) {
	env := setupTestEnv(t)
	dep, _, _ := env.seedVoyage(t)

	changes := []report.FieldModification{{FieldName: report.BunkerField("initialRob", bunker.LSIFO), NewValue: "600"}}
	_, err := env.cascade.PreviewCascade(context.Background(), env.office, dep.ID, changes)
	if !errors.Is(err, constants.ErrStructural) {
		t.Fatalf("Expected structural error, got %v", err)
	}
}

func TestCascade_DepartureEditSyncsVoyage(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	dep, _, noon2 := env.seedVoyage(t)

	changes := []report.FieldModification{{FieldName: "voyageDistance", OldValue: "8000", NewValue: "9000"}}
	preview, err := env.cascade.PreviewCascade(ctx, env.office, dep.ID, changes)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, _, err := env.cascade.ApplyCascade(ctx, env.office, dep.ID, changes, preview.ChainVersion); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	voyage, err := env.voyages.GetVoyage(ctx, *dep.VoyageID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	expectDecimal(t, "voyage distance", voyage.TotalDistance, "9000")

	later, err := env.reports.GetReport(ctx, noon2.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	expectDecimal(t, "noon 2 to go", later.Distance.DistanceToGo, "8410")
}

// expectConserved checks every report of the voyage closes at its opening
// minus consumption plus supply.
func expectConserved(t *testing.T, env *testEnv, voyageID string) []*report.Report {
	t.Helper()
	chain, err := env.reports.GetVoyageReportChain(context.Background(), voyageID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(chain) == 0 || chain[0].Bunker.InitialROB == nil {
		t.Fatal("Expected a chain opening with the initial ROB")
	}
	open := *chain[0].Bunker.InitialROB
	for _, r := range chain {
		want := open.Sub(r.Bunker.Inputs.Consumed()).Add(r.Bunker.Inputs.Supply)
		if !r.Bunker.CurrentROB.Equal(want) {
			t.Errorf("Expected %s report %s to close at LSIFO %s, got %s",
				r.Type(), r.ID, want.LSIFO, r.Bunker.CurrentROB.LSIFO)
		}
		open = r.Bunker.CurrentROB
	}
	return chain
}

func TestApplyCascade_WaitsForVesselWrite(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	_, noon1, _ := env.seedVoyage(t)

	preview, err := env.cascade.PreviewCascade(ctx, env.office, noon1.ID, meLSIFO("30", "40"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// a submission or review of the same vessel is in progress
	release, err := env.locker.Lock(ctx, vesselLockKey(env.vesselID), time.Second)
	if err != nil {
		t.Fatalf("Expected lock, got %v", err)
	}
	defer release()

	short, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, _, err = env.cascade.ApplyCascade(short, env.office, noon1.ID, meLSIFO("30", "40"), preview.ChainVersion)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected apply to wait for the vessel lock, got %v", err)
	}

	stored, err := env.reports.GetReport(ctx, noon1.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	expectDecimal(t, "noon 1 ROB", stored.Bunker.CurrentROB.LSIFO, "468")
}

func TestApproveDuringCascade_ChainStaysConserved(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	dep, noon1, _ := env.seedVoyage(t)

	noon3, err := env.submission.SubmitReport(ctx, env.captain, env.vesselID, env.noonRequest(t, env.start.Add(72*time.Hour), "20", "250"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	preview, err := env.cascade.PreviewCascade(ctx, env.office, noon1.ID, meLSIFO("30", "40"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// an apply holds the vessel lock; approval must wait for it
	release, err := env.locker.Lock(ctx, vesselLockKey(env.vesselID), time.Second)
	if err != nil {
		t.Fatalf("Expected lock, got %v", err)
	}
	done := make(chan error, 1)
	go func() {
		_, err := env.review.Approve(ctx, env.office, noon3.ID, "")
		done <- err
	}()

	select {
	case err := <-done:
		release()
		t.Fatalf("Expected approval to wait for the cascade, it finished with %v", err)
	case <-time.After(100 * time.Millisecond):
	}
	release()
	if err := <-done; err != nil {
		t.Fatalf("Expected approval to succeed, got %v", err)
	}

	// the chain grew, so the earlier preview is stale
	_, _, err = env.cascade.ApplyCascade(ctx, env.office, noon1.ID, meLSIFO("30", "40"), preview.ChainVersion)
	if !errors.Is(err, constants.ErrStalePreview) {
		t.Fatalf("Expected ErrStalePreview, got %v", err)
	}

	preview, err = env.cascade.PreviewCascade(ctx, env.office, noon1.ID, meLSIFO("30", "40"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(preview.AffectedReports) != 3 {
		t.Fatalf("Expected noon 1, noon 2 and noon 3 affected, got %d", len(preview.AffectedReports))
	}
	if _, _, err := env.cascade.ApplyCascade(ctx, env.office, noon1.ID, meLSIFO("30", "40"), preview.ChainVersion); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	chain := expectConserved(t, env, *dep.VoyageID)
	if len(chain) != 4 {
		t.Fatalf("Expected 4 approved reports, got %d", len(chain))
	}
	expectDecimal(t, "noon 3 ROB", chain[3].Bunker.CurrentROB.LSIFO, "413")
}

func TestApplyThenApprove_ChainStaysConserved(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	dep, noon1, _ := env.seedVoyage(t)

	noon3, err := env.submission.SubmitReport(ctx, env.captain, env.vesselID, env.noonRequest(t, env.start.Add(72*time.Hour), "20", "250"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	expectDecimal(t, "pending noon 3 ROB", noon3.Bunker.CurrentROB.LSIFO, "423")

	preview, err := env.cascade.PreviewCascade(ctx, env.office, noon1.ID, meLSIFO("30", "40"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, _, err := env.cascade.ApplyCascade(ctx, env.office, noon1.ID, meLSIFO("30", "40"), preview.ChainVersion); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// approval recomputes from the edited tail, not the figures filed at submission
	approved, err := env.review.Approve(ctx, env.office, noon3.ID, "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	expectDecimal(t, "approved noon 3 ROB", approved.Bunker.CurrentROB.LSIFO, "413")
	expectConserved(t, env, *dep.VoyageID)
}
