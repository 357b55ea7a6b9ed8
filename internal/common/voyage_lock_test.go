package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"seaborne/voyagedesk/internal/constants"
)

func TestLocalVoyageLocker_SerialisesSameVoyage(t *testing.T) {
	locker := NewLocalVoyageLocker()
	ctx := context.Background()

	release, err := locker.Lock(ctx, "voyage-1", 10*time.Millisecond)
	if err != nil {
		t.Fatalf("Expected first lock to succeed, got %v", err)
	}

	_, err = locker.Lock(ctx, "voyage-1", 20*time.Millisecond)
	if !errors.Is(err, constants.ErrVoyageLocked) {
		t.Fatalf("Expected ErrVoyageLocked, got %v", err)
	}

	other, err := locker.Lock(ctx, "voyage-2", 10*time.Millisecond)
	if err != nil {
		t.Fatalf("Expected other voyage to lock independently, got %v", err)
	}
	other()

	release()
	release()

	again, err := locker.Lock(ctx, "voyage-1", 10*time.Millisecond)
	if err != nil {
		t.Fatalf("Expected lock after release, got %v", err)
	}
	again()
}

func TestMemoryEventStream_PublishRead(t *testing.T) {
	stream := NewMemoryEventStream(4)
	ctx := context.Background()

	ev := &VoyageEvent{Type: constants.EventCascadeApplied, VesselID: "v1", VoyageID: "voy1", ReportID: "r1"}
	if err := stream.Publish(ctx, ev); err != nil {
		t.Fatalf("Expected publish to succeed, got %v", err)
	}

	got, id, err := stream.Read(ctx, "worker-1", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("Expected read to succeed, got %v", err)
	}
	if got == nil || got.ReportID != "r1" {
		t.Fatalf("Expected event for r1, got %+v", got)
	}
	if id == "" {
		t.Error("Expected a message id")
	}

	got, _, err = stream.Read(ctx, "worker-1", 10*time.Millisecond)
	if err != nil || got != nil {
		t.Errorf("Expected empty read after drain, got %+v, %v", got, err)
	}
}
