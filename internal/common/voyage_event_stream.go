package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"seaborne/voyagedesk/internal/logging"
)

// VoyageEvent announces a change to the reports of a voyage.
type VoyageEvent struct {
	Type       string    `json:"type"`
	VesselID   string    `json:"vessel_id"`
	VoyageID   string    `json:"voyage_id,omitempty"`
	ReportID   string    `json:"report_id"`
	Actor      string    `json:"actor"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventStream publishes voyage events and hands them to consumers.
type EventStream interface {
	Publish(ctx context.Context, ev *VoyageEvent) error
	// Read blocks up to block for the next event. A nil event with a nil
	// error means nothing arrived.
	Read(ctx context.Context, consumer string, block time.Duration) (*VoyageEvent, string, error)
	Ack(ctx context.Context, messageID string) error
	// ClaimStale takes over events left unacknowledged by dead consumers.
	ClaimStale(ctx context.Context, consumer string, minIdle time.Duration) ([]*VoyageEvent, []string, error)
}

// RedisEventStream is the EventStream backed by a Redis Stream and a
// consumer group.
type RedisEventStream struct {
	client *redis.Client
	stream string
	group  string
}

var _ EventStream = (*RedisEventStream)(nil)

func NewRedisEventStream(client *redis.Client, stream, group string) *RedisEventStream {
	return &RedisEventStream{client: client, stream: stream, group: group}
}

// CreateConsumerGroup creates the consumer group if it does not exist yet.
func (s *RedisEventStream) CreateConsumerGroup(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.stream, s.group, "0").Err()
	if err != nil && err.Error() == "BUSYGROUP Consumer Group name already exists" {
		return nil
	}
	return err
}

func (s *RedisEventStream) Publish(ctx context.Context, ev *VoyageEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal voyage event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: 10000,
		Approx: true,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}

	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to add to stream: %w", err)
	}
	return nil
}

func (s *RedisEventStream) Read(ctx context.Context, consumer string, block time.Duration) (*VoyageEvent, string, error) {
	args := &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: consumer,
		Streams:  []string{s.stream, ">"},
		Count:    1,
		Block:    block,
	}

	streams, err := s.client.XReadGroup(ctx, args).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("failed to read from stream: %w", err)
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, "", nil
	}

	msg := streams[0].Messages[0]
	ev, err := decodeEvent(msg)
	if err != nil {
		return nil, msg.ID, err
	}
	return ev, msg.ID, nil
}

func (s *RedisEventStream) Ack(ctx context.Context, messageID string) error {
	return s.client.XAck(ctx, s.stream, s.group, messageID).Err()
}

func (s *RedisEventStream) ClaimStale(ctx context.Context, consumer string, minIdle time.Duration) ([]*VoyageEvent, []string, error) {
	pending, err := s.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: s.stream,
		Group:  s.group,
		Start:  "-",
		End:    "+",
		Count:  100,
	}).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get pending messages: %w", err)
	}

	var staleIDs []string
	for _, p := range pending {
		if p.Idle >= minIdle {
			staleIDs = append(staleIDs, p.ID)
		}
	}
	if len(staleIDs) == 0 {
		return nil, nil, nil
	}

	messages, err := s.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   s.stream,
		Group:    s.group,
		Consumer: consumer,
		MinIdle:  minIdle,
		Messages: staleIDs,
	}).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to claim stale messages: %w", err)
	}

	var events []*VoyageEvent
	var ids []string
	for _, msg := range messages {
		ev, err := decodeEvent(msg)
		if err != nil {
			logging.Warn("Dropping undecodable voyage event", "message_id", msg.ID, "error", err)
			_ = s.Ack(ctx, msg.ID)
			continue
		}
		events = append(events, ev)
		ids = append(ids, msg.ID)
	}
	return events, ids, nil
}

func decodeEvent(msg redis.XMessage) (*VoyageEvent, error) {
	dataStr, ok := msg.Values["data"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid message format: data field missing")
	}
	var ev VoyageEvent
	if err := json.Unmarshal([]byte(dataStr), &ev); err != nil {
		return nil, fmt.Errorf("failed to unmarshal voyage event: %w", err)
	}
	return &ev, nil
}

// MemoryEventStream is an in-process EventStream for single instance runs
// without Redis. Events are delivered at most once.
type MemoryEventStream struct {
	ch  chan *VoyageEvent
	seq atomic.Uint64
}

var _ EventStream = (*MemoryEventStream)(nil)

func NewMemoryEventStream(buffer int) *MemoryEventStream {
	return &MemoryEventStream{ch: make(chan *VoyageEvent, buffer)}
}

// Publish never blocks; events are dropped when the buffer is full.
func (s *MemoryEventStream) Publish(ctx context.Context, ev *VoyageEvent) error {
	select {
	case s.ch <- ev:
		return nil
	default:
		logging.Warn("Voyage event buffer full, dropping event", "type", ev.Type, "report_id", ev.ReportID)
		return nil
	}
}

func (s *MemoryEventStream) Read(ctx context.Context, consumer string, block time.Duration) (*VoyageEvent, string, error) {
	timer := time.NewTimer(block)
	defer timer.Stop()

	select {
	case ev := <-s.ch:
		return ev, fmt.Sprintf("mem-%d", s.seq.Add(1)), nil
	case <-timer.C:
		return nil, "", nil
	case <-ctx.Done():
		return nil, "", ctx.Err()
	}
}

func (s *MemoryEventStream) Ack(ctx context.Context, messageID string) error {
	return nil
}

func (s *MemoryEventStream) ClaimStale(ctx context.Context, consumer string, minIdle time.Duration) ([]*VoyageEvent, []string, error) {
	return nil, nil, nil
}
