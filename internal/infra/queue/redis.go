package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"pixmuse/internal/domain/generation"
	"pixmuse/internal/infra"
	"pixmuse/internal/pkg/config"

	"github.com/redis/go-redis/v9"
)

// Delivery is one queue message handed to a worker. ID is the stream entry
// id used for acknowledgment; Redelivered marks entries reclaimed from a
// crashed consumer.
type Delivery struct {
	ID          string
	Job         generation.Job
	Redelivered bool
}

// RedisQueue is the generation job queue: a Redis stream consumed through a
// consumer group, so the broker guarantees at-most-one active delivery per
// message. Messages stay pending until XACKed; reclaiming idle pending
// entries is the crash-redelivery path.
type RedisQueue struct {
	rdb            *redis.Client
	stream         string
	group          string
	redeliveryIdle time.Duration
	log            *slog.Logger
}

func NewRedisQueue(rdb *redis.Client, cfg config.PipelineConfig, log *slog.Logger) *RedisQueue {
	return &RedisQueue{
		rdb:            rdb,
		stream:         cfg.Stream,
		group:          cfg.Group,
		redeliveryIdle: cfg.RedeliveryIdle,
		log:            log,
	}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job generation.Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return infra.WrapRepoErr(infra.KindDBFailure, "failed to encode job", err)
	}

	err = q.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]any{"body": body},
	}).Err()
	if err != nil {
		return infra.WrapRepoErr(infra.KindUnavailable, "failed to enqueue job", err)
	}
	return nil
}

// Ping is the producer's liveness probe. It also bootstraps the consumer
// group so a probe against a fresh Redis leaves the queue consumable.
func (q *RedisQueue) Ping(ctx context.Context) error {
	if err := q.rdb.Ping(ctx).Err(); err != nil {
		return infra.WrapRepoErr(infra.KindUnavailable, "queue unreachable", err)
	}
	return q.EnsureGroup(ctx)
}

func (q *RedisQueue) EnsureGroup(ctx context.Context) error {
	err := q.rdb.XGroupCreateMkStream(ctx, q.stream, q.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return infra.WrapRepoErr(infra.KindUnavailable, "failed to create consumer group", err)
	}
	return nil
}

// Fetch returns the next delivery for the given consumer, blocking up to
// block for a new entry. When no new entries arrive it tries to reclaim a
// pending entry another consumer left idle past the redelivery threshold.
// Returns (nil, nil) when there is nothing to do.
func (q *RedisQueue) Fetch(ctx context.Context, consumer string, block time.Duration) (*Delivery, error) {
	res, err := q.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.group,
		Consumer: consumer,
		Streams:  []string{q.stream, ">"},
		Count:    1,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return q.claimStale(ctx, consumer)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, infra.WrapRepoErr(infra.KindUnavailable, "failed to read from queue", err)
	}

	for _, stream := range res {
		for _, msg := range stream.Messages {
			return q.toDelivery(ctx, msg, false)
		}
	}
	return nil, nil
}

func (q *RedisQueue) claimStale(ctx context.Context, consumer string) (*Delivery, error) {
	msgs, _, err := q.rdb.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   q.stream,
		Group:    q.group,
		Consumer: consumer,
		MinIdle:  q.redeliveryIdle,
		Start:    "0-0",
		Count:    1,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, infra.WrapRepoErr(infra.KindUnavailable, "failed to claim stale delivery", err)
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	return q.toDelivery(ctx, msgs[0], true)
}

func (q *RedisQueue) toDelivery(ctx context.Context, msg redis.XMessage, redelivered bool) (*Delivery, error) {
	body, ok := msg.Values["body"].(string)
	if !ok {
		// poison entry: ack it away so it cannot wedge the group
		q.log.Error("dropping malformed queue entry", "entry_id", msg.ID)
		_ = q.Ack(ctx, msg.ID)
		return nil, nil
	}

	var job generation.Job
	if err := json.Unmarshal([]byte(body), &job); err != nil {
		q.log.Error("dropping undecodable queue entry", "entry_id", msg.ID, "error", err)
		_ = q.Ack(ctx, msg.ID)
		return nil, nil
	}

	return &Delivery{ID: msg.ID, Job: job, Redelivered: redelivered}, nil
}

func (q *RedisQueue) Ack(ctx context.Context, entryID string) error {
	if err := q.rdb.XAck(ctx, q.stream, q.group, entryID).Err(); err != nil {
		return infra.WrapRepoErr(infra.KindUnavailable, "failed to ack delivery", err)
	}
	return nil
}
