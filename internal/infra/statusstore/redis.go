package statusstore

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"pixmuse/internal/domain/generation"
	"pixmuse/internal/infra"
	"pixmuse/internal/pkg/clock"
	"pixmuse/internal/pkg/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store is the single read/write surface for "what is the current state of
// request X". Pollers and push subscribers read the same records, so the
// two paths can only differ in latency.
type Store interface {
	Create(ctx context.Context, snap generation.Snapshot) error
	Update(ctx context.Context, requestID uuid.UUID, patch generation.Patch) (*generation.Snapshot, error)
	Get(ctx context.Context, requestID uuid.UUID) (*generation.Snapshot, error)
	ListActive(ctx context.Context, userID *uuid.UUID) ([]generation.Snapshot, error)
}

// Event is one published status change, as seen by the notifier feed.
type Event struct {
	RequestID uuid.UUID
	Snapshot  generation.Snapshot
	Payload   []byte
}

const (
	keyPrefix        = "generation:req:"
	activeKey        = "generation:active"
	userActivePrefix = "generation:active:user:"
	channelPrefix    = "generation:updates:"
	channelPattern   = channelPrefix + "*"
)

// updateScript merges a partial update into the status hash. All mutation
// rules live here so they hold across processes: terminal states are
// absorbing, progress never decreases, updatedAt always advances, terminal
// records get a TTL and leave the active indexes. The new snapshot is
// published and returned.
var updateScript = redis.NewScript(`
local key = KEYS[1]
local active = KEYS[2]
local userActive = KEYS[3]
local channel = KEYS[4]
local requestId = ARGV[1]
local now = ARGV[2]
local ttl = tonumber(ARGV[3])

if redis.call('EXISTS', key) == 0 then
  return redis.error_reply('NOTFOUND')
end
local cur = redis.call('HGET', key, 'status')
if cur == 'complete' or cur == 'failed' then
  return redis.error_reply('TERMINAL')
end

local i = 4
while i < #ARGV do
  local field = ARGV[i]
  local value = ARGV[i+1]
  if field == 'progress' then
    local prev = tonumber(redis.call('HGET', key, 'progress') or '0')
    if tonumber(value) < prev then
      value = tostring(prev)
    end
  end
  redis.call('HSET', key, field, value)
  i = i + 2
end
redis.call('HSET', key, 'updatedAt', now)

local status = redis.call('HGET', key, 'status')
if status == 'complete' or status == 'failed' then
  redis.call('EXPIRE', key, ttl)
  redis.call('SREM', active, requestId)
  redis.call('SREM', userActive, requestId)
end

local h = redis.call('HGETALL', key)
local snap = {}
for j = 1, #h, 2 do
  if h[j] == 'progress' then
    snap[h[j]] = tonumber(h[j+1])
  elseif h[j+1] ~= '' then
    snap[h[j]] = h[j+1]
  end
end
local payload = cjson.encode(snap)
redis.call('PUBLISH', channel, payload)
return payload
`)

type RedisStore struct {
	rdb   *redis.Client
	ttl   time.Duration
	clock clock.Clock
	log   *slog.Logger
}

func NewRedisStore(rdb *redis.Client, cfg config.PipelineConfig, clock clock.Clock, log *slog.Logger) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: cfg.StatusTTL, clock: clock, log: log}
}

func reqKey(id uuid.UUID) string        { return keyPrefix + id.String() }
func userActiveKey(id uuid.UUID) string { return userActivePrefix + id.String() }
func Channel(id uuid.UUID) string       { return channelPrefix + id.String() }

// Create writes the initial queued record. Request ids are never reused, so
// an existing record is a hard error.
func (s *RedisStore) Create(ctx context.Context, snap generation.Snapshot) error {
	key := reqKey(snap.RequestID)

	ok, err := s.rdb.HSetNX(ctx, key, "requestId", snap.RequestID.String()).Result()
	if err != nil {
		return infra.WrapRepoErr(infra.KindUnavailable, "failed to create status record", err)
	}
	if !ok {
		return infra.WrapRepoErr(infra.KindDuplicateKey, "status record already exists", nil)
	}

	created := snap.CreatedAt.UTC().Format(time.RFC3339Nano)
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key,
		"userId", snap.UserID.String(),
		"kind", string(snap.Kind),
		"status", string(generation.StatusQueued),
		"progress", "0",
		"message", snap.Message,
		"createdAt", created,
		"updatedAt", created,
	)
	pipe.SAdd(ctx, activeKey, snap.RequestID.String())
	pipe.SAdd(ctx, userActiveKey(snap.UserID), snap.RequestID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return infra.WrapRepoErr(infra.KindUnavailable, "failed to initialize status record", err)
	}

	snap.Status = generation.StatusQueued
	snap.Progress = 0
	snap.UpdatedAt = snap.CreatedAt
	if payload, err := json.Marshal(snap); err == nil {
		s.rdb.Publish(ctx, Channel(snap.RequestID), payload)
	}
	return nil
}

func (s *RedisStore) Update(ctx context.Context, requestID uuid.UUID, patch generation.Patch) (*generation.Snapshot, error) {
	args := []any{requestID.String(), s.clock.Now().UTC().Format(time.RFC3339Nano), int(s.ttl.Seconds())}
	if patch.Status != nil {
		if !patch.Status.IsValid() {
			return nil, infra.WrapRepoErr(infra.KindConflict, "invalid status", nil)
		}
		args = append(args, "status", string(*patch.Status))
	}
	if patch.Progress != nil {
		args = append(args, "progress", strconv.Itoa(*patch.Progress))
	}
	if patch.Message != nil {
		args = append(args, "message", *patch.Message)
	}
	if patch.SetID != nil {
		args = append(args, "setId", patch.SetID.String())
	}
	if patch.Error != nil {
		args = append(args, "error", *patch.Error)
	}

	// the user active set key is derived from the stored userId; fetch it
	// first so the script can clean up the per-user index on terminal
	owner, err := s.rdb.HGet(ctx, reqKey(requestID), "userId").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, infra.WrapRepoErr(infra.KindNotFound, "status record not found", err)
		}
		return nil, infra.WrapRepoErr(infra.KindUnavailable, "failed to read status record", err)
	}
	ownerID, err := uuid.Parse(owner)
	if err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "corrupt status record owner", err)
	}

	keys := []string{reqKey(requestID), activeKey, userActiveKey(ownerID), Channel(requestID)}
	payload, err := updateScript.Run(ctx, s.rdb, keys, args...).Text()
	if err != nil {
		switch {
		case strings.Contains(err.Error(), "NOTFOUND"):
			return nil, infra.WrapRepoErr(infra.KindNotFound, "status record not found", err)
		case strings.Contains(err.Error(), "TERMINAL"):
			return nil, infra.WrapRepoErr(infra.KindConflict, "status record is terminal", err)
		default:
			return nil, infra.WrapRepoErr(infra.KindUnavailable, "failed to update status record", err)
		}
	}

	var snap generation.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to decode status snapshot", err)
	}
	return &snap, nil
}

func (s *RedisStore) Get(ctx context.Context, requestID uuid.UUID) (*generation.Snapshot, error) {
	fields, err := s.rdb.HGetAll(ctx, reqKey(requestID)).Result()
	if err != nil {
		return nil, infra.WrapRepoErr(infra.KindUnavailable, "failed to read status record", err)
	}
	if len(fields) == 0 {
		return nil, infra.WrapRepoErr(infra.KindNotFound, "status record not found", nil)
	}
	return parseSnapshot(fields)
}

func (s *RedisStore) ListActive(ctx context.Context, userID *uuid.UUID) ([]generation.Snapshot, error) {
	indexKey := activeKey
	if userID != nil {
		indexKey = userActiveKey(*userID)
	}

	ids, err := s.rdb.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, infra.WrapRepoErr(infra.KindUnavailable, "failed to list active requests", err)
	}

	snaps := make([]generation.Snapshot, 0, len(ids))
	for _, idStr := range ids {
		id, parseErr := uuid.Parse(idStr)
		if parseErr != nil {
			s.rdb.SRem(ctx, indexKey, idStr)
			continue
		}
		snap, getErr := s.Get(ctx, id)
		if getErr != nil {
			if infra.IsKind(getErr, infra.KindNotFound) {
				// record expired out from under the index
				s.rdb.SRem(ctx, indexKey, idStr)
				continue
			}
			return nil, getErr
		}
		if snap.Status.IsTerminal() {
			s.rdb.SRem(ctx, indexKey, idStr)
			continue
		}
		snaps = append(snaps, *snap)
	}
	return snaps, nil
}

// Watch subscribes to every status update published by this store and
// feeds them to the notifier. The channel closes when ctx is done.
func (s *RedisStore) Watch(ctx context.Context) (<-chan Event, error) {
	pubsub := s.rdb.PSubscribe(ctx, channelPattern)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, infra.WrapRepoErr(infra.KindUnavailable, "failed to subscribe to status updates", err)
	}

	out := make(chan Event, 64)
	go func() {
		defer close(out)
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				id, err := uuid.Parse(strings.TrimPrefix(msg.Channel, channelPrefix))
				if err != nil {
					continue
				}
				var snap generation.Snapshot
				if err := json.Unmarshal([]byte(msg.Payload), &snap); err != nil {
					s.log.Warn("dropping undecodable status event", "channel", msg.Channel, "error", err)
					continue
				}
				select {
				case out <- Event{RequestID: id, Snapshot: snap, Payload: []byte(msg.Payload)}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func parseSnapshot(fields map[string]string) (*generation.Snapshot, error) {
	var snap generation.Snapshot
	var err error

	if snap.RequestID, err = uuid.Parse(fields["requestId"]); err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "corrupt status record: requestId", err)
	}
	if snap.UserID, err = uuid.Parse(fields["userId"]); err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "corrupt status record: userId", err)
	}
	snap.Kind = generation.Kind(fields["kind"])
	snap.Status = generation.Status(fields["status"])
	if v := fields["progress"]; v != "" {
		if snap.Progress, err = strconv.Atoi(v); err != nil {
			return nil, infra.WrapRepoErr(infra.KindDBFailure, "corrupt status record: progress", err)
		}
	}
	snap.Message = fields["message"]
	snap.Error = fields["error"]
	if v := fields["setId"]; v != "" {
		setID, parseErr := uuid.Parse(v)
		if parseErr != nil {
			return nil, infra.WrapRepoErr(infra.KindDBFailure, "corrupt status record: setId", parseErr)
		}
		snap.SetID = &setID
	}
	if v := fields["createdAt"]; v != "" {
		if snap.CreatedAt, err = time.Parse(time.RFC3339Nano, v); err != nil {
			return nil, infra.WrapRepoErr(infra.KindDBFailure, "corrupt status record: createdAt", err)
		}
	}
	if v := fields["updatedAt"]; v != "" {
		if snap.UpdatedAt, err = time.Parse(time.RFC3339Nano, v); err != nil {
			return nil, infra.WrapRepoErr(infra.KindDBFailure, "corrupt status record: updatedAt", err)
		}
	}
	return &snap, nil
}
