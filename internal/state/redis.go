package state

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"maestro/pkg/conn"
	"maestro/pkg/exception"
)

const redisKeyPrefix = "maestro:state:"

// RedisStore persists system state as a Redis hash, one hash per
// system ID, patched with partial HSET writes.
type RedisStore struct {
	client   *conn.RedisClient
	systemID string
	key      string
}

// NewRedisStore connects and verifies reachability.
func NewRedisStore(ctx context.Context, systemID string, option conn.RedisOption) (*RedisStore, error) {
	if systemID == "" {
		return nil, fmt.Errorf("system id is empty")
	}
	client := conn.NewRedis(option)
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisStore{
		client:   client,
		systemID: systemID,
		key:      redisKeyPrefix + systemID,
	}, nil
}

// Apply writes the patched fields into this system's hash.
func (s *RedisStore) Apply(ctx context.Context, patch Patch) UpdateResult {
	if s == nil || s.client == nil {
		return UpdateResult{Err: exception.ErrNilInstance}
	}

	fields := map[string]any{
		"systemId": s.systemID,
	}
	if patch.RunID != nil {
		fields["runId"] = *patch.RunID
	}
	if patch.Status != nil {
		fields["status"] = string(*patch.Status)
	}
	if patch.CycleCount != nil {
		fields["cycleCount"] = strconv.FormatUint(*patch.CycleCount, 10)
	}
	if patch.StartedAt != nil {
		fields["startedAt"] = strconv.FormatInt(*patch.StartedAt, 10)
	}
	if patch.LastCycleAt != nil {
		fields["lastCycleAt"] = strconv.FormatInt(*patch.LastCycleAt, 10)
	}
	if patch.LastError != nil {
		fields["lastError"] = *patch.LastError
	}
	if patch.LastErrorAt != nil {
		fields["lastErrorAt"] = strconv.FormatInt(*patch.LastErrorAt, 10)
	}
	if patch.ShutdownAt != nil {
		fields["shutdownAt"] = strconv.FormatInt(*patch.ShutdownAt, 10)
	}
	updatedAt := patch.UpdatedAt
	if updatedAt == 0 {
		updatedAt = time.Now().UTC().UnixNano()
	}
	fields["updatedAt"] = strconv.FormatInt(updatedAt, 10)

	if err := s.client.Redis().HSet(ctx, s.key, fields).Err(); err != nil {
		return UpdateResult{Err: err}
	}
	return UpdateResult{Applied: true}
}

// Load reads this system's hash and parses it into a document.
func (s *RedisStore) Load(ctx context.Context) (SystemState, error) {
	if s == nil || s.client == nil {
		return SystemState{}, exception.ErrNilInstance
	}

	values, err := s.client.Redis().HGetAll(ctx, s.key).Result()
	if err != nil {
		return SystemState{}, err
	}
	if len(values) == 0 {
		return SystemState{}, exception.ErrStateNotFound
	}

	doc := SystemState{
		SystemID:  s.systemID,
		RunID:     values["runId"],
		Status:    Status(values["status"]),
		LastError: values["lastError"],
	}
	if doc.CycleCount, err = parseUint(values["cycleCount"]); err != nil {
		return SystemState{}, err
	}
	if doc.StartedAt, err = parseInt(values["startedAt"]); err != nil {
		return SystemState{}, err
	}
	if doc.LastCycleAt, err = parseInt(values["lastCycleAt"]); err != nil {
		return SystemState{}, err
	}
	if doc.LastErrorAt, err = parseInt(values["lastErrorAt"]); err != nil {
		return SystemState{}, err
	}
	if doc.ShutdownAt, err = parseInt(values["shutdownAt"]); err != nil {
		return SystemState{}, err
	}
	if doc.UpdatedAt, err = parseInt(values["updatedAt"]); err != nil {
		return SystemState{}, err
	}
	return doc, nil
}

// Close closes the connection.
func (s *RedisStore) Close() error {
	if s == nil {
		return nil
	}
	return s.client.Close()
}

func parseUint(src string) (uint64, error) {
	if src == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(src, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse state field: %w", err)
	}
	return v, nil
}

func parseInt(src string) (int64, error) {
	if src == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(src, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse state field: %w", err)
	}
	return v, nil
}
