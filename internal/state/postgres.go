package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"maestro/pkg/conn"
	"maestro/pkg/exception"
)

// systemStateRecord is the gorm model backing the system_states table.
type systemStateRecord struct {
	SystemID    string `gorm:"column:system_id;primaryKey"`
	RunID       string `gorm:"column:run_id"`
	Status      string `gorm:"column:status"`
	CycleCount  uint64 `gorm:"column:cycle_count"`
	StartedAt   int64  `gorm:"column:started_at"`
	LastCycleAt int64  `gorm:"column:last_cycle_at"`
	LastError   string `gorm:"column:last_error"`
	LastErrorAt int64  `gorm:"column:last_error_at"`
	ShutdownAt  int64  `gorm:"column:shutdown_at"`
	UpdatedAt   int64  `gorm:"column:updated_at"`
}

func (systemStateRecord) TableName() string {
	return "system_states"
}

// PostgresStore persists system state in PostgreSQL, one row per
// system ID, patched with upserts.
type PostgresStore struct {
	client   *conn.PostgresClient
	systemID string
}

// NewPostgresStore connects and migrates the backing table.
func NewPostgresStore(systemID string, option conn.PostgresOption) (*PostgresStore, error) {
	if systemID == "" {
		return nil, fmt.Errorf("system id is empty")
	}
	client, err := conn.NewPostgres(option)
	if err != nil {
		return nil, err
	}
	if err := client.DB().AutoMigrate(&systemStateRecord{}); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &PostgresStore{client: client, systemID: systemID}, nil
}

// Apply upserts the patched columns for this system's row.
func (s *PostgresStore) Apply(ctx context.Context, patch Patch) UpdateResult {
	if s == nil || s.client == nil {
		return UpdateResult{Err: exception.ErrNilInstance}
	}

	record := systemStateRecord{SystemID: s.systemID}
	assign := make(map[string]any)
	if patch.RunID != nil {
		record.RunID = *patch.RunID
		assign["run_id"] = *patch.RunID
	}
	if patch.Status != nil {
		record.Status = string(*patch.Status)
		assign["status"] = string(*patch.Status)
	}
	if patch.CycleCount != nil {
		record.CycleCount = *patch.CycleCount
		assign["cycle_count"] = *patch.CycleCount
	}
	if patch.StartedAt != nil {
		record.StartedAt = *patch.StartedAt
		assign["started_at"] = *patch.StartedAt
	}
	if patch.LastCycleAt != nil {
		record.LastCycleAt = *patch.LastCycleAt
		assign["last_cycle_at"] = *patch.LastCycleAt
	}
	if patch.LastError != nil {
		record.LastError = *patch.LastError
		assign["last_error"] = *patch.LastError
	}
	if patch.LastErrorAt != nil {
		record.LastErrorAt = *patch.LastErrorAt
		assign["last_error_at"] = *patch.LastErrorAt
	}
	if patch.ShutdownAt != nil {
		record.ShutdownAt = *patch.ShutdownAt
		assign["shutdown_at"] = *patch.ShutdownAt
	}
	updatedAt := patch.UpdatedAt
	if updatedAt == 0 {
		updatedAt = time.Now().UTC().UnixNano()
	}
	record.UpdatedAt = updatedAt
	assign["updated_at"] = updatedAt

	err := s.client.DB().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "system_id"}},
			DoUpdates: clause.Assignments(assign),
		}).
		Create(&record).Error
	if err != nil {
		return UpdateResult{Err: err}
	}
	return UpdateResult{Applied: true}
}

// Load returns the stored row for this system.
func (s *PostgresStore) Load(ctx context.Context) (SystemState, error) {
	if s == nil || s.client == nil {
		return SystemState{}, exception.ErrNilInstance
	}

	var record systemStateRecord
	err := s.client.DB().WithContext(ctx).
		Where("system_id = ?", s.systemID).
		Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SystemState{}, exception.ErrStateNotFound
		}
		return SystemState{}, err
	}
	return record.toState(), nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	if s == nil {
		return nil
	}
	return s.client.Close()
}

func (r systemStateRecord) toState() SystemState {
	return SystemState{
		SystemID:    r.SystemID,
		RunID:       r.RunID,
		Status:      Status(r.Status),
		CycleCount:  r.CycleCount,
		StartedAt:   r.StartedAt,
		LastCycleAt: r.LastCycleAt,
		LastError:   r.LastError,
		LastErrorAt: r.LastErrorAt,
		ShutdownAt:  r.ShutdownAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
