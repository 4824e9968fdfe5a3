// Package domain defines the settlement audit trail.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type AuditLog struct {
	ID         snowflake.ID   `gorm:"primaryKey" json:"id"`
	ActorID    string         `gorm:"type:text;not null" json:"actor_id"`
	ActorName  string         `gorm:"type:text" json:"actor_name"`
	Action     string         `gorm:"type:text;not null;index" json:"action"`
	TargetKind string         `gorm:"type:text;not null" json:"target_kind"`
	TargetID   string         `gorm:"type:text;not null;index" json:"target_id"`
	Detail     datatypes.JSON `gorm:"type:jsonb" json:"detail"`
	CreatedAt  time.Time      `gorm:"not null;index" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

type Entry struct {
	ActorID    string
	ActorName  string
	Action     string
	TargetKind string
	TargetID   string
	Detail     map[string]any
}

type Service interface {
	// Record appends one audit entry. Callers treat failures as
	// non-fatal; the ledger transaction they describe has already
	// committed.
	Record(ctx context.Context, entry Entry) error
}
