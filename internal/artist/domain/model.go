// Package domain holds the artist read model consumed by the ledger.
// The artist catalog itself is owned by an external collaborator; the
// ledger only resolves beneficiary references and display names.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Artist struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	StageName string       `gorm:"type:text;not null" json:"stage_name"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
}

func (Artist) TableName() string { return "artists" }

type Repository interface {
	// Get returns nil without error when the artist does not exist.
	Get(ctx context.Context, id snowflake.ID) (*Artist, error)
	GetMany(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]Artist, error)
}
