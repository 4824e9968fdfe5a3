package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	artistdomain "github.com/palcolabs/palco/internal/artist/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) artistdomain.Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, id snowflake.ID) (*artistdomain.Artist, error) {
	var artist artistdomain.Artist
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&artist).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &artist, nil
}

func (r *repository) GetMany(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]artistdomain.Artist, error) {
	out := make(map[snowflake.ID]artistdomain.Artist, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var artists []artistdomain.Artist
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&artists).Error; err != nil {
		return nil, err
	}
	for _, a := range artists {
		out[a.ID] = a
	}
	return out, nil
}
