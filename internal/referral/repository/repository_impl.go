package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	referraldomain "github.com/palcolabs/palco/internal/referral/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) referraldomain.Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, id snowflake.ID) (*referraldomain.ReferralCode, error) {
	var code referraldomain.ReferralCode
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&code).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &code, nil
}

func (r *repository) GetMany(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]referraldomain.ReferralCode, error) {
	out := make(map[snowflake.ID]referraldomain.ReferralCode, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var codes []referraldomain.ReferralCode
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&codes).Error; err != nil {
		return nil, err
	}
	for _, c := range codes {
		out[c.ID] = c
	}
	return out, nil
}
