package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	commissiondomain "github.com/palcolabs/palco/internal/commission/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a ledger repository bound to db, which may be a
// transaction handle. Services re-bind inside gorm transactions.
func NewRepository(db *gorm.DB) commissiondomain.Repository {
	return &repository{db: db}
}

func (r *repository) Exists(ctx context.Context, typ commissiondomain.Type, sourceRef string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&commissiondomain.Commission{}).
		Where("type = ? AND source_ref = ?", typ, sourceRef).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) Insert(ctx context.Context, row *commissiondomain.Commission) (bool, error) {
	// The unique (type, source_ref) index backstops the explicit Exists
	// check under concurrent replays of the same event.
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "type"}, {Name: "source_ref"}},
		DoNothing: true,
	}).Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) GetBySource(ctx context.Context, typ commissiondomain.Type, sourceRef string) (*commissiondomain.Commission, error) {
	// A miss here is the normal replay-lookup path, so avoid First and
	// its ErrRecordNotFound logging.
	var rows []commissiondomain.Commission
	err := r.db.WithContext(ctx).
		Where("type = ? AND source_ref = ?", typ, sourceRef).
		Limit(1).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *repository) List(ctx context.Context, filter commissiondomain.ListFilter) ([]commissiondomain.Commission, int64, error) {
	q := r.db.WithContext(ctx).Model(&commissiondomain.Commission{})

	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.BeneficiaryKind != "" {
		q = q.Where("beneficiary_kind = ?", filter.BeneficiaryKind)
	}
	if filter.BeneficiaryID != 0 {
		q = q.Where("beneficiary_id = ?", filter.BeneficiaryID)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at < ?", *filter.To)
	}
	if filter.Search != "" {
		q = q.Where("source_ref LIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}

	var rows []commissiondomain.Commission
	err := q.Order("created_at ASC, id ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&rows).Error
	return rows, total, err
}

func (r *repository) ListPendingLocked(ctx context.Context, kind commissiondomain.BeneficiaryKind, beneficiaryID snowflake.ID) ([]commissiondomain.Commission, error) {
	q := r.db.WithContext(ctx).
		Where("beneficiary_kind = ? AND beneficiary_id = ? AND status = ?",
			kind, beneficiaryID, commissiondomain.StatusPending)

	// sqlite has no row locks; the status guard in MarkPaid still keeps
	// concurrent settlements from paying the same row twice.
	if r.db.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var rows []commissiondomain.Commission
	err := q.Order("created_at ASC, id ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) MarkPaid(ctx context.Context, ids []snowflake.ID, paidAt time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&commissiondomain.Commission{}).
		Where("id IN ? AND status = ?", ids, commissiondomain.StatusPending).
		Updates(map[string]any{
			"status":  commissiondomain.StatusPaid,
			"paid_at": paidAt,
		})
	return res.RowsAffected, res.Error
}

type beneficiaryTypeRow struct {
	BeneficiaryKind commissiondomain.BeneficiaryKind
	BeneficiaryID   snowflake.ID
	Type            commissiondomain.Type
	AmountCents     int64
	RowCount        int64
}

func (r *repository) AggregateByBeneficiary(ctx context.Context, kind commissiondomain.BeneficiaryKind) ([]commissiondomain.BeneficiaryRollup, error) {
	var rows []beneficiaryTypeRow
	err := r.db.WithContext(ctx).Raw(
		`SELECT beneficiary_kind, beneficiary_id, type,
		        COALESCE(SUM(amount_cents), 0) AS amount_cents,
		        COUNT(*) AS row_count
		 FROM commissions
		 WHERE beneficiary_kind = ? AND status = ?
		 GROUP BY beneficiary_kind, beneficiary_id, type
		 ORDER BY beneficiary_id, type`,
		kind, commissiondomain.StatusPending,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	var rollups []commissiondomain.BeneficiaryRollup
	index := map[snowflake.ID]int{}
	for _, row := range rows {
		i, ok := index[row.BeneficiaryID]
		if !ok {
			rollups = append(rollups, commissiondomain.BeneficiaryRollup{
				BeneficiaryKind: row.BeneficiaryKind,
				BeneficiaryID:   row.BeneficiaryID,
			})
			i = len(rollups) - 1
			index[row.BeneficiaryID] = i
		}
		rollups[i].PendingAmountCents += row.AmountCents
		rollups[i].PendingCount += row.RowCount
		rollups[i].Breakdown = append(rollups[i].Breakdown, commissiondomain.TypeAmount{
			Type:        row.Type,
			AmountCents: row.AmountCents,
		})
	}
	return rollups, nil
}

func (r *repository) AggregateSummary(ctx context.Context, monthStart, monthEnd time.Time) (*commissiondomain.Summary, error) {
	var summary commissiondomain.Summary
	err := r.db.WithContext(ctx).Raw(
		`SELECT
		   COALESCE(SUM(CASE WHEN status = ? THEN amount_cents END), 0) AS pending_amount_cents,
		   COALESCE(SUM(CASE WHEN status = ? THEN 1 END), 0) AS pending_count,
		   COALESCE(SUM(CASE WHEN status = ? AND paid_at >= ? AND paid_at < ? THEN amount_cents END), 0) AS paid_this_month_amount_cents,
		   COALESCE(SUM(CASE WHEN status = ? AND paid_at >= ? AND paid_at < ? THEN 1 END), 0) AS paid_this_month_count,
		   COALESCE(SUM(CASE WHEN created_at >= ? AND created_at < ? THEN amount_cents END), 0) AS generated_this_month_amount_cents,
		   COALESCE(SUM(CASE WHEN created_at >= ? AND created_at < ? THEN 1 END), 0) AS generated_this_month_count
		 FROM commissions`,
		commissiondomain.StatusPending,
		commissiondomain.StatusPending,
		commissiondomain.StatusPaid, monthStart, monthEnd,
		commissiondomain.StatusPaid, monthStart, monthEnd,
		monthStart, monthEnd,
		monthStart, monthEnd,
	).Scan(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
