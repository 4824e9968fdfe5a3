package migration

import (
	"context"
	"database/sql"
	"fmt"
)

type artistSeed struct {
	ID        int64
	StageName string
}

type referralSeed struct {
	ID           int64
	Code         string
	OwnerName    string
	OverrideRate string
}

// seedDemoBeneficiaries inserts a handful of artists and referral codes
// so a fresh local database can accrue commissions immediately. The
// beneficiary catalogs are owned by external collaborators in any real
// deployment; this runs only when PALCO_SEED_DEMO=true.
func seedDemoBeneficiaries(ctx context.Context, db *sql.DB) error {
	artists := []artistSeed{
		{ID: 1001, StageName: "La Chispa"},
		{ID: 1002, StageName: "Don Carcajada"},
		{ID: 1003, StageName: "Mica Improvisa"},
	}
	referrals := []referralSeed{
		{ID: 2001, Code: "RISAS10", OwnerName: "Promotora Norte", OverrideRate: "5.00"},
		{ID: 2002, Code: "FUNNY5", OwnerName: "Club de Comedia Sur", OverrideRate: "2.50"},
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin demo seed transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, a := range artists {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO artists (id, stage_name, created_at)
			 VALUES ($1, $2, NOW())
			 ON CONFLICT (id) DO NOTHING`,
			a.ID, a.StageName,
		); err != nil {
			return fmt.Errorf("seed artist %s: %w", a.StageName, err)
		}
	}

	for _, r := range referrals {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO referral_codes (id, code, owner_name, override_rate_percent, created_at)
			 VALUES ($1, $2, $3, $4, NOW())
			 ON CONFLICT (id) DO NOTHING`,
			r.ID, r.Code, r.OwnerName, r.OverrideRate,
		); err != nil {
			return fmt.Errorf("seed referral code %s: %w", r.Code, err)
		}
	}

	return tx.Commit()
}
