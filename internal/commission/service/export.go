package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	commissiondomain "github.com/palcolabs/palco/internal/commission/domain"
	"gorm.io/gorm"
)

type ExportService struct {
	db *gorm.DB
}

func NewExportService(db *gorm.DB) commissiondomain.ExportService {
	return &ExportService{db: db}
}

func (s *ExportService) Export(ctx context.Context, req commissiondomain.ExportRequest, format commissiondomain.ExportFormat) (*commissiondomain.ExportResult, error) {
	if !req.To.After(req.From) {
		return nil, commissiondomain.ErrInvalidExportWindow
	}

	query := s.db.WithContext(ctx).Model(&commissiondomain.Commission{}).
		Where("status = ?", commissiondomain.StatusPaid).
		Where("paid_at >= ? AND paid_at < ?", req.From, req.To)
	if req.Type != "" {
		query = query.Where("type = ?", req.Type)
	}

	var rows []commissiondomain.Commission
	if err := query.Order("paid_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	var data []byte
	var err error
	switch format {
	case commissiondomain.ExportFormatCSV:
		data, err = formatCSV(rows)
	case commissiondomain.ExportFormatJSON:
		data, err = json.Marshal(rows)
	default:
		return nil, fmt.Errorf("%w: %s", commissiondomain.ErrInvalidExportFormat, format)
	}
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	return &commissiondomain.ExportResult{
		Data:     data,
		Checksum: hex.EncodeToString(sum[:]),
		Format:   format,
		Count:    len(rows),
	}, nil
}

func formatCSV(rows []commissiondomain.Commission) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"id",
		"type",
		"source_ref",
		"beneficiary_kind",
		"beneficiary_id",
		"amount_cents",
		"rate_percent",
		"created_at",
		"paid_at",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, row := range rows {
		paidAt := ""
		if row.PaidAt != nil {
			paidAt = row.PaidAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			row.ID.String(),
			string(row.Type),
			row.SourceRef,
			string(row.BeneficiaryKind),
			row.BeneficiaryID.String(),
			strconv.FormatInt(row.AmountCents, 10),
			row.RatePercent.String(),
			row.CreatedAt.UTC().Format(time.RFC3339),
			paidAt,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
