package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-batch-api/internal/models"
)

// PaymentRepository answers whether an enrollment has received any payment.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs a PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// IsPaidOrPartial evaluates fee-detail statuses and, when none exist, installment statuses.
func (r *PaymentRepository) IsPaidOrPartial(ctx context.Context, enrollmentID string) (bool, error) {
	fees, err := r.statuses(ctx, `SELECT status FROM enrollment_fee_details WHERE enrollment_id = $1`, enrollmentID)
	if err != nil {
		return false, fmt.Errorf("load fee details: %w", err)
	}
	if len(fees) > 0 {
		return models.IsPaidOrPartial(fees, nil), nil
	}

	installments, err := r.statuses(ctx, `SELECT status FROM enrollment_installments WHERE enrollment_id = $1`, enrollmentID)
	if err != nil {
		return false, fmt.Errorf("load installments: %w", err)
	}
	return models.IsPaidOrPartial(nil, installments), nil
}

func (r *PaymentRepository) statuses(ctx context.Context, query, enrollmentID string) ([]models.PaymentStatus, error) {
	var raw []string
	if err := r.db.SelectContext(ctx, &raw, query, enrollmentID); err != nil {
		return nil, err
	}
	out := make([]models.PaymentStatus, len(raw))
	for i, status := range raw {
		out[i] = models.NormalizePaymentStatus(status)
	}
	return out, nil
}
