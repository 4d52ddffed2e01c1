package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type CreatePaymentAttemptParams struct {
	OrderID              uuid.UUID
	OrganisationID       uuid.UUID
	Amount               pgtype.Numeric
	Description          pgtype.Text
	PaymentMethodID      pgtype.Text
	Installments         int32
	PayerEmail           pgtype.Text
	IdentificationType   pgtype.Text
	IdentificationNumber pgtype.Text
	Status               string
	ProviderStatus       pgtype.Text
	FailureReason        pgtype.Text
}

const attemptColumns = `id, order_id, organisation_id, amount, description,
	payment_method_id, installments, payer_email, identification_type,
	identification_number, status, provider_status, failure_reason, created_at`

func scanAttempt(row interface{ Scan(dest ...any) error }) (PaymentAttempt, error) {
	var a PaymentAttempt
	err := row.Scan(
		&a.ID, &a.OrderID, &a.OrganisationID, &a.Amount, &a.Description,
		&a.PaymentMethodID, &a.Installments, &a.PayerEmail,
		&a.IdentificationType, &a.IdentificationNumber, &a.Status,
		&a.ProviderStatus, &a.FailureReason, &a.CreatedAt,
	)
	return a, err
}

func (q *Queries) CreatePaymentAttempt(ctx context.Context, arg CreatePaymentAttemptParams) (PaymentAttempt, error) {
	row := q.db.QueryRow(ctx,
		`INSERT INTO payment_attempts (
			order_id, organisation_id, amount, description,
			payment_method_id, installments, payer_email,
			identification_type, identification_number, status,
			provider_status, failure_reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+attemptColumns,
		arg.OrderID, arg.OrganisationID, arg.Amount, arg.Description,
		arg.PaymentMethodID, arg.Installments, arg.PayerEmail,
		arg.IdentificationType, arg.IdentificationNumber, arg.Status,
		arg.ProviderStatus, arg.FailureReason,
	)
	return scanAttempt(row)
}

func (q *Queries) ListPaymentAttemptsByOrder(ctx context.Context, orderID uuid.UUID) ([]PaymentAttempt, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+attemptColumns+` FROM payment_attempts
		WHERE order_id = $1 ORDER BY created_at`,
		orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []PaymentAttempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
