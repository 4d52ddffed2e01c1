package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, organisation_id, order_number, order_seq, order_type,
	payment_method, table_number, room_number, order_name, email, phone,
	sms_phone, invoice_choice, invoice_type, fiscal_name, fiscal_id,
	fiscal_address, subtotal, tip, service_charge, total_tax, total_amount,
	payment_status, created_at, updated_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.OrganisationID, &o.OrderNumber, &o.OrderSeq, &o.OrderType,
		&o.PaymentMethod, &o.TableNumber, &o.RoomNumber, &o.OrderName,
		&o.Email, &o.Phone, &o.SmsPhone, &o.InvoiceChoice, &o.InvoiceType,
		&o.FiscalName, &o.FiscalID, &o.FiscalAddress, &o.Subtotal, &o.Tip,
		&o.ServiceCharge, &o.TotalTax, &o.TotalAmount, &o.PaymentStatus,
		&o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

// GetNextOrderNumber returns the next order sequence for the organisation.
// Concurrent callers can read the same value; CreateOrder's unique
// constraint on (organisation_id, order_number) catches the race and the
// service retries.
func (q *Queries) GetNextOrderNumber(ctx context.Context, organisationID uuid.UUID) (int32, error) {
	var next int32
	err := q.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(order_seq), 0) + 1 FROM orders WHERE organisation_id = $1`,
		organisationID,
	).Scan(&next)
	return next, err
}

type CreateOrderParams struct {
	OrganisationID uuid.UUID
	OrderNumber    string
	OrderSeq       int32
	OrderType      string
	PaymentMethod  string
	TableNumber    pgtype.Text
	RoomNumber     pgtype.Text
	OrderName      pgtype.Text
	Email          pgtype.Text
	Phone          pgtype.Text
	SmsPhone       pgtype.Text
	InvoiceChoice  []string
	InvoiceType    string
	FiscalName     pgtype.Text
	FiscalID       pgtype.Text
	FiscalAddress  pgtype.Text
	Subtotal       pgtype.Numeric
	Tip            pgtype.Numeric
	ServiceCharge  pgtype.Numeric
	TotalTax       pgtype.Numeric
	TotalAmount    pgtype.Numeric
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx,
		`INSERT INTO orders (
			organisation_id, order_number, order_seq, order_type,
			payment_method, table_number, room_number, order_name, email,
			phone, sms_phone, invoice_choice, invoice_type, fiscal_name,
			fiscal_id, fiscal_address, subtotal, tip, service_charge,
			total_tax, total_amount
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21
		) RETURNING `+orderColumns,
		arg.OrganisationID, arg.OrderNumber, arg.OrderSeq, arg.OrderType,
		arg.PaymentMethod, arg.TableNumber, arg.RoomNumber, arg.OrderName,
		arg.Email, arg.Phone, arg.SmsPhone, arg.InvoiceChoice,
		arg.InvoiceType, arg.FiscalName, arg.FiscalID, arg.FiscalAddress,
		arg.Subtotal, arg.Tip, arg.ServiceCharge, arg.TotalTax,
		arg.TotalAmount,
	)
	return scanOrder(row)
}

type CreateOrderItemParams struct {
	OrderID       uuid.UUID
	ProductRef    string
	ItemType      string
	Quantity      int32
	Note          pgtype.Text
	Extras        []byte
	ComboProducts []byte
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	var it OrderItem
	err := q.db.QueryRow(ctx,
		`INSERT INTO order_items (
			order_id, product_ref, item_type, quantity, note, extras,
			combo_products
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, order_id, product_ref, item_type, quantity, note,
			extras, combo_products`,
		arg.OrderID, arg.ProductRef, arg.ItemType, arg.Quantity, arg.Note,
		arg.Extras, arg.ComboProducts,
	).Scan(
		&it.ID, &it.OrderID, &it.ProductRef, &it.ItemType, &it.Quantity,
		&it.Note, &it.Extras, &it.ComboProducts,
	)
	return it, err
}

type GetOrderByNumberParams struct {
	OrganisationID uuid.UUID
	OrderNumber    string
}

func (q *Queries) GetOrderByNumber(ctx context.Context, arg GetOrderByNumberParams) (Order, error) {
	row := q.db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders
		WHERE organisation_id = $1 AND order_number = $2`,
		arg.OrganisationID, arg.OrderNumber,
	)
	return scanOrder(row)
}

type UpdateOrderPaymentStatusParams struct {
	ID            uuid.UUID
	PaymentStatus pgtype.Text
}

func (q *Queries) UpdateOrderPaymentStatus(ctx context.Context, arg UpdateOrderPaymentStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx,
		`UPDATE orders SET payment_status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+orderColumns,
		arg.ID, arg.PaymentStatus,
	)
	return scanOrder(row)
}

func (q *Queries) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, order_id, product_ref, item_type, quantity, note, extras,
			combo_products
		FROM order_items WHERE order_id = $1 ORDER BY id`,
		orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.ProductRef, &it.ItemType, &it.Quantity,
			&it.Note, &it.Extras, &it.ComboProducts,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
