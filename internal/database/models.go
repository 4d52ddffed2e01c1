package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Order is a customer order captured at checkout. Orders are immutable
// after creation except for payment_status, which moves once when the
// online payment resolves.
type Order struct {
	ID             uuid.UUID
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
	PaymentStatus  pgtype.Text
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OrderItem is a single cart line. Extras and combo selections are stored
// as JSON documents; this service never queries inside them.
type OrderItem struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	ProductRef    string
	ItemType      string
	Quantity      int32
	Note          pgtype.Text
	Extras        []byte
	ComboProducts []byte
}

// PaymentAttempt records one submission of tokenized payment data for an
// order, with its resulting status. There is no retry state machine; each
// submission inserts a new row.
type PaymentAttempt struct {
	ID                   uuid.UUID
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
	CreatedAt            time.Time
}
