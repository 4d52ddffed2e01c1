package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/mesafacil/api/internal/database"
	"github.com/mesafacil/api/internal/enum"
	"github.com/shopspring/decimal"
)

const maxOrderNumberRetries = 3

// Errors returned by the order service.
var (
	ErrEmptyItems           = errors.New("items are required")
	ErrInvalidOrderType     = errors.New("invalid order_type")
	ErrInvalidPaymentMethod = errors.New("invalid payment_method")
	ErrInvalidQuantity      = errors.New("quantity must be > 0")
	ErrNegativeAmount       = errors.New("amounts must be >= 0")
	ErrTotalMismatch        = errors.New("total_amount does not equal subtotal + tip + service_charge + total_tax")
	ErrRoomNumberRequired   = errors.New("room_number is required for room_service orders")
	ErrInvalidInvoiceType   = errors.New("invalid invoice_type")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed to create and update orders.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetNextOrderNumber(ctx context.Context, organisationID uuid.UUID) (int32, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrderByNumber(ctx context.Context, arg database.GetOrderByNumberParams) (database.Order, error)
	UpdateOrderPaymentStatus(ctx context.Context, arg database.UpdateOrderPaymentStatusParams) (database.Order, error)
	CreatePaymentAttempt(ctx context.Context, arg database.CreatePaymentAttemptParams) (database.PaymentAttempt, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// CreateOrderRequest is the validated input for creating an order.
// Amounts arrive as the client computed them; the service checks the sum
// but does not reprice the cart.
type CreateOrderRequest struct {
	OrganisationID uuid.UUID
	OrderType      string
	PaymentMethod  string
	TableNumber    string
	RoomNumber     string
	OrderName      string
	Email          string
	Phone          string
	SmsPhone       string
	InvoiceChoice  []string
	InvoiceType    string
	FiscalName     string
	FiscalID       string
	FiscalAddress  string
	Subtotal       decimal.Decimal
	Tip            decimal.Decimal
	ServiceCharge  decimal.Decimal
	TotalTax       decimal.Decimal
	TotalAmount    decimal.Decimal
	Items          []CreateOrderItemRequest
}

// CreateOrderItemRequest is a single item in the order. Name and UnitPrice
// are display data forwarded to hosted checkout pages; the persisted line
// keys on ProductRef.
type CreateOrderItemRequest struct {
	ProductRef    string
	Name          string
	UnitPrice     decimal.Decimal
	ItemType      string
	Quantity      int32
	Note          string
	Extras        []ItemExtra
	ComboProducts []ComboProduct
}

// ItemExtra is an add-on selected for an item.
type ItemExtra struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int32           `json:"quantity"`
}

// ComboProduct is one constituent of a combo item.
type ComboProduct struct {
	ProductRef string `json:"productRef"`
	Name       string `json:"name"`
}

// CreateOrderResult is the full created order with items.
type CreateOrderResult struct {
	Order database.Order
	Items []database.OrderItem
}

// OrderService handles order business logic.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore}
}

// CreateOrder validates and creates an order with its items atomically.
// Retries up to maxOrderNumberRetries times on order_number unique constraint
// violations (race condition where concurrent transactions get the same MAX).
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if err := validateCreateOrder(req); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		result, err := s.createOrderTx(ctx, req)
		if err == nil {
			return result, nil
		}
		if isOrderNumberConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

func validateCreateOrder(req CreateOrderRequest) error {
	switch req.OrderType {
	case enum.OrderTypeDineIn, enum.OrderTypeTakeaway,
		enum.OrderTypeDelivery, enum.OrderTypeRoomService:
	default:
		return ErrInvalidOrderType
	}

	switch req.PaymentMethod {
	case enum.PaymentMethodOffline, enum.PaymentMethodOnline,
		enum.PaymentMethodRoomCharge:
	default:
		return ErrInvalidPaymentMethod
	}

	if req.OrderType == enum.OrderTypeRoomService && req.RoomNumber == "" {
		return ErrRoomNumberRequired
	}

	switch req.InvoiceType {
	case enum.InvoiceTypeSimplified, enum.InvoiceTypeFiscal:
	default:
		return ErrInvalidInvoiceType
	}

	if len(req.Items) == 0 {
		return ErrEmptyItems
	}
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
	}

	for _, amt := range []decimal.Decimal{
		req.Subtotal, req.Tip, req.ServiceCharge, req.TotalTax, req.TotalAmount,
	} {
		if amt.IsNegative() {
			return ErrNegativeAmount
		}
	}

	expected := req.Subtotal.Add(req.Tip).Add(req.ServiceCharge).Add(req.TotalTax)
	if !req.TotalAmount.Equal(expected) {
		return ErrTotalMismatch
	}

	return nil
}

// isOrderNumberConflict checks if the error is a unique constraint violation
// on the order number (pgconn error code 23505).
func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_organisation_id_order_number_key"
	}
	return false
}

// createOrderTx executes the full order creation in a single transaction.
func (s *OrderService) createOrderTx(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	nextNum, err := store.GetNextOrderNumber(ctx, req.OrganisationID)
	if err != nil {
		return nil, fmt.Errorf("get next order number: %w", err)
	}
	orderNumber := fmt.Sprintf("MF-%04d", nextNum)

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		OrganisationID: req.OrganisationID,
		OrderNumber:    orderNumber,
		OrderSeq:       nextNum,
		OrderType:      req.OrderType,
		PaymentMethod:  req.PaymentMethod,
		TableNumber:    optionalText(req.TableNumber),
		RoomNumber:     optionalText(req.RoomNumber),
		OrderName:      optionalText(req.OrderName),
		Email:          optionalText(req.Email),
		Phone:          optionalText(req.Phone),
		SmsPhone:       optionalText(req.SmsPhone),
		InvoiceChoice:  req.InvoiceChoice,
		InvoiceType:    req.InvoiceType,
		FiscalName:     optionalText(req.FiscalName),
		FiscalID:       optionalText(req.FiscalID),
		FiscalAddress:  optionalText(req.FiscalAddress),
		Subtotal:       decimalToNumeric(req.Subtotal),
		Tip:            decimalToNumeric(req.Tip),
		ServiceCharge:  decimalToNumeric(req.ServiceCharge),
		TotalTax:       decimalToNumeric(req.TotalTax),
		TotalAmount:    decimalToNumeric(req.TotalAmount),
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	var items []database.OrderItem
	for i, item := range req.Items {
		itemType := item.ItemType
		if itemType == "" {
			itemType = enum.ItemTypeDefault
		}

		var extras, combos []byte
		if len(item.Extras) > 0 {
			extras, err = json.Marshal(item.Extras)
			if err != nil {
				return nil, fmt.Errorf("item[%d]: marshal extras: %w", i, err)
			}
		}
		if len(item.ComboProducts) > 0 {
			combos, err = json.Marshal(item.ComboProducts)
			if err != nil {
				return nil, fmt.Errorf("item[%d]: marshal combo products: %w", i, err)
			}
		}

		created, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:       order.ID,
			ProductRef:    item.ProductRef,
			ItemType:      itemType,
			Quantity:      item.Quantity,
			Note:          optionalText(item.Note),
			Extras:        extras,
			ComboProducts: combos,
		})
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, created)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CreateOrderResult{Order: order, Items: items}, nil
}

// --- Helpers ---

func optionalText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
